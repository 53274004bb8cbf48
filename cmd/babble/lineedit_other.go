//go:build !linux

package main

func (le *lineEditor) ReadLine(prompt string) (string, error) {
	return le.readBuffered(prompt)
}
