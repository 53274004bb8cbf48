//go:build linux

package main

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

func (le *lineEditor) ReadLine(prompt string) (string, error) {
	if !stdinIsTTY() {
		return le.readBuffered(prompt)
	}

	fd := int(le.in.Fd())
	oldState, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return le.readBuffered(prompt)
	}
	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO | unix.ISIG
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &newState); err != nil {
		return "", err
	}
	defer func() {
		_ = unix.IoctlSetTermios(fd, unix.TCSETS, oldState)
	}()
	return le.edit(prompt)
}

// edit runs the editing loop on a terminal already in raw mode. Input is
// read through le.reader, so bytes that arrive after the line's end stay
// buffered for the next call.
func (le *lineEditor) edit(prompt string) (string, error) {
	out := le.out
	_, _ = fmt.Fprint(out, prompt)
	line := make([]rune, 0, 256)
	cursor := 0
	escState := 0
	var escBuf strings.Builder
	var pending []byte
	histPos := len(le.history)
	histBrowsing := false
	histDraft := ""

	redraw := func() {
		_, _ = fmt.Fprintf(out, "\r%s%s\x1b[K", prompt, string(line))
		if cursor < len(line) {
			_, _ = fmt.Fprintf(out, "\r%s%s", prompt, string(line[:cursor]))
		}
	}
	setLine := func(s string) {
		line = append(line[:0], []rune(s)...)
		cursor = len(line)
		redraw()
	}
	wordStart := func(pos int) int {
		for pos > 0 && unicode.IsSpace(line[pos-1]) {
			pos--
		}
		for pos > 0 && !unicode.IsSpace(line[pos-1]) {
			pos--
		}
		return pos
	}
	wordEnd := func(pos int) int {
		for pos < len(line) && unicode.IsSpace(line[pos]) {
			pos++
		}
		for pos < len(line) && !unicode.IsSpace(line[pos]) {
			pos++
		}
		return pos
	}
	deleteRange := func(from, to int) {
		if from >= to {
			return
		}
		line = append(line[:from], line[to:]...)
		cursor = from
		redraw()
	}
	insert := func(r rune) {
		line = append(line, 0)
		copy(line[cursor+1:], line[cursor:])
		line[cursor] = r
		cursor++
		redraw()
	}
	handleCSI := func(seq string) {
		switch seq {
		case "A": // up
			if len(le.history) == 0 {
				return
			}
			if !histBrowsing {
				histDraft = string(line)
				histBrowsing = true
				histPos = len(le.history)
			}
			if histPos > 0 {
				histPos--
				setLine(le.history[histPos])
			}
		case "B": // down
			if !histBrowsing {
				return
			}
			if histPos < len(le.history)-1 {
				histPos++
				setLine(le.history[histPos])
			} else {
				histPos = len(le.history)
				histBrowsing = false
				setLine(histDraft)
			}
		case "D":
			if cursor > 0 {
				cursor--
				redraw()
			}
		case "C":
			if cursor < len(line) {
				cursor++
				redraw()
			}
		case "H", "1~":
			cursor = 0
			redraw()
		case "F", "4~":
			cursor = len(line)
			redraw()
		case "3~":
			if cursor < len(line) {
				deleteRange(cursor, cursor+1)
			}
		case "1;5D", "5D":
			cursor = wordStart(cursor)
			redraw()
		case "1;5C", "5C":
			cursor = wordEnd(cursor)
			redraw()
		case "3;5~":
			end := wordEnd(cursor)
			line = append(line[:cursor], line[end:]...)
			redraw()
		}
	}

	for {
		b, err := le.reader.ReadByte()
		if err != nil {
			return "", err
		}
		if escState != 0 {
			switch escState {
			case 1:
				switch b {
				case '[', 'O':
					escState = 2
					escBuf.Reset()
				case 'b', 'B': // Alt+b
					cursor = wordStart(cursor)
					redraw()
					escState = 0
				case 'f', 'F': // Alt+f
					cursor = wordEnd(cursor)
					redraw()
					escState = 0
				case 127: // Alt+Backspace
					deleteRange(wordStart(cursor), cursor)
					escState = 0
				default:
					escState = 0
				}
			case 2:
				escBuf.WriteByte(b)
				if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
					handleCSI(escBuf.String())
					escState = 0
				}
			}
			continue
		}

		if len(pending) > 0 || b >= utf8.RuneSelf {
			pending = append(pending, b)
			if !utf8.FullRune(pending) {
				continue
			}
			r, _ := utf8.DecodeRune(pending)
			pending = pending[:0]
			if r != utf8.RuneError {
				insert(r)
			}
			continue
		}

		switch b {
		case 27: // ESC
			escState = 1
		case '\r', '\n':
			if b == '\r' && le.reader.Buffered() > 0 {
				if next, _ := le.reader.Peek(1); next[0] == '\n' {
					_, _ = le.reader.ReadByte()
				}
			}
			_, _ = fmt.Fprint(out, "\r\n")
			return string(line), nil
		case 3: // Ctrl+C
			_, _ = fmt.Fprint(out, "^C\r\n")
			return "", io.EOF
		case 4: // Ctrl+D
			if len(line) == 0 {
				_, _ = fmt.Fprint(out, "\r\n")
				return "", io.EOF
			}
			if cursor < len(line) {
				deleteRange(cursor, cursor+1)
			}
		case 127, 8: // backspace
			if cursor > 0 {
				deleteRange(cursor-1, cursor)
			}
		case 1: // Ctrl+A
			cursor = 0
			redraw()
		case 5: // Ctrl+E
			cursor = len(line)
			redraw()
		case 11: // Ctrl+K
			line = line[:cursor]
			redraw()
		case 21: // Ctrl+U
			deleteRange(0, cursor)
		case 23: // Ctrl+W
			deleteRange(wordStart(cursor), cursor)
		default:
			if b >= 32 {
				insert(rune(b))
			}
		}
	}
}
