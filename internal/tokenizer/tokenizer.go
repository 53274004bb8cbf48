// Package tokenizer splits raw text into the atomic units the context model
// learns from: maximal runs of alphanumeric characters, and every other
// character on its own.
package tokenizer

import (
	"iter"
	"unicode"
	"unicode/utf8"
)

// Tokens returns a lazy sequence over the tokens of text.
//
// The sequence holds no state between iterations, so it can be ranged over
// any number of times. Every byte of text belongs to exactly one token and
// the concatenation of all tokens reproduces text. Bytes that are not valid
// UTF-8 are yielded one at a time as single-byte tokens.
func Tokens(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 0; i < len(text); {
			r, size := utf8.DecodeRuneInString(text[i:])
			end := i + size
			if isAlnum(r, size) {
				for end < len(text) {
					next, nsize := utf8.DecodeRuneInString(text[end:])
					if !isAlnum(next, nsize) {
						break
					}
					end += nsize
				}
			}
			if !yield(text[i:end]) {
				return
			}
			i = end
		}
	}
}

// Tokenize returns all tokens of text in order.
func Tokenize(text string) []string {
	out := make([]string, 0, len(text)/3+1)
	for tok := range Tokens(text) {
		out = append(out, tok)
	}
	return out
}

// Count returns the number of tokens in text without materializing them.
func Count(text string) int {
	n := 0
	for range Tokens(text) {
		n++
	}
	return n
}

// IsWord reports whether tok is an alphanumeric run rather than a single
// punctuation, whitespace or symbol character.
func IsWord(tok string) bool {
	if tok == "" {
		return false
	}
	r, size := utf8.DecodeRuneInString(tok)
	return isAlnum(r, size)
}

// isAlnum matches letters, numbers and the combining marks that count as
// alphabetic (e.g. Devanagari vowel signs). A decoding error is never
// alphanumeric.
func isAlnum(r rune, size int) bool {
	if r == utf8.RuneError && size <= 1 {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Other_Alphabetic, r)
}
