package speech

import (
	"unicode"
	"unicode/utf8"
)

// words returns the runs of [a-z'] bounded on both sides by a word boundary, where
// any Unicode letter, number or underscore counts as a word character. A run glued
// to a non-ASCII letter ("naïve") is therefore not a word.
func words(text string) []string {
	var found []string

	for i := 0; i < len(text); {
		if isWordByte(text[i]) && isBoundary(text, i) {
			end := i
			for end < len(text) && isWordByte(text[end]) {
				end++
			}
			// Shrink the greedy run until it ends on a boundary.
			for ; end > i; end-- {
				if isBoundary(text, end) {
					break
				}
			}
			if end > i {
				found = append(found, text[i:end])
				i = end
				continue
			}
		}

		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}

	return found
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || b == '\''
}

// isBoundary reports whether byte offset i of text sits between a word and a non-word character.
func isBoundary(text string, i int) bool {
	before := false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		before = isWordRune(r)
	}

	after := false
	if i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		after = isWordRune(r)
	}

	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
