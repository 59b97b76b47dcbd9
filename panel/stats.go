// Package panel implements the two-column text scratchpad: per-panel word
// counts, clipboard transfer and HTML export.
package panel

import (
	"unicode/utf8"
)

// Stats holds the counters shown under each panel.
type Stats struct {
	EnglishWords int // Runs of ASCII letters
	ChineseChars int // Code points in the CJK Unified Ideographs block
	Chars        int
}

// Count computes the stats of text.
func Count(text string) Stats {
	s := Stats{Chars: utf8.RuneCountInString(text)}
	inWord := false
	for _, r := range text {
		if isASCIILetter(r) {
			if !inWord {
				s.EnglishWords++
			}
			inWord = true
			continue
		}
		inWord = false
		if r >= 0x4E00 && r <= 0x9FFF {
			s.ChineseChars++
		}
	}
	return s
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
