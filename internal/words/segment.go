package words

import (
	"strings"
	"time"
	"unicode"
)

// DefaultTerminators are the runes that end a sentence.
var DefaultTerminators = []rune{'.', '?', '!'}

const (
	// ShortPause is trimmed from clips of words that end a sentence or clause.
	ShortPause = 150 * time.Millisecond

	// LongPause is trimmed from clips of every other word.
	LongPause = 250 * time.Millisecond
)

// SplitToWords splits text on spaces and newlines, dropping empty tokens.
// The returned order is the reading order of the document.
func SplitToWords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\n'
	})
	if fields == nil {
		return []string{}
	}
	return fields
}

// Reconstruct joins words with single spaces.
func Reconstruct(ws []string) string {
	trimmed := make([]string, 0, len(ws))
	for _, w := range ws {
		trimmed = append(trimmed, strings.TrimSpace(w))
	}
	return strings.TrimSpace(strings.Join(trimmed, " "))
}

// LastRune returns the last non-whitespace rune of s, or 0 if s is blank.
func LastRune(s string) rune {
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	if trimmed == "" {
		return 0
	}
	runes := []rune(trimmed)
	return runes[len(runes)-1]
}

// EndsSentence reports whether the last non-whitespace rune of s is one of
// terminators.
func EndsSentence(s string, terminators []rune) bool {
	return isTerminator(LastRune(s), terminators)
}

// StopPause returns how much trailing silence to trim from a clip of text.
// Synthesizers pad single words with a pause; the pause is shorter after
// punctuation.
func StopPause(text string) time.Duration {
	last := LastRune(text)
	if last == ',' || isTerminator(last, DefaultTerminators) {
		return ShortPause
	}
	return LongPause
}

// StopOffset returns the effective end of a clip of text with the given
// natural duration. It never goes below zero.
func StopOffset(text string, duration time.Duration) time.Duration {
	stop := duration - StopPause(text)
	if stop < 0 {
		return 0
	}
	return stop
}

// HasLetters reports whether s contains at least one Latin or Cyrillic letter.
func HasLetters(s string) bool {
	for _, r := range s {
		if isLatin(r) || isCyrillic(r) {
			return true
		}
	}
	return false
}

func isTerminator(r rune, terminators []rune) bool {
	if r == 0 {
		return false
	}
	for _, t := range terminators {
		if r == t {
			return true
		}
	}
	return false
}
