// Package sentence finds sentence boundaries inside a word index.
package sentence

import (
	"strings"
	"unicode"

	"github.com/dgnsrekt/spotlight/internal/words"
)

// Texts is the read-only view of a word index the locator needs.
// *words.Index satisfies it.
type Texts interface {
	Text(i int) (string, bool)
	Size() int
}

// Locator finds the sentence containing a given word.
type Locator struct {
	terminators []rune

	// abbreviations, when set, lists lower-cased words whose trailing
	// period does not end a sentence.
	abbreviations map[string]bool
}

// Option configures a Locator.
type Option func(*Locator)

// WithTerminators replaces the default sentence terminators.
func WithTerminators(terminators ...rune) Option {
	return func(l *Locator) {
		if len(terminators) > 0 {
			l.terminators = append([]rune(nil), terminators...)
		}
	}
}

// WithAbbreviations makes words such as "Dr." or "напр." continue the
// sentence instead of ending it.
func WithAbbreviations() Option {
	return func(l *Locator) {
		l.abbreviations = makeAbbreviationMap()
	}
}

// NewLocator creates a locator. Without options a word ends a sentence
// when its last non-whitespace rune is '.', '?' or '!'.
func NewLocator(opts ...Option) *Locator {
	l := &Locator{terminators: words.DefaultTerminators}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Terminators returns the runes that end a sentence.
func (l *Locator) Terminators() []rune {
	return append([]rune(nil), l.terminators...)
}

// EndsSentence reports whether text is the last word of a sentence.
func (l *Locator) EndsSentence(text string) bool {
	if !words.EndsSentence(text, l.terminators) {
		return false
	}
	if l.abbreviations == nil || words.LastRune(text) != '.' {
		return true
	}

	word := strings.ToLower(strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '(' || r == '"' || r == '\''
	}))
	word = strings.TrimSuffix(word, ".")
	return !l.abbreviations[word]
}

// Locate returns the inclusive word range of the sentence containing i.
//
// The end is the first word at or after i that ends a sentence, or the last
// word. The start is one past the closest sentence end before that, or 0.
// ok is false when i is out of range.
func (l *Locator) Locate(x Texts, i int) (start, end int, ok bool) {
	n := x.Size()
	if i < 0 || i >= n {
		return -1, -1, false
	}

	end = i
	for end < n-1 && !l.endsAt(x, end) {
		end++
	}
	if end == 0 {
		return 0, 0, true
	}

	start = 0
	for k := end - 1; k >= 0; k-- {
		if l.endsAt(x, k) {
			start = k + 1
			break
		}
	}
	return start, end, true
}

func (l *Locator) endsAt(x Texts, i int) bool {
	text, ok := x.Text(i)
	return ok && l.EndsSentence(text)
}

// makeAbbreviationMap creates a map of common abbreviations, without their
// trailing period.
func makeAbbreviationMap() map[string]bool {
	abbrevs := []string{
		"mr", "mrs", "ms", "dr", "prof", "sr", "jr",
		"ph.d", "m.d", "b.a", "m.a", "b.s",
		"inc", "ltd", "co", "corp",
		"i.e", "e.g", "etc", "vs", "cf", "al",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
		"st", "ave", "no", "vol", "pp", "fig",
		"u.s", "u.k", "e.u",
		// Bulgarian
		"г", "гр", "ул", "бул", "др", "вж", "напр", "т.е", "т.н", "пр", "стр", "с", "проф", "акад",
	}

	m := make(map[string]bool, len(abbrevs))
	for _, abbrev := range abbrevs {
		m[abbrev] = true
	}
	return m
}
