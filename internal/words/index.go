// Package words holds the loaded document as an ordered word index together
// with the text utilities used to build it.
package words

import (
	"errors"
	"fmt"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

var (
	// ErrOutOfRange is returned when an index falls outside [0, N).
	ErrOutOfRange = errors.New("word index out of range")

	// ErrLayoutMismatch is returned when words and bounds differ in length.
	ErrLayoutMismatch = errors.New("words and bounds have different lengths")
)

// Index is an ordered, immutable sequence of words in reading order.
// A new Index is built for every document; it is never mutated after Load,
// so it can be shared between goroutines without locking.
type Index struct {
	words []ttypes.Word
}

// Load builds an Index from word texts and their layout boxes. The i-th
// bound belongs to the i-th text.
func Load(texts []string, bounds []ttypes.Rect) (*Index, error) {
	if len(texts) != len(bounds) {
		return nil, fmt.Errorf("%w: %d words, %d bounds", ErrLayoutMismatch, len(texts), len(bounds))
	}

	ws := make([]ttypes.Word, len(texts))
	for i, text := range texts {
		ws[i] = ttypes.Word{Index: i, Text: text, Bounds: bounds[i]}
	}
	return &Index{words: ws}, nil
}

// Empty returns an index with no words.
func Empty() *Index {
	return &Index{}
}

// Get returns the word at i.
func (x *Index) Get(i int) (ttypes.Word, error) {
	if x == nil || i < 0 || i >= len(x.words) {
		return ttypes.Word{}, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	return x.words[i], nil
}

// Text returns the text of the word at i and whether it exists.
func (x *Index) Text(i int) (string, bool) {
	if x == nil || i < 0 || i >= len(x.words) {
		return "", false
	}
	return x.words[i].Text, true
}

// Size returns the number of words.
func (x *Index) Size() int {
	if x == nil {
		return 0
	}
	return len(x.words)
}

// WithBounds returns an index of the same words laid out at bounds.
func (x *Index) WithBounds(bounds []ttypes.Rect) (*Index, error) {
	return Load(x.Texts(), bounds)
}

// Texts returns a copy of all word texts in order.
func (x *Index) Texts() []string {
	if x == nil {
		return nil
	}
	out := make([]string, len(x.words))
	for i, w := range x.words {
		out[i] = w.Text
	}
	return out
}
