// Package selection implements the moving word selection and its spatial
// and linguistic navigation.
package selection

import (
	"math"
	"strings"
	"sync"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
	"github.com/dgnsrekt/spotlight/internal/words"
	"github.com/dgnsrekt/spotlight/tts/sentence"
)

// Direction is the vertical scan direction for SelectAboveOrBelow.
type Direction int

const (
	// Above scans towards the start of the document.
	Above Direction = -1

	// Below scans towards the end of the document.
	Below Direction = 1
)

// Model is a contiguous selection over a word index. All operations are
// safe for concurrent use, never panic and report whether the selection
// changed. Nothing is mutated when an operation reports false.
type Model struct {
	mu      sync.RWMutex
	index   *words.Index
	locator *sentence.Locator
	sel     ttypes.Selection
}

// New creates an empty, unloaded model. A nil locator uses the default
// terminators.
func New(locator *sentence.Locator) *Model {
	if locator == nil {
		locator = sentence.NewLocator()
	}
	return &Model{
		locator: locator,
		sel:     ttypes.NoSelection,
	}
}

// Load replaces the word index and clears the selection.
func (m *Model) Load(index *words.Index) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.index = index
	m.sel = ttypes.NoSelection
}

// Relayout moves the loaded words to new boxes and keeps the selection. It
// returns the new index, or nil when bounds do not match the loaded words.
func (m *Model) Relayout(bounds []ttypes.Rect) *words.Index {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index == nil || len(bounds) != m.index.Size() {
		return nil
	}
	index, err := m.index.WithBounds(bounds)
	if err != nil {
		return nil
	}
	m.index = index
	return index
}

// IsLoaded reports whether a word index has been loaded.
func (m *Model) IsLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index != nil
}

// Index returns the loaded word index, or nil.
func (m *Model) Index() *words.Index {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index
}

// SelectNext moves to the word after the end of the selection. From the
// unselected state it selects the first word.
func (m *Model) SelectNext() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sel.End >= m.index.Size()-1 {
		return false
	}
	end := m.sel.End + 1
	m.sel = ttypes.Selection{Start: end, End: end}
	return true
}

// SelectPrevious moves to the word before the start of the selection.
func (m *Model) SelectPrevious() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sel.IsEmpty() || m.sel.Start <= 0 {
		return false
	}
	start := m.sel.Start - 1
	m.sel = ttypes.Selection{Start: start, End: start}
	return true
}

// SelectSpecific selects the single word at i.
func (m *Model) SelectSpecific(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= m.index.Size() {
		return false
	}
	m.sel = ttypes.Selection{Start: i, End: i}
	return true
}

// SelectWordAbove selects the word on the previous visual line closest to
// the horizontal center of the current word.
func (m *Model) SelectWordAbove() bool {
	return m.SelectAboveOrBelow(Above)
}

// SelectWordBelow selects the word on the next visual line closest to the
// horizontal center of the current word.
func (m *Model) SelectWordBelow() bool {
	return m.SelectAboveOrBelow(Below)
}

// SelectAboveOrBelow projects the start of the selection onto the adjacent
// visual line in dir. Lines are identified by the bottom edge of each word;
// only the first line that differs from the current one is considered.
func (m *Model) SelectAboveOrBelow(dir Direction) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sel.IsEmpty() {
		return false
	}
	cur, err := m.index.Get(m.sel.Start)
	if err != nil {
		return false
	}

	var (
		best       = -1
		bestDiff   = math.MaxFloat64
		targetLine float64
		haveTarget bool
	)

	step := int(dir)
	for next := m.sel.End + step; next >= 0 && next < m.index.Size(); next += step {
		cand, err := m.index.Get(next)
		if err != nil {
			break
		}
		if cand.Bounds.MaxY == cur.Bounds.MaxY {
			continue
		}
		if !haveTarget {
			targetLine = cand.Bounds.MaxY
			haveTarget = true
		}
		if cand.Bounds.MaxY != targetLine {
			break
		}

		if diff := horizontalDistance(cur.Bounds.CenterX, cand.Bounds); diff < bestDiff {
			bestDiff = diff
			best = next
		}
	}

	if best == -1 {
		return false
	}
	m.sel = ttypes.Selection{Start: best, End: best}
	return true
}

// horizontalDistance is zero when x lies within r, otherwise the distance to
// the nearer edge.
func horizontalDistance(x float64, r ttypes.Rect) float64 {
	if r.Contains(x) {
		return 0
	}
	return math.Min(math.Abs(x-r.MinX), math.Abs(x-r.MaxX))
}

// SelectNextSentence selects the sentence that follows the selection. From
// the unselected state it selects the first sentence.
func (m *Model) SelectNextSentence() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sel.End >= m.index.Size()-1 {
		return false
	}
	return m.selectSentenceContaining(m.sel.End + 1)
}

// SelectPreviousSentence selects the sentence before the selection.
func (m *Model) SelectPreviousSentence() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sel.Start <= 0 {
		return false
	}
	return m.selectSentenceContaining(m.sel.Start - 1)
}

func (m *Model) selectSentenceContaining(i int) bool {
	start, end, ok := m.locator.Locate(m.index, i)
	if !ok {
		return false
	}
	m.sel = ttypes.Selection{Start: start, End: end}
	return true
}

// Clear drops the selection. It is always safe to call.
func (m *Model) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sel = ttypes.NoSelection
}

// Range returns the selection bounds. Both are -1 when nothing is selected.
func (m *Model) Range() (start, end int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sel.Start, m.sel.End
}

// Selection returns a copy of the current selection.
func (m *Model) Selection() ttypes.Selection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sel
}

// Size returns how many words are selected.
func (m *Model) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sel.Len()
}

// IsEmpty reports whether nothing is selected.
func (m *Model) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sel.IsEmpty()
}

// CurrentText returns the selected words joined by single spaces.
func (m *Model) CurrentText() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.sel.IsEmpty() {
		return ""
	}
	var b strings.Builder
	for i := m.sel.Start; i <= m.sel.End; i++ {
		text, ok := m.index.Text(i)
		if !ok {
			break
		}
		b.WriteString(text)
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}

// WordAt returns the text of the word at i.
func (m *Model) WordAt(i int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index.Text(i)
}
