package selection

import (
	"math/rand"
	"testing"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
	"github.com/dgnsrekt/spotlight/internal/words"
	"github.com/dgnsrekt/spotlight/tts/sentence"
)

// lineIndex lays texts out left to right, ten units per word, on a single
// line per entry of lines.
func lineIndex(t *testing.T, lines ...[]string) *words.Index {
	t.Helper()

	var (
		texts  []string
		bounds []ttypes.Rect
	)
	for row, line := range lines {
		for col, text := range line {
			minX := float64(col * 10)
			texts = append(texts, text)
			bounds = append(bounds, ttypes.NewRect(minX, minX+8, float64(row+1)*20))
		}
	}
	idx, err := words.Load(texts, bounds)
	if err != nil {
		t.Fatalf("words.Load failed: %v", err)
	}
	return idx
}

func loaded(t *testing.T, text string) *Model {
	t.Helper()
	m := New(nil)
	m.Load(lineIndex(t, words.SplitToWords(text)))
	return m
}

func assertRange(t *testing.T, m *Model, wantStart, wantEnd int) {
	t.Helper()
	start, end := m.Range()
	if start != wantStart || end != wantEnd {
		t.Errorf("Range() = (%d, %d), want (%d, %d)", start, end, wantStart, wantEnd)
	}
}

func TestInitialState(t *testing.T) {
	m := New(nil)
	assertRange(t, m, -1, -1)
	if m.IsLoaded() {
		t.Error("new model should not be loaded")
	}
	if m.CurrentText() != "" {
		t.Error("expected empty text")
	}

	// Unloaded model rejects everything.
	if m.SelectNext() || m.SelectPrevious() || m.SelectSpecific(0) ||
		m.SelectWordAbove() || m.SelectWordBelow() ||
		m.SelectNextSentence() || m.SelectPreviousSentence() {
		t.Error("navigation on an unloaded model should report no change")
	}
}

func TestSelectNextAndPrevious(t *testing.T) {
	m := loaded(t, "a b c d e")

	if !m.SelectNext() {
		t.Fatal("SelectNext from unselected should select word 0")
	}
	assertRange(t, m, 0, 0)

	if m.SelectPrevious() {
		t.Error("SelectPrevious at 0 should report false")
	}
	assertRange(t, m, 0, 0)

	if !m.SelectSpecific(3) {
		t.Fatal("SelectSpecific(3) failed")
	}
	if !m.SelectPrevious() {
		t.Fatal("SelectPrevious failed")
	}
	assertRange(t, m, 2, 2)
}

func TestSelectNextAtEnd(t *testing.T) {
	m := loaded(t, "a b c d e")

	if !m.SelectSpecific(4) {
		t.Fatal("SelectSpecific(4) failed")
	}
	if m.SelectNext() {
		t.Error("SelectNext at N-1 should report false")
	}
	assertRange(t, m, 4, 4)
}

func TestSelectPreviousUnselected(t *testing.T) {
	m := loaded(t, "a b c")
	if m.SelectPrevious() {
		t.Error("SelectPrevious without selection should report false")
	}
	assertRange(t, m, -1, -1)
}

func TestSelectionBoundsUnderRandomNavigation(t *testing.T) {
	m := New(nil)
	m.Load(lineIndex(t,
		[]string{"The", "quick", "brown."},
		[]string{"Fox", "jumps", "over", "the"},
		[]string{"lazy", "dog!"},
	))
	n := m.Index().Size()

	ops := []func() bool{
		m.SelectNext,
		m.SelectPrevious,
		m.SelectWordAbove,
		m.SelectWordBelow,
		m.SelectNextSentence,
		m.SelectPreviousSentence,
		func() bool { m.Clear(); return true },
	}

	rng := rand.New(rand.NewSource(7))
	for step := 0; step < 2000; step++ {
		before := m.Selection()
		changed := ops[rng.Intn(len(ops))]()
		sel := m.Selection()

		if !changed && sel != before {
			t.Fatalf("step %d: selection changed from %+v to %+v without reporting it", step, before, sel)
		}
		if sel.IsEmpty() {
			if sel.End != -1 {
				t.Fatalf("step %d: half-empty selection %+v", step, sel)
			}
			continue
		}
		if sel.Start < 0 || sel.Start > sel.End || sel.End >= n {
			t.Fatalf("step %d: selection %+v out of bounds for N=%d", step, sel, n)
		}
	}
}

func TestSelectSpecific(t *testing.T) {
	m := loaded(t, "Hello world. How are you?")

	tests := []struct {
		index   int
		changed bool
		text    string
	}{
		{0, true, "Hello"},
		{3, true, "are"},
		{4, true, "you?"},
		{5, false, "you?"},
		{-1, false, "you?"},
	}

	for _, tt := range tests {
		if got := m.SelectSpecific(tt.index); got != tt.changed {
			t.Errorf("SelectSpecific(%d) = %v, want %v", tt.index, got, tt.changed)
		}
		if got := m.CurrentText(); got != tt.text {
			t.Errorf("after SelectSpecific(%d) CurrentText() = %q, want %q", tt.index, got, tt.text)
		}
	}
}

func TestClearIsIdempotent(t *testing.T) {
	m := loaded(t, "one two three")
	m.SelectSpecific(1)

	m.Clear()
	assertRange(t, m, -1, -1)
	m.Clear()
	assertRange(t, m, -1, -1)

	if m.Size() != 0 || !m.IsEmpty() || m.CurrentText() != "" {
		t.Error("cleared model should report an empty selection")
	}
}

func TestSentenceNavigation(t *testing.T) {
	m := loaded(t, "Hello world. How are you?")

	if !m.SelectNextSentence() {
		t.Fatal("first SelectNextSentence should succeed")
	}
	assertRange(t, m, 0, 1)
	if got := m.CurrentText(); got != "Hello world." {
		t.Errorf("CurrentText() = %q", got)
	}

	if !m.SelectNextSentence() {
		t.Fatal("second SelectNextSentence should succeed")
	}
	assertRange(t, m, 2, 4)
	if m.Size() != 3 {
		t.Errorf("Size() = %d, want 3", m.Size())
	}

	if m.SelectNextSentence() {
		t.Error("third SelectNextSentence should report false")
	}
	assertRange(t, m, 2, 4)

	if !m.SelectPreviousSentence() {
		t.Fatal("SelectPreviousSentence should succeed")
	}
	assertRange(t, m, 0, 1)

	if m.SelectPreviousSentence() {
		t.Error("SelectPreviousSentence at start should report false")
	}
}

func TestPreviousSentenceFromMiddle(t *testing.T) {
	m := loaded(t, "One. Two three. Four five six.")

	m.SelectSpecific(4)
	if !m.SelectPreviousSentence() {
		t.Fatal("SelectPreviousSentence failed")
	}
	// The word before the selection belongs to the same sentence.
	assertRange(t, m, 3, 5)
	if got := m.CurrentText(); got != "Four five six." {
		t.Errorf("CurrentText() = %q", got)
	}

	if !m.SelectPreviousSentence() {
		t.Fatal("SelectPreviousSentence failed")
	}
	assertRange(t, m, 1, 2)
}

func TestSentenceWithAbbreviationLocator(t *testing.T) {
	m := New(sentence.NewLocator(sentence.WithAbbreviations()))
	m.Load(lineIndex(t, words.SplitToWords("Ask Dr. Who now. Bye.")))

	m.SelectNextSentence()
	assertRange(t, m, 0, 3)
}

func TestSelectWordBelowProjection(t *testing.T) {
	texts := []string{"left", "mid", "right", "wide"}
	bounds := []ttypes.Rect{
		ttypes.NewRect(0, 20, 10),
		ttypes.NewRect(40, 60, 10), // centerX = 50
		ttypes.NewRect(80, 100, 10),
		ttypes.NewRect(0, 100, 20),
	}
	idx, err := words.Load(texts, bounds)
	if err != nil {
		t.Fatal(err)
	}

	m := New(nil)
	m.Load(idx)
	m.SelectSpecific(1)

	if !m.SelectWordBelow() {
		t.Fatal("SelectWordBelow should find the word spanning the center")
	}
	assertRange(t, m, 3, 3)

	if m.SelectWordBelow() {
		t.Error("SelectWordBelow on the last line should report false")
	}
	assertRange(t, m, 3, 3)
}

func TestSelectWordAboveAndBelow(t *testing.T) {
	m := New(nil)
	m.Load(lineIndex(t,
		[]string{"aa", "bb", "cc", "dd"},
		[]string{"ee", "ff"},
		[]string{"gg", "hh", "ii"},
	))

	tests := []struct {
		name    string
		start   int
		dir     Direction
		changed bool
		want    int
	}{
		{"below same column", 1, Below, true, 5},
		{"below onto shorter line picks nearest edge", 3, Below, true, 5},
		{"below skips only one line", 5, Below, true, 7},
		{"above from last line", 8, Above, true, 5},
		{"above from middle", 4, Above, true, 0},
		{"above on first line", 2, Above, false, 2},
		{"below on last line", 6, Below, false, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.SelectSpecific(tt.start)
			if got := m.SelectAboveOrBelow(tt.dir); got != tt.changed {
				t.Fatalf("SelectAboveOrBelow = %v, want %v", got, tt.changed)
			}
			assertRange(t, m, tt.want, tt.want)
		})
	}
}

func TestSelectAboveTieKeepsScanOrder(t *testing.T) {
	// Both candidates on line one are 5 units from centerX=15. Scanning
	// upward visits index 1 first.
	texts := []string{"a", "b", "c"}
	bounds := []ttypes.Rect{
		ttypes.NewRect(0, 10, 10),
		ttypes.NewRect(20, 30, 10),
		ttypes.NewRect(10, 20, 20),
	}
	bounds[2].CenterX = 15
	idx, err := words.Load(texts, bounds)
	if err != nil {
		t.Fatal(err)
	}

	m := New(nil)
	m.Load(idx)
	m.SelectSpecific(2)
	// centerX 15 lies within neither [0,10] nor [20,30].
	if !m.SelectWordAbove() {
		t.Fatal("SelectWordAbove failed")
	}
	assertRange(t, m, 1, 1)
}

func TestVerticalNavigationNeedsSelection(t *testing.T) {
	m := loaded(t, "a b")
	if m.SelectWordBelow() || m.SelectWordAbove() {
		t.Error("vertical navigation without a selection should report false")
	}
}

func TestLoadResetsSelection(t *testing.T) {
	m := loaded(t, "a b c")
	m.SelectSpecific(2)

	m.Load(lineIndex(t, []string{"x"}))
	assertRange(t, m, -1, -1)
	if text, ok := m.WordAt(0); !ok || text != "x" {
		t.Errorf("WordAt(0) = %q, %v", text, ok)
	}
}

func TestRelayoutKeepsSelection(t *testing.T) {
	m := New(nil)
	index, err := words.Load([]string{"one", "two", "three"}, []ttypes.Rect{
		ttypes.NewRect(0, 3, 1), ttypes.NewRect(4, 7, 1), ttypes.NewRect(8, 13, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	m.Load(index)
	m.SelectSpecific(0)
	if m.SelectWordBelow() {
		t.Fatal("single line has no word below")
	}

	relaid := m.Relayout([]ttypes.Rect{
		ttypes.NewRect(0, 3, 1), ttypes.NewRect(0, 3, 2), ttypes.NewRect(4, 9, 2),
	})
	if relaid == nil || m.Index() != relaid {
		t.Fatal("Relayout did not replace the index")
	}
	if start, end := m.Range(); start != 0 || end != 0 {
		t.Errorf("selection after Relayout = %d,%d", start, end)
	}
	if !m.SelectWordBelow() || m.Selection().Start != 1 {
		t.Errorf("word below after Relayout = %+v", m.Selection())
	}
	if text, _ := m.WordAt(2); text != "three" {
		t.Errorf("WordAt(2) = %q", text)
	}

	if m.Relayout([]ttypes.Rect{{}}) != nil {
		t.Error("mismatched bounds should be rejected")
	}
	if New(nil).Relayout(nil) != nil {
		t.Error("unloaded model cannot be relaid out")
	}
}
