package ui

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// laidOut builds words on a single text row per line, one cell apart.
func laidOut(lines ...[]string) []ttypes.Word {
	var ws []ttypes.Word
	for row, line := range lines {
		col := 0
		for _, text := range line {
			ws = append(ws, ttypes.Word{
				Index:  len(ws),
				Text:   text,
				Bounds: ttypes.NewRect(float64(col), float64(col+len(text)), float64(row+1)),
			})
			col += len(text) + 1
		}
	}
	return ws
}

func TestFlow(t *testing.T) {
	ws := laidOut([]string{"Hello", "world.", "How"}, []string{"are", "you?"})

	tests := []struct {
		name  string
		width int
		gap   int
		lines [][]int
		spans []span
	}{
		{
			name:  "keeps source lines",
			width: 80,
			gap:   1,
			lines: [][]int{{0, 1, 2}, {3, 4}},
			spans: []span{{0, 0, 5}, {0, 6, 12}, {0, 13, 16}, {1, 0, 3}, {1, 4, 8}},
		},
		{
			name:  "wraps at width",
			width: 10,
			gap:   1,
			lines: [][]int{{0}, {1, 2}, {3, 4}},
			spans: []span{{0, 0, 5}, {1, 0, 6}, {1, 7, 10}, {2, 0, 3}, {2, 4, 8}},
		},
		{
			name:  "wider gaps",
			width: 80,
			gap:   3,
			lines: [][]int{{0, 1, 2}, {3, 4}},
			spans: []span{{0, 0, 5}, {0, 8, 14}, {0, 17, 20}, {1, 0, 3}, {1, 6, 10}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := flow(ws, tt.width, tt.gap)
			if !reflect.DeepEqual(p.lines, tt.lines) {
				t.Errorf("lines = %v, want %v", p.lines, tt.lines)
			}
			if !reflect.DeepEqual(p.spans, tt.spans) {
				t.Errorf("spans = %v, want %v", p.spans, tt.spans)
			}
		})
	}
}

func TestFlow_ScannedPage(t *testing.T) {
	// Pixel boxes: the third word starts left of the second one's end, so
	// it opens a new line.
	ws := []ttypes.Word{
		{Index: 0, Text: "Hello", Bounds: ttypes.NewRect(10, 60, 25)},
		{Index: 1, Text: "world.", Bounds: ttypes.NewRect(70, 130, 25)},
		{Index: 2, Text: "Next", Bounds: ttypes.NewRect(10, 50, 55)},
	}
	p := flow(ws, 80, 1)
	if !reflect.DeepEqual(p.lines, [][]int{{0, 1}, {2}}) {
		t.Errorf("lines = %v", p.lines)
	}
}

func TestPage_WordAt(t *testing.T) {
	p := flow(laidOut([]string{"Hello", "world."}, []string{"Bye"}), 80, 1)

	tests := []struct {
		line, col int
		want      int
		ok        bool
	}{
		{0, 0, 0, true},
		{0, 4, 0, true},
		{0, 5, 0, false}, // the gap
		{0, 6, 1, true},
		{0, 11, 1, true},
		{0, 12, 0, false},
		{1, 1, 2, true},
		{2, 0, 0, false},
		{-1, 0, 0, false},
	}
	for _, tt := range tests {
		got, ok := p.wordAt(tt.line, tt.col)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("wordAt(%d, %d) = %d, %v; want %d, %v", tt.line, tt.col, got, ok, tt.want, tt.ok)
		}
	}

	if p.lineOf(2) != 1 || p.lineOf(5) != -1 {
		t.Errorf("lineOf mismatch: %d %d", p.lineOf(2), p.lineOf(5))
	}
}

func TestPage_Render(t *testing.T) {
	ws := laidOut([]string{"Hello", "world."}, []string{"Bye"})
	p := flow(ws, 20, 1)

	out := p.render(ws, ttypes.Selection{Start: 0, End: 1}, paletteAt(0), paletteAt(9), 20)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	for _, w := range []string{"Hello", "world.", "Bye"} {
		if !strings.Contains(out, w) {
			t.Errorf("render output is missing %q", w)
		}
	}
}

func TestPaletteAt(t *testing.T) {
	if paletteAt(len(Palettes)) != Palettes[0] {
		t.Error("paletteAt should wrap forwards")
	}
	if paletteAt(-1) != Palettes[len(Palettes)-1] {
		t.Error("paletteAt should wrap backwards")
	}
	if paletteAt(9).Name != "red on yellow" {
		t.Errorf("default spotlight = %q", paletteAt(9).Name)
	}
}

func TestIndentAndFill(t *testing.T) {
	if got := indent("a\nb", 2); got != "  a\n  b" {
		t.Errorf("indent = %q", got)
	}
	if got := fillLines("ab\nc", 3); got != "ab \nc  " {
		t.Errorf("fillLines = %q", got)
	}
}
