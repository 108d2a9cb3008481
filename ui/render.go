package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// span is where a word landed on screen.
type span struct {
	line  int
	start int // first cell
	end   int // cell after the word
}

// page is a document flowed onto screen lines.
type page struct {
	lines [][]int // word indices per line
	spans []span  // per word
}

// flow places words on lines of at most width cells, gap cells apart. A word
// that starts left of where the previous one ended begins a new line, which
// keeps the line structure of both laid-out text and scanned pages.
func flow(ws []ttypes.Word, width, gap int) page {
	if gap < 1 {
		gap = 1
	}
	p := page{spans: make([]span, len(ws))}
	line, col := -1, 0
	for i, w := range ws {
		cells := runewidth.StringWidth(w.Text)
		breakLine := line < 0 ||
			w.Bounds.MinX < ws[i-1].Bounds.MaxX ||
			(width > 0 && col+gap+cells > width)
		if breakLine {
			line++
			col = 0
			p.lines = append(p.lines, nil)
		} else {
			col += gap
		}
		p.lines[line] = append(p.lines[line], i)
		p.spans[i] = span{line: line, start: col, end: col + cells}
		col += cells
	}
	return p
}

// bounds returns the on-screen box of every word in cell coordinates, the
// same shape document.Layout produces.
func (p page) bounds() []ttypes.Rect {
	out := make([]ttypes.Rect, len(p.spans))
	for i, s := range p.spans {
		out[i] = ttypes.NewRect(float64(s.start), float64(s.end), float64(s.line+1))
	}
	return out
}

// wordAt returns the word under the cell at line and column.
func (p page) wordAt(line, col int) (int, bool) {
	if line < 0 || line >= len(p.lines) {
		return 0, false
	}
	for _, i := range p.lines[line] {
		if s := p.spans[i]; s.start <= col && col < s.end {
			return i, true
		}
	}
	return 0, false
}

// lineOf returns the line word i is on, or -1.
func (p page) lineOf(i int) int {
	if i < 0 || i >= len(p.spans) {
		return -1
	}
	return p.spans[i].line
}

// render draws the page with the main palette and the selection in the
// spotlight palette. Gaps between two selected words are spotlighted too.
func (p page) render(ws []ttypes.Word, sel ttypes.Selection, main, spot Palette, width int) string {
	mainStyle := main.style()
	spotStyle := spot.style()
	selected := func(i int) bool {
		return !sel.IsEmpty() && sel.Start <= i && i <= sel.End
	}

	var b strings.Builder
	for n, line := range p.lines {
		if n > 0 {
			b.WriteByte('\n')
		}
		col := 0
		for k, i := range line {
			s := p.spans[i]
			if gap := s.start - col; gap > 0 {
				g := strings.Repeat(" ", gap)
				if k > 0 && selected(i) && selected(line[k-1]) {
					b.WriteString(spotStyle.Render(g))
				} else {
					b.WriteString(mainStyle.Render(g))
				}
			}
			if selected(i) {
				b.WriteString(spotStyle.Render(ws[i].Text))
			} else {
				b.WriteString(mainStyle.Render(ws[i].Text))
			}
			col = s.end
		}
		if pad := width - col; pad > 0 {
			b.WriteString(mainStyle.Render(strings.Repeat(" ", pad)))
		}
	}
	return b.String()
}

// indent prefixes every line of s with n spaces.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	pad := strings.Repeat(" ", n)
	for i := range l {
		l[i] = pad + l[i]
	}
	return strings.Join(l, "\n")
}

// fillLines pads every line to width so backgrounds span the screen.
func fillLines(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		n := max(width-runewidth.StringWidth(lines[i]), 0)
		lines[i] += strings.Repeat(" ", n)
	}
	return strings.Join(lines, "\n")
}
