package document

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
	"github.com/dgnsrekt/spotlight/internal/words"
)

// DefaultWidth is the wrap width used when the terminal size is unknown.
const DefaultWidth = 80

// Layout wraps text into lines of at most width cells and gives every word a
// box in cell coordinates: MinX is the starting column, MaxX the column after
// the word and MaxY the row below it. Newlines in text start a new row.
// Words wider than width get a row of their own.
func Layout(source, text string, width int) *ttypes.Document {
	if width <= 0 {
		width = DefaultWidth
	}

	doc := &ttypes.Document{Source: source}
	row := 0
	for _, line := range strings.Split(text, "\n") {
		ws := words.SplitToWords(line)
		if len(ws) == 0 {
			continue
		}

		col := 0
		for _, w := range ws {
			cells := runewidth.StringWidth(w)
			if col > 0 && col+1+cells > width {
				row++
				col = 0
			}
			if col > 0 {
				col++
			}
			doc.Words = append(doc.Words, w)
			doc.Bounds = append(doc.Bounds, ttypes.NewRect(float64(col), float64(col+cells), float64(row+1)))
			col += cells
		}
		row++
	}
	return doc
}
