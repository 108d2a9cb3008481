package ui

import "github.com/dgnsrekt/spotlight/internal/ttypes"

// readerKeys maps key names to reader commands. Keys that only change the
// presentation are handled in the model.
var readerKeys = map[string]ttypes.Command{
	"right":     ttypes.CommandNextWord,
	"left":      ttypes.CommandPreviousWord,
	"up":        ttypes.CommandWordAbove,
	"down":      ttypes.CommandWordBelow,
	"n":         ttypes.CommandNextSentence,
	"d":         ttypes.CommandNextSentence,
	"p":         ttypes.CommandPreviousSentence,
	"a":         ttypes.CommandPreviousSentence,
	"r":         ttypes.CommandReadAll,
	"enter":     ttypes.CommandReadSelection,
	" ":         ttypes.CommandReadSelection,
	"space":     ttypes.CommandReadSelection,
	"s":         ttypes.CommandStop,
	"esc":       ttypes.CommandClear,
	"backspace": ttypes.CommandClear,
}

// keyCommand returns the reader command bound to key.
func keyCommand(key string) (ttypes.Command, bool) {
	cmd, ok := readerKeys[key]
	return cmd, ok
}

func (m model) helpView() (s string) {
	col1 := []string{
		"r        read from start",
		"enter    read selection",
		"s        stop",
		"esc      clear selection",
		"l        switch language",
		"c/C      text/spotlight colours",
		"+/-      word spacing",
	}

	s += "\n"
	s += "←/→      previous/next word     " + col1[0] + "\n"
	s += "↑/↓      word above/below       " + col1[1] + "\n"
	s += "p/a      previous sentence      " + col1[2] + "\n"
	s += "n/d      next sentence          " + col1[3] + "\n"
	s += "click    read one word          " + col1[4] + "\n"
	s += "q        quit                   " + col1[5] + "\n"
	s += "?        close help             " + col1[6]

	return helpViewStyle(fillLines(indent(s, 2), m.width))
}
