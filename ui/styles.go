package ui

import "github.com/charmbracelet/lipgloss"

// Palette is a background and foreground colour pair.
type Palette struct {
	Name       string
	Background lipgloss.Color
	Foreground lipgloss.Color
}

// Palettes are the high-contrast schemes offered for low-vision reading.
// The main text and the spotlighted selection each use one of them.
var Palettes = []Palette{
	{"black on white", "#FFFFFF", "#000000"},
	{"white on black", "#000000", "#FFFFFF"},
	{"green on black", "#000000", "#00FF00"},
	{"yellow on black", "#000000", "#FFFF00"},
	{"yellow on blue", "#0000FF", "#FFFF00"},
	{"white on blue", "#0000FF", "#FFFFFF"},
	{"black on rose", "#E79CA5", "#000000"},
	{"black on amber", "#DEAD84", "#000000"},
	{"black on sky blue", "#A6CAF0", "#000000"},
	{"red on yellow", "#FFFF00", "#FF0000"},
	{"blue on yellow", "#FFFF00", "#0000FF"},
	{"black on yellow", "#FFFF00", "#000000"},
	{"violet on black", "#000000", "#AC3FFF"},
	{"black on violet", "#AC3FFF", "#000000"},
	{"blue on white", "#FFFFFF", "#0000FF"},
	{"black on green", "#00FF00", "#000000"},
	{"red on white", "#FFFFFF", "#FF0000"},
	{"white on red", "#FF0000", "#FFFFFF"},
	{"white on green", "#00FF00", "#FFFFFF"},
	{"green on white", "#FFFFFF", "#00FF00"},
	{"black on blue", "#0000FF", "#000000"},
	{"blue on black", "#000000", "#0000FF"},
	{"black on red", "#FF0000", "#000000"},
	{"red on black", "#000000", "#FF0000"},
	{"red on violet", "#AC3FFF", "#FF0000"},
	{"black on orange", "#FF9823", "#000000"},
	{"orange on black", "#000000", "#FF9823"},
	{"green on yellow", "#FFFF00", "#00FF00"},
	{"yellow on green", "#00FF00", "#FFFF00"},
	{"orange on white", "#FFFFFF", "#FF9823"},
	{"white on orange", "#FF9823", "#FFFFFF"},
}

// paletteAt wraps i into the palette list.
func paletteAt(i int) Palette {
	n := len(Palettes)
	return Palettes[((i%n)+n)%n]
}

func (p Palette) style() lipgloss.Style {
	return lipgloss.NewStyle().Background(p.Background).Foreground(p.Foreground)
}

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	fuchsia   = lipgloss.Color("#EE6FF8")
	cream     = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Bold(true).
			Render

	statusBarCountStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
				Background(statusBarBg).
				Render

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(red).
				Render

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(lipgloss.AdaptiveColor{Light: "#f2f2f2", Dark: "#1B1B1B"}).
			Render

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#8E8E8E", Dark: "#747373"}).
			Background(statusBarBg)
)
