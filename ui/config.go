package ui

// Config contains TUI-specific configuration. Presentation tweaks are read
// from the environment; the rest is filled in by the CLI.
type Config struct {
	// Colour scheme indices into Palettes.
	MainColors      int `env:"SPOTLIGHT_MAIN_COLORS"      envDefault:"0"`
	SpotlightColors int `env:"SPOTLIGHT_SPOTLIGHT_COLORS" envDefault:"9"`

	// Spacing adds blank cells between words, like the original large-print
	// view. 0 keeps single spaces.
	Spacing int `env:"SPOTLIGHT_SPACING"`

	AltScreen   bool `env:"SPOTLIGHT_ALT_SCREEN"   envDefault:"true"`
	EnableMouse bool `env:"SPOTLIGHT_ENABLE_MOUSE"`

	// Source names the loaded document in the status bar.
	Source string

	// Watch reloads the document when its file changes.
	Watch bool
}
