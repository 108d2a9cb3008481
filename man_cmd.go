package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		page, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return fmt.Errorf("unable to create man page: %w", err)
		}
		page = page.WithSection("Keys", keysManSection)
		_, err = fmt.Fprint(cmd.OutOrStdout(), page.Build(roff.NewDocument()))
		return err //nolint:wrapcheck
	},
}

const keysManSection = `←/→ previous/next word. ↑/↓ word above/below. p/a, n/d previous/next sentence.
r reads from the first word, enter reads the selection, s stops and esc clears it.
A mouse click reads the word under the pointer. l switches between English and Bulgarian voices.
c and C cycle the text and spotlight colours, + and - change word spacing, q quits.`
