package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# speech engine: gtts, piper, yandex or mock
engine: "gtts"
# engine to use when the main one keeps failing (empty disables)
fallback: ""
# consecutive failures before switching to the fallback for good
fallback_after: 3
# voice language: auto, en or bg
language: "auto"
# wrap plain text at width (0 uses the terminal width)
width: 0
# reload the file when it changes
watch: false
# clean up OCR artifacts in plain text
clean: false
# start reading once loaded
read_on_load: false
# click a word to hear it
mouse: true

sentence:
  # words such as "Dr." do not end a sentence
  abbreviations: false

clip:
  # longest wait for a single clip before reading continues in the background
  wait: "1s"
  # concurrent clip generations
  workers: 4
  # words generated ahead of every new selection
  prefetch: 8
  # generate every word after a document loads
  prefetch_all: true

cache:
  # clip directory (defaults to the user cache dir)
  dir: ""
  memory_mb: 32
  disk_mb: 512
  # zstd level 1-22, 0 stores clips uncompressed
  compression_level: 3
  ttl: "720h"

audio:
  sample_rate: 24000
  channels: 2
  volume: 1.0

gtts:
  slow: false
  timeout: "30s"
  requests_per_minute: 120

piper:
  models:
    # en: "~/.local/share/piper/en_US-lessac-medium.onnx"
    # bg: "~/.local/share/piper/bg_BG-dimitar-medium.onnx"
  sample_rate: 22050
  length_scale: 1.0

# credentials are read from YANDEX_API_KEY and YANDEX_FOLDER_ID or a .env file
yandex:
  voice: ""
  speed: 1.0

ocr:
  languages: ["bul", "eng"]
  # tessdata directory (defaults to the tesseract install)
  data_path: ""
  # drop recognized words below this confidence (0-100)
  min_confidence: 0
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the spotlight config file",
	Long:    paragraph(fmt.Sprintf("\n%s the spotlight config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("spotlight config\nspotlight config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Spotlight", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
