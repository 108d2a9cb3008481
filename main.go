// Package main provides the entry point for the spotlight reader.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/spotlight/internal/document"
	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/tts/engines"
	"github.com/dgnsrekt/spotlight/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile    string
	engine        string
	language      string
	width         uint
	watch         bool
	clean         bool
	readOnLoad    bool
	mouse         bool
	fromClipboard bool

	rootCmd = &cobra.Command{
		Use:   "spotlight [SOURCE]",
		Short: "Read text aloud, word by word, in the terminal",
		Long: paragraph(
			fmt.Sprintf("\nWalk a page word by word or sentence by sentence while %s.", keyword("a voice reads along")),
		),
		Example: paragraph("spotlight notes.md\nspotlight scan.png --language bg\nspotlight layout.yml --watch\nxclip -o | spotlight -\nspotlight --clipboard --read"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	engine = strings.ToLower(viper.GetString("engine"))
	language = viper.GetString("language")
	width = viper.GetUint("width")
	watch = viper.GetBool("watch")
	clean = viper.GetBool("clean")
	readOnLoad = viper.GetBool("read_on_load")
	mouse = viper.GetBool("mouse")

	if !validEngine(engine) {
		return fmt.Errorf("%w: %q (want gtts, piper, yandex or mock)", tts.ErrInvalidEngine, engine)
	}
	if fb := strings.ToLower(viper.GetString("fallback")); fb != "" && !validEngine(fb) {
		return fmt.Errorf("%w: fallback %q", tts.ErrInvalidEngine, fb)
	}
	if _, err := tts.ParseLanguage(language); err != nil {
		return err //nolint:wrapcheck
	}
	if w := viper.GetInt("clip.workers"); w < 1 || w > 32 {
		return fmt.Errorf("clip.workers must be between 1 and 32, got %d", w)
	}
	if v := viper.GetFloat64("audio.volume"); v < 0 || v > 1 {
		return fmt.Errorf("audio.volume must be between 0 and 1, got %.2f", v)
	}
	if l := viper.GetInt("cache.compression_level"); l < 0 || l > 22 {
		return fmt.Errorf("cache.compression_level must be between 0 and 22, got %d", l)
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") { //nolint:nestif
		isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = document.DefaultWidth
		}
	}
	return nil
}

func validEngine(name string) bool {
	switch name {
	case engines.EngineGTTS, engines.EnginePiper, engines.EngineYandex, engines.EngineMock:
		return true
	}
	return false
}

func execute(cmd *cobra.Command, args []string) error {
	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	var stdin io.Reader
	if len(args) > 0 && args[0] == "-" {
		stdin = os.Stdin
	} else if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes && len(args) == 0 && !fromClipboard {
		stdin = os.Stdin
	}

	src, err := sourceFromArgs(args, fromClipboard, stdin)
	if err != nil {
		return err
	}
	return runReader(cmd.Context(), src)
}

func runReader(ctx context.Context, src *source) error {
	// Read environment to get presentation settings
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	cfg.Source = src.name
	cfg.Watch = watch && src.canReload()
	cfg.EnableMouse = cfg.EnableMouse || mouse

	r, err := newReader(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Error("shutting down", "error", err)
		}
	}()

	if err := r.Load(ctx, src); err != nil {
		return fmt.Errorf("unable to load %s: %w", src.name, err)
	}

	deps := ui.Deps{
		Router:     r.router,
		Selection:  r.selection,
		Reader:     r.controller,
		Player:     r.chain,
		Clips:      r.clips,
		Events:     r.chain.Events(),
		Prefetch:   r.prefetch,
		Reload:     r.reload(src),
		ReadOnLoad: readOnLoad,
	}
	if r.fallback != nil {
		deps.Engine = r.fallback
	}
	if cfg.Watch {
		w, err := document.NewWatcher(src.path)
		if err != nil {
			return fmt.Errorf("unable to watch %s: %w", src.name, err)
		}
		defer w.Close() //nolint:errcheck
		deps.Watcher = w
	}

	// Run Bubble Tea program
	if _, err := ui.NewProgram(ctx, cfg, deps).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	_ = closer()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&engine, "engine", "e", engines.EngineGTTS, "speech engine (gtts, piper, yandex or mock)")
	rootCmd.Flags().StringVarP(&language, "language", "l", tts.LanguageAuto, "voice language (auto, en or bg)")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "wrap plain text at width")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "reload the file when it changes")
	rootCmd.Flags().BoolVar(&clean, "clean", false, "clean up OCR artifacts in plain text")
	rootCmd.Flags().BoolVarP(&readOnLoad, "read", "r", false, "start reading once loaded")
	rootCmd.Flags().BoolVarP(&fromClipboard, "clipboard", "c", false, "read the clipboard")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", true, "click a word to hear it")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("language", rootCmd.Flags().Lookup("language"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("watch", rootCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("clean", rootCmd.Flags().Lookup("clean"))
	_ = viper.BindPFlag("read_on_load", rootCmd.Flags().Lookup("read"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	setDefaults()

	rootCmd.AddCommand(configCmd, cacheCmd, manCmd)
}

func setDefaults() {
	viper.SetDefault("engine", engines.EngineGTTS)
	viper.SetDefault("language", tts.LanguageAuto)
	viper.SetDefault("width", 0)
	viper.SetDefault("mouse", true)
	viper.SetDefault("fallback", "")
	viper.SetDefault("fallback_after", engines.DefaultMaxFailures)

	viper.SetDefault("sentence.abbreviations", false)

	viper.SetDefault("clip.wait", "1s")
	viper.SetDefault("clip.workers", 4)
	viper.SetDefault("clip.prefetch", 8)
	viper.SetDefault("clip.prefetch_all", true)

	viper.SetDefault("cache.dir", "")
	viper.SetDefault("cache.memory_mb", 32)
	viper.SetDefault("cache.disk_mb", 512)
	viper.SetDefault("cache.compression_level", 3)
	viper.SetDefault("cache.ttl", "720h")

	viper.SetDefault("audio.sample_rate", 24000)
	viper.SetDefault("audio.channels", 2)
	viper.SetDefault("audio.volume", 1.0)

	viper.SetDefault("gtts.slow", false)
	viper.SetDefault("gtts.timeout", "30s")
	viper.SetDefault("gtts.requests_per_minute", 120)

	viper.SetDefault("piper.sample_rate", 22050)
	viper.SetDefault("piper.length_scale", 1.0)

	viper.SetDefault("yandex.speed", 1.0)

	viper.SetDefault("ocr.languages", []string{"bul", "eng"})
	viper.SetDefault("ocr.data_path", "")
	viper.SetDefault("ocr.min_confidence", 0)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "spotlight")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "spotlight")}, dirs...)
	}

	if c := os.Getenv("SPOTLIGHT_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("spotlight")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("spotlight")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "spotlight.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
