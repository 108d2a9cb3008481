package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/spotlight/internal/audio"
	"github.com/dgnsrekt/spotlight/internal/cache"
	"github.com/dgnsrekt/spotlight/internal/document"
	"github.com/dgnsrekt/spotlight/internal/playback"
	"github.com/dgnsrekt/spotlight/internal/queue"
	"github.com/dgnsrekt/spotlight/internal/router"
	"github.com/dgnsrekt/spotlight/internal/selection"
	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/tts/engines"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
	"github.com/dgnsrekt/spotlight/tts/sentence"
)

// reader holds the wired components of one session.
type reader struct {
	controller *tts.Controller
	selection  *selection.Model
	router     *router.Router
	chain      *playback.Chain
	clips      *cache.ClipCache
	prefetch   *queue.Prefetcher
	fallback   *engines.FallbackEngine // nil without a fallback engine
	loader     *document.Loader

	closers []func() error
}

// newReader builds every component from the config. Close releases them in
// reverse order.
func newReader(ctx context.Context) (_ *reader, err error) {
	r := &reader{}
	defer func() {
		if err != nil {
			_ = r.Close()
		}
	}()

	engineCfg, err := engineConfig()
	if err != nil {
		return nil, err
	}
	gen, closeGen, err := engines.New(engineCfg)
	if err != nil {
		log.Error("starting engine", "engine", engineCfg.Engine, "error", err)
		return nil, fmt.Errorf("unable to start %s engine: %w\n\n%s",
			engineCfg.Engine, err, engines.Guidance(engineCfg.Engine, err))
	}
	r.closers = append(r.closers, closeGen)
	r.fallback, _ = gen.(*engines.FallbackEngine)

	format := audio.Format{
		SampleRate: viper.GetInt("audio.sample_rate"),
		Channels:   viper.GetInt("audio.channels"),
	}
	playerCfg := audio.DefaultPlayerConfig()
	playerCfg.Format = format
	playerCfg.Volume = viper.GetFloat64("audio.volume")
	player, err := audio.NewPlayer(playerCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio device: %w", err)
	}
	r.closers = append(r.closers, player.Close)

	store, err := openStore()
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, store.Close)

	workers := viper.GetInt("clip.workers")
	r.clips = cache.NewClipCache(gen, cache.ClipOptions{
		Wait:    viper.GetDuration("clip.wait"),
		Workers: workers,
		Store:   store,
		Decode:  audio.NewDecoder(format).Decode,
	})
	r.closers = append(r.closers, func() error {
		r.clips.Close()
		return nil
	})

	var locatorOpts []sentence.Option
	if viper.GetBool("sentence.abbreviations") {
		locatorOpts = append(locatorOpts, sentence.WithAbbreviations())
	}
	r.selection = selection.New(sentence.NewLocator(locatorOpts...))
	r.chain = playback.NewChain(r.clips, r.selection, player)

	r.prefetch = queue.NewPrefetcher(r.clips, workers)
	r.prefetch.Start(ctx)
	r.closers = append(r.closers, r.prefetch.Close)

	r.router = router.New(r.selection, r.chain,
		router.WithLookahead(r.prefetch, viper.GetInt("clip.prefetch")))

	r.controller, err = tts.NewController(tts.Config{
		Language:    language,
		PrefetchAll: viper.GetBool("clip.prefetch_all"),
	}, r.selection, r.clips, r.chain, r.prefetch)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	r.closers = append(r.closers, func() error {
		r.controller.Close()
		return nil
	})

	ocrDir, err := expandPath(viper.GetString("ocr.data_path"))
	if err != nil {
		return nil, err
	}
	r.loader = &document.Loader{
		OCR: document.NewOCR(document.OCRConfig{
			Languages:     viper.GetStringSlice("ocr.languages"),
			DataPath:      ocrDir,
			MinConfidence: viper.GetFloat64("ocr.min_confidence"),
		}),
		Width: int(width), //nolint:gosec
		Clean: clean,
	}

	log.Debug("reader ready", "engine", engineCfg.Engine, "workers", workers, "format", format)
	return r, nil
}

// Load reads src and hands it to the controller.
func (r *reader) Load(ctx context.Context, src *source) error {
	doc, err := src.load(ctx, r.loader)
	if err != nil {
		return err
	}
	return r.controller.Load(doc) //nolint:wrapcheck
}

// reload reads src again without loading it. The TUI loads the result.
func (r *reader) reload(src *source) func(context.Context) (*ttypes.Document, error) {
	if !src.canReload() {
		return nil
	}
	return func(ctx context.Context) (*ttypes.Document, error) {
		return src.load(ctx, r.loader)
	}
}

// Close releases every component.
func (r *reader) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// engineConfig maps the config file onto the engine factory.
func engineConfig() (engines.Config, error) {
	models := map[ttypes.Language]string{}
	for _, lang := range []ttypes.Language{ttypes.LanguageEnglish, ttypes.LanguageBulgarian} {
		m := viper.GetString("piper.models." + string(lang))
		if m == "" {
			continue
		}
		p, err := expandPath(m)
		if err != nil {
			return engines.Config{}, err
		}
		models[lang] = p
	}

	return engines.Config{
		Engine: engine,
		GTTS: engines.GTTSConfig{
			Slow:              viper.GetBool("gtts.slow"),
			Timeout:           viper.GetDuration("gtts.timeout"),
			RequestsPerMinute: viper.GetInt("gtts.requests_per_minute"),
		},
		Piper: engines.PiperConfig{
			Models:      models,
			SampleRate:  viper.GetInt("piper.sample_rate"),
			LengthScale: viper.GetFloat64("piper.length_scale"),
		},
		Yandex: engines.YandexConfig{
			Voice: viper.GetString("yandex.voice"),
			Speed: viper.GetFloat64("yandex.speed"),
		},
		EnvFiles:    []string{".env"},
		Fallback:    strings.ToLower(viper.GetString("fallback")),
		MaxFailures: viper.GetInt("fallback_after"),
	}, nil
}
