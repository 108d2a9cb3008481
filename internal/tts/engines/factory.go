package engines

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// Engine names accepted by New.
const (
	EngineGTTS   = "gtts"
	EnginePiper  = "piper"
	EngineYandex = "yandex"
	EngineMock   = "mock"
)

// Config selects and configures a clip generator.
type Config struct {
	Engine string
	GTTS   GTTSConfig
	Piper  PiperConfig
	Yandex YandexConfig

	// EnvFiles are .env files consulted for cloud credentials when
	// Yandex.APIKey is empty.
	EnvFiles []string

	// Fallback names a second engine used when Engine fails. MaxFailures
	// consecutive failures switch to it for the rest of the run.
	Fallback    string
	MaxFailures int
}

// New builds the generator named by cfg.Engine, wrapped with cfg.Fallback
// when one is set. The returned close function releases engine resources
// and is never nil.
func New(cfg Config) (ttypes.ClipGenerator, func() error, error) {
	primary, closePrimary, err := build(cfg.Engine, cfg)
	if err != nil {
		return nil, closePrimary, err
	}
	if cfg.Fallback == "" || strings.EqualFold(cfg.Fallback, cfg.Engine) {
		return primary, closePrimary, nil
	}

	fallback, closeFallback, err := build(cfg.Fallback, cfg)
	if err != nil {
		_ = closePrimary()
		return nil, closeFallback, fmt.Errorf("fallback engine: %w", err)
	}
	closeBoth := func() error {
		return errors.Join(closePrimary(), closeFallback())
	}
	return NewFallbackEngine(primary, fallback, cfg.MaxFailures), closeBoth, nil
}

func build(name string, cfg Config) (ttypes.ClipGenerator, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(name) {
	case EngineGTTS, "":
		e := NewGTTSEngine(cfg.GTTS)
		if err := e.Validate(); err != nil {
			return nil, noop, err
		}
		return e, noop, nil

	case EnginePiper:
		e, err := NewPiperEngine(cfg.Piper)
		if err != nil {
			return nil, noop, err
		}
		if err := e.Validate(); err != nil {
			return nil, noop, err
		}
		return e, noop, nil

	case EngineYandex:
		yc := cfg.Yandex
		if yc.APIKey == "" {
			creds, err := LoadYandexConfig(cfg.EnvFiles...)
			if err != nil {
				return nil, noop, err
			}
			yc.APIKey, yc.FolderID = creds.APIKey, creds.FolderID
		}
		e, err := NewYandexEngine(yc)
		if err != nil {
			return nil, noop, err
		}
		return e, e.Close, nil

	case EngineMock:
		log.Warn("using the silent mock engine")
		return NewMockEngine(), noop, nil

	default:
		return nil, noop, fmt.Errorf("%w: %q", tts.ErrInvalidEngine, name)
	}
}
