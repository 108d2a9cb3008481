package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// DefaultMaxFailures is how many consecutive primary failures switch a
// FallbackEngine over for good.
const DefaultMaxFailures = 3

// FallbackEngine wraps a primary generator with a secondary one. Each
// primary failure is retried on the fallback; after maxFailures failures in
// a row, or one fatal failure, the primary is no longer tried until Reset.
// A retryable failure such as a timeout gets one more primary attempt first.
type FallbackEngine struct {
	primary     ttypes.ClipGenerator
	fallback    ttypes.ClipGenerator
	maxFailures int

	mu            sync.Mutex
	failures      int
	usingFallback bool
}

// NewFallbackEngine creates a generator that falls back from primary to
// fallback.
func NewFallbackEngine(primary, fallback ttypes.ClipGenerator, maxFailures int) *FallbackEngine {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	return &FallbackEngine{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
	}
}

// Name identifies the pair in cache keys.
func (f *FallbackEngine) Name() string {
	return f.primary.Name() + "+" + f.fallback.Name()
}

// Generate synthesizes text with the active generator.
func (f *FallbackEngine) Generate(ctx context.Context, text string, lang ttypes.Language) (*ttypes.Audio, error) {
	f.mu.Lock()
	switched := f.usingFallback
	f.mu.Unlock()

	if !switched {
		audio, err := f.primary.Generate(ctx, text, lang)
		if err != nil && tts.IsRetryable(err) && ctx.Err() == nil {
			log.Debug("retrying primary engine", "engine", f.primary.Name(), "error", err)
			audio, err = f.primary.Generate(ctx, text, lang)
		}
		if err == nil {
			f.recordSuccess()
			return audio, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		f.recordFailure(err)
	}

	audio, err := f.fallback.Generate(ctx, text, lang)
	if err != nil {
		return nil, fmt.Errorf("fallback engine %s failed: %w", f.fallback.Name(), err)
	}
	return audio, nil
}

func (f *FallbackEngine) recordSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		log.Info("primary engine recovered", "engine", f.primary.Name(), "failures", f.failures)
		f.failures = 0
	}
}

func (f *FallbackEngine) recordFailure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures++
	log.Warn("primary engine failed", "engine", f.primary.Name(),
		"attempt", f.failures, "max", f.maxFailures, "error", err)
	if (f.failures >= f.maxFailures || tts.IsFatal(err)) && !f.usingFallback {
		f.usingFallback = true
		log.Warn("switching to fallback engine", "engine", f.fallback.Name())
	}
}

// UsingFallback reports whether the primary has been given up on.
func (f *FallbackEngine) UsingFallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}

// Reset goes back to trying the primary first. The clip cache calls it for
// every new document.
func (f *FallbackEngine) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.usingFallback && f.failures == 0 {
		return
	}
	f.failures = 0
	f.usingFallback = false
	log.Info("reset to primary engine", "engine", f.primary.Name())
}
