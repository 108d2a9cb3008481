package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

const (
	// maxTextSize is the longest text gtts-cli accepts in one request.
	maxTextSize = 5000

	// maxMP3Size guards against runaway subprocess output.
	maxMP3Size = 20 * 1024 * 1024
)

// GTTSEngine renders words with gtts-cli (Google Translate TTS). It returns
// the MP3 stream unchanged; decoding happens when the clip is materialized.
type GTTSEngine struct {
	command string
	slow    bool
	timeout time.Duration

	// Rate limiting to avoid being blocked by Google
	rateLimiter *rate.Limiter
}

// GTTSConfig holds configuration for the gTTS engine.
type GTTSConfig struct {
	// Command is the gtts-cli binary. Defaults to "gtts-cli".
	Command string

	// Slow speech (--slow flag)
	Slow bool

	// Timeout bounds a single invocation. Defaults to 30s.
	Timeout time.Duration

	// RequestsPerMinute defaults to 120. Burst allows that many requests
	// back to back and defaults to 4.
	RequestsPerMinute int
	Burst             int
}

// NewGTTSEngine creates a gTTS engine. It does not check that the binary
// exists; call Validate for that.
func NewGTTSEngine(config GTTSConfig) *GTTSEngine {
	if config.Command == "" {
		config.Command = "gtts-cli"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 120
	}
	if config.Burst <= 0 {
		config.Burst = 4
	}

	return &GTTSEngine{
		command: config.Command,
		slow:    config.Slow,
		timeout: config.Timeout,
		rateLimiter: rate.NewLimiter(
			rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)),
			config.Burst,
		),
	}
}

// Name identifies the engine in cache keys.
func (e *GTTSEngine) Name() string {
	if e.slow {
		return "gtts-slow"
	}
	return "gtts"
}

// Generate synthesizes text to MP3.
func (e *GTTSEngine) Generate(ctx context.Context, text string, lang ttypes.Language) (*ttypes.Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, tts.ErrEmptyText
	}
	if len(text) > maxTextSize {
		return nil, fmt.Errorf("%w: %d characters (max %d)", tts.ErrTextTooLong, len(text), maxTextSize)
	}

	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	data, err := e.run(ctx, text, lang)
	if err != nil {
		return nil, err
	}
	return &ttypes.Audio{Data: data, Format: ttypes.FormatMP3}, nil
}

func (e *GTTSEngine) run(ctx context.Context, text string, lang ttypes.Language) ([]byte, error) {
	args := []string{text, "-l", lang.String()}
	if e.slow {
		args = append(args, "--slow")
	}
	args = append(args, "-o", "-")

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = 100 * time.Millisecond
	cmd.Stdin = strings.NewReader("")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, tts.NewTTSError(tts.ErrorCodeEngineTimeout,
					fmt.Sprintf("gtts-cli timed out after %s", e.timeout), ctxErr)
			}
			return nil, ctxErr
		}
		return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure,
			fmt.Sprintf("gtts-cli failed: %s", strings.TrimSpace(stderr.String())), err)
	}

	data := stdout.Bytes()
	if len(data) == 0 {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure,
			fmt.Sprintf("gtts-cli produced no output: %s", strings.TrimSpace(stderr.String())), nil)
	}
	if len(data) > maxMP3Size {
		return nil, fmt.Errorf("gtts-cli output too large: %d bytes (max %d)", len(data), maxMP3Size)
	}

	log.Debug("gtts clip generated", "text", text, "lang", lang, "bytes", len(data), "elapsed", time.Since(start))
	return data, nil
}

// Validate checks that the gtts-cli binary is on PATH.
func (e *GTTSEngine) Validate() error {
	if _, err := exec.LookPath(e.command); err != nil {
		return fmt.Errorf("%w: %s not found in PATH (install with: pip install gTTS): %v",
			tts.ErrEngineNotAvailable, e.command, err)
	}
	return nil
}

var _ ttypes.ClipGenerator = (*GTTSEngine)(nil)
