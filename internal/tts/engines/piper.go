package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// maxPiperOutput caps raw PCM read from one invocation.
const maxPiperOutput = 10 * 1024 * 1024

// PiperEngine renders words offline with the piper binary. Each language
// needs its own voice model.
type PiperEngine struct {
	command     string
	models      map[ttypes.Language]string
	sampleRate  int
	lengthScale float64
	timeout     time.Duration
}

// PiperConfig holds configuration for the Piper engine.
type PiperConfig struct {
	// Command is the piper binary. Defaults to "piper".
	Command string

	// Models maps a language to an .onnx voice model. At least one is
	// required.
	Models map[ttypes.Language]string

	// SampleRate of the models' raw output. Defaults to 22050.
	SampleRate int

	// LengthScale stretches speech; above 1 is slower. Defaults to 1.
	LengthScale float64

	// Timeout bounds a single invocation. Defaults to 10s.
	Timeout time.Duration
}

// NewPiperEngine creates a Piper engine and checks that the model files exist.
func NewPiperEngine(config PiperConfig) (*PiperEngine, error) {
	models := make(map[ttypes.Language]string)
	for lang, path := range config.Models {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("model file for %s not found: %w", lang, err)
		}
		models[lang] = path
	}
	if len(models) == 0 {
		return nil, errors.New("piper: at least one model path is required")
	}

	if config.Command == "" {
		config.Command = "piper"
	}
	if config.SampleRate <= 0 {
		config.SampleRate = 22050
	}
	if config.LengthScale <= 0 {
		config.LengthScale = 1.0
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &PiperEngine{
		command:     config.Command,
		models:      models,
		sampleRate:  config.SampleRate,
		lengthScale: config.LengthScale,
		timeout:     config.Timeout,
	}, nil
}

// Name identifies the engine in cache keys.
func (e *PiperEngine) Name() string {
	return fmt.Sprintf("piper-%.2f", e.lengthScale)
}

// Generate pipes text to piper and returns its raw 16-bit mono PCM.
func (e *PiperEngine) Generate(ctx context.Context, text string, lang ttypes.Language) (*ttypes.Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, tts.ErrEmptyText
	}

	model, ok := e.models[lang]
	if !ok {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineUnavailable,
			fmt.Sprintf("no piper model configured for %s", lang), nil)
	}

	args := []string{
		"--model", model,
		"--config", strings.TrimSuffix(model, filepath.Ext(model)) + ".onnx.json",
		"--output-raw",
		"--length-scale", fmt.Sprintf("%.2f", e.lengthScale),
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = 100 * time.Millisecond

	// Pre-configured stdin: piper reads the text before we could write to it.
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, tts.NewTTSError(tts.ErrorCodeEngineTimeout,
					fmt.Sprintf("piper timed out after %s", e.timeout), ctxErr)
			}
			return nil, ctxErr
		}
		return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure,
			fmt.Sprintf("piper failed: %s", strings.TrimSpace(stderr.String())), err)
	}

	audio := stdout.Bytes()
	if len(audio) == 0 {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure, "piper produced no audio output", nil)
	}
	if len(audio) > maxPiperOutput {
		return nil, fmt.Errorf("piper output too large: %d bytes (max %d)", len(audio), maxPiperOutput)
	}

	return &ttypes.Audio{
		Data:       audio,
		Format:     ttypes.FormatPCM,
		SampleRate: e.sampleRate,
		Channels:   1,
	}, nil
}

// Validate checks that the piper binary is on PATH.
func (e *PiperEngine) Validate() error {
	if _, err := exec.LookPath(e.command); err != nil {
		return fmt.Errorf("%w: %s not found in PATH: %v", tts.ErrEngineNotAvailable, e.command, err)
	}
	return nil
}

var _ ttypes.ClipGenerator = (*PiperEngine)(nil)
