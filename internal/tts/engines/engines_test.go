package engines

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// fakeCommand writes an executable shell script and returns its path.
func fakeCommand(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write fake command: %v", err)
	}
	return path
}

func TestGTTSEngine_Generate(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	cmd := fakeCommand(t, "gtts-cli", `echo "$@" > `+argsFile+`
printf 'ID3mp3data'`)

	engine := NewGTTSEngine(GTTSConfig{Command: cmd, Slow: true})
	audio, err := engine.Generate(context.Background(), " здравей ", ttypes.LanguageBulgarian)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if audio.Format != ttypes.FormatMP3 {
		t.Errorf("Format = %v, want mp3", audio.Format)
	}
	if string(audio.Data) != "ID3mp3data" {
		t.Errorf("Data = %q", audio.Data)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(string(args))
	if got != "здравей -l bg --slow -o -" {
		t.Errorf("gtts-cli args = %q", got)
	}
	if engine.Name() != "gtts-slow" {
		t.Errorf("Name() = %q", engine.Name())
	}
}

func TestGTTSEngine_InputValidation(t *testing.T) {
	engine := NewGTTSEngine(GTTSConfig{Command: "does-not-exist"})

	if _, err := engine.Generate(context.Background(), "  ", ttypes.LanguageEnglish); !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}

	long := strings.Repeat("a", maxTextSize+1)
	if _, err := engine.Generate(context.Background(), long, ttypes.LanguageEnglish); !errors.Is(err, tts.ErrTextTooLong) {
		t.Errorf("expected ErrTextTooLong, got %v", err)
	}

	if err := engine.Validate(); !errors.Is(err, tts.ErrEngineNotAvailable) {
		t.Errorf("expected ErrEngineNotAvailable, got %v", err)
	}
}

func TestGTTSEngine_Failures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		timeout  time.Duration
		wantCode tts.ErrorCode
	}{
		{"non-zero exit", "echo boom >&2; exit 1", 0, tts.ErrorCodeEngineFailure},
		{"no output", "exit 0", 0, tts.ErrorCodeEngineFailure},
		{"timeout", "exec sleep 5", 100 * time.Millisecond, tts.ErrorCodeEngineTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewGTTSEngine(GTTSConfig{
				Command: fakeCommand(t, "gtts-cli", tt.body),
				Timeout: tt.timeout,
			})

			_, err := engine.Generate(context.Background(), "word", ttypes.LanguageEnglish)
			var te *tts.TTSError
			if !errors.As(err, &te) {
				t.Fatalf("expected TTSError, got %v", err)
			}
			if te.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", te.Code, tt.wantCode)
			}
		})
	}
}

func TestGTTSEngine_ContextCancellation(t *testing.T) {
	engine := NewGTTSEngine(GTTSConfig{Command: fakeCommand(t, "gtts-cli", "exec sleep 5")})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := engine.Generate(ctx, "word", ttypes.LanguageEnglish)
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("cancellation took too long: %v", time.Since(start))
	}
}

func TestPiperEngine_Generate(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "en.onnx")
	if err := os.WriteFile(model, []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The fake echoes stdin back as "PCM".
	cmd := fakeCommand(t, "piper", "cat")
	engine, err := NewPiperEngine(PiperConfig{
		Command: cmd,
		Models:  map[ttypes.Language]string{ttypes.LanguageEnglish: model},
	})
	if err != nil {
		t.Fatalf("NewPiperEngine failed: %v", err)
	}

	audio, err := engine.Generate(context.Background(), "hello", ttypes.LanguageEnglish)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if audio.Format != ttypes.FormatPCM || audio.SampleRate != 22050 || audio.Channels != 1 {
		t.Errorf("unexpected audio header: %+v", audio)
	}
	if string(audio.Data) != "hello" {
		t.Errorf("Data = %q", audio.Data)
	}

	_, err = engine.Generate(context.Background(), "здравей", ttypes.LanguageBulgarian)
	var te *tts.TTSError
	if !errors.As(err, &te) || te.Code != tts.ErrorCodeEngineUnavailable {
		t.Errorf("expected ENGINE_UNAVAILABLE for a missing model, got %v", err)
	}
}

func TestPiperEngine_RequiresModel(t *testing.T) {
	if _, err := NewPiperEngine(PiperConfig{}); err == nil {
		t.Error("expected error without models")
	}
	_, err := NewPiperEngine(PiperConfig{
		Models: map[ttypes.Language]string{ttypes.LanguageEnglish: "/does/not/exist.onnx"},
	})
	if err == nil {
		t.Error("expected error for a missing model file")
	}
}

func TestLoadYandexConfig(t *testing.T) {
	t.Setenv("YANDEX_API_KEY", "")
	t.Setenv("YANDEX_FOLDER_ID", "")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("YANDEX_API_KEY=secret\nYANDEX_FOLDER_ID=folder\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	// godotenv does not override variables that are already set, so clear
	// them first.
	os.Unsetenv("YANDEX_API_KEY")
	os.Unsetenv("YANDEX_FOLDER_ID")

	cfg, err := LoadYandexConfig(filepath.Join(dir, "missing.env"), envFile)
	if err != nil {
		t.Fatalf("LoadYandexConfig failed: %v", err)
	}
	if cfg.APIKey != "secret" || cfg.FolderID != "folder" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadYandexConfig_MissingKey(t *testing.T) {
	t.Setenv("YANDEX_API_KEY", "")
	if _, err := LoadYandexConfig(); !errors.Is(err, tts.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestYandexEngine_BuildRequest(t *testing.T) {
	engine, err := NewYandexEngine(YandexConfig{APIKey: "key"})
	if err != nil {
		t.Fatalf("NewYandexEngine failed: %v", err)
	}
	defer engine.Close()

	req := engine.buildRequest("hello", ttypes.LanguageEnglish)
	if req.GetText() != "hello" || req.GetModel() != "general" {
		t.Errorf("unexpected request: %v", req)
	}
	hints := req.GetHints()
	if len(hints) != 2 || hints[0].GetVoice() != "john" || hints[1].GetSpeed() != 1.0 {
		t.Errorf("unexpected hints: %v", hints)
	}

	if v := engine.voiceFor(ttypes.LanguageBulgarian); v != "marina" {
		t.Errorf("voiceFor(bg) = %q", v)
	}
	if engine.Name() != "yandex-auto-1.00" {
		t.Errorf("Name() = %q", engine.Name())
	}

	if _, err := NewYandexEngine(YandexConfig{}); !errors.Is(err, tts.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestMockEngine(t *testing.T) {
	e := NewMockEngine()
	e.SetTextDuration("long", time.Second)
	boom := errors.New("boom")
	e.SetFailure("bad", boom)

	audio, err := e.Generate(context.Background(), "long", ttypes.LanguageEnglish)
	if err != nil {
		t.Fatal(err)
	}
	if len(audio.Data) != MockSampleRate*2 {
		t.Errorf("len(Data) = %d, want one second of mono PCM", len(audio.Data))
	}

	if _, err := e.Generate(context.Background(), "bad", ttypes.LanguageEnglish); !errors.Is(err, boom) {
		t.Errorf("expected configured failure, got %v", err)
	}

	e.SetTextDelay("slow", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Generate(ctx, "slow", ttypes.LanguageEnglish); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if e.CallCount("long") != 1 || len(e.Calls()) != 3 {
		t.Errorf("unexpected call log: %v", e.Calls())
	}
}

func TestNew(t *testing.T) {
	gen, closeFn, err := New(Config{Engine: EngineMock})
	if err != nil {
		t.Fatalf("New(mock) failed: %v", err)
	}
	defer closeFn()
	if gen.Name() != "mock" {
		t.Errorf("Name() = %q", gen.Name())
	}

	if _, _, err := New(Config{Engine: "espeak"}); !errors.Is(err, tts.ErrInvalidEngine) {
		t.Errorf("expected ErrInvalidEngine, got %v", err)
	}
}

func TestGuidance(t *testing.T) {
	tests := []struct {
		engine string
		err    error
		want   string
	}{
		{EngineGTTS, tts.ErrEngineNotAvailable, "pip install gtts"},
		{EngineGTTS, errors.New("network"), "internet connection"},
		{EnginePiper, tts.ErrEngineNotAvailable, "releases"},
		{EnginePiper, errors.New("no model"), "piper.models.en"},
		{EngineYandex, tts.ErrMissingCredentials, "YANDEX_API_KEY"},
		{"espeak", tts.ErrInvalidEngine, "Supported engines"},
	}
	for _, tt := range tests {
		if got := Guidance(tt.engine, tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("Guidance(%q, %v) does not mention %q", tt.engine, tt.err, tt.want)
		}
	}
}

func TestFallbackEngine(t *testing.T) {
	errBoom := errors.New("boom")
	primary := NewMockEngine()
	fallback := NewMockEngine()
	primary.SetFailure("a", errBoom)

	f := NewFallbackEngine(primary, fallback, 2)
	ctx := context.Background()
	if f.Name() != "mock+mock" {
		t.Errorf("Name() = %q", f.Name())
	}

	if _, err := f.Generate(ctx, "a", ttypes.LanguageEnglish); err != nil {
		t.Fatalf("fallback should cover a primary failure: %v", err)
	}
	if fallback.CallCount("a") != 1 || f.UsingFallback() {
		t.Errorf("after one failure: fallback calls %d, switched %v", fallback.CallCount("a"), f.UsingFallback())
	}

	// A success resets the failure count.
	if _, err := f.Generate(ctx, "b", ttypes.LanguageEnglish); err != nil {
		t.Fatal(err)
	}
	if fallback.CallCount("b") != 0 {
		t.Error("primary success should not reach the fallback")
	}

	for range 2 {
		if _, err := f.Generate(ctx, "a", ttypes.LanguageEnglish); err != nil {
			t.Fatal(err)
		}
	}
	if !f.UsingFallback() {
		t.Fatal("two failures in a row should switch to the fallback")
	}

	if _, err := f.Generate(ctx, "b", ttypes.LanguageEnglish); err != nil {
		t.Fatal(err)
	}
	if primary.CallCount("b") != 1 || fallback.CallCount("b") != 1 {
		t.Errorf("after switching: primary %d, fallback %d calls for b", primary.CallCount("b"), fallback.CallCount("b"))
	}

	f.Reset()
	if f.UsingFallback() {
		t.Error("Reset should go back to the primary")
	}

	fallback.SetFailure("a", errBoom)
	if _, err := f.Generate(ctx, "a", ttypes.LanguageEnglish); !errors.Is(err, errBoom) {
		t.Errorf("expected both engines to fail with boom, got %v", err)
	}
}

func TestFallbackEngine_Canceled(t *testing.T) {
	primary := NewMockEngine()
	fallback := NewMockEngine()
	primary.SetFailure("a", context.Canceled)

	f := NewFallbackEngine(primary, fallback, 1)
	if _, err := f.Generate(context.Background(), "a", ttypes.LanguageEnglish); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if fallback.CallCount("a") != 0 || f.UsingFallback() {
		t.Error("cancellation is not an engine failure")
	}
}

// flakyEngine fails the first n calls with err.
type flakyEngine struct {
	*MockEngine
	n   int
	err error
}

func (e *flakyEngine) Generate(ctx context.Context, text string, lang ttypes.Language) (*ttypes.Audio, error) {
	if e.n > 0 {
		e.n--
		return nil, e.err
	}
	return e.MockEngine.Generate(ctx, text, lang)
}

func TestFallbackEngine_ErrorClasses(t *testing.T) {
	timeout := tts.NewTTSError(tts.ErrorCodeEngineTimeout, "gtts-cli timed out", nil)
	missing := tts.NewTTSError(tts.ErrorCodeEngineUnavailable, "piper model missing", nil)
	ctx := context.Background()

	t.Run("retryable error gets a second primary attempt", func(t *testing.T) {
		primary := &flakyEngine{MockEngine: NewMockEngine(), n: 1, err: timeout}
		fallback := NewMockEngine()
		f := NewFallbackEngine(primary, fallback, 3)

		if _, err := f.Generate(ctx, "a", ttypes.LanguageEnglish); err != nil {
			t.Fatal(err)
		}
		if primary.CallCount("a") != 1 || fallback.CallCount("a") != 0 {
			t.Errorf("primary %d, fallback %d calls", primary.CallCount("a"), fallback.CallCount("a"))
		}
	})

	t.Run("repeated timeouts fall back", func(t *testing.T) {
		primary := &flakyEngine{MockEngine: NewMockEngine(), n: 2, err: timeout}
		fallback := NewMockEngine()
		f := NewFallbackEngine(primary, fallback, 3)

		if _, err := f.Generate(ctx, "a", ttypes.LanguageEnglish); err != nil {
			t.Fatal(err)
		}
		if fallback.CallCount("a") != 1 || f.UsingFallback() {
			t.Errorf("fallback calls %d, switched %v", fallback.CallCount("a"), f.UsingFallback())
		}
	})

	t.Run("fatal error switches at once", func(t *testing.T) {
		primary := NewMockEngine()
		primary.SetFailure("a", missing)
		fallback := NewMockEngine()
		f := NewFallbackEngine(primary, fallback, 3)

		if _, err := f.Generate(ctx, "a", ttypes.LanguageEnglish); err != nil {
			t.Fatal(err)
		}
		if !f.UsingFallback() {
			t.Error("a fatal primary error should switch to the fallback")
		}
		if _, err := f.Generate(ctx, "b", ttypes.LanguageEnglish); err != nil {
			t.Fatal(err)
		}
		if primary.CallCount("b") != 0 {
			t.Error("primary was tried after switching")
		}
	})
}

func TestNew_Fallback(t *testing.T) {
	gen, closeFn, err := New(Config{Engine: EngineMock, Fallback: EngineMock})
	if err != nil {
		t.Fatal(err)
	}
	_ = closeFn()
	if gen.Name() != "mock" {
		t.Errorf("a fallback equal to the engine should be ignored, got %q", gen.Name())
	}

	if _, _, err := New(Config{Engine: EngineMock, Fallback: "espeak"}); !errors.Is(err, tts.ErrInvalidEngine) {
		t.Errorf("expected ErrInvalidEngine, got %v", err)
	}
}
