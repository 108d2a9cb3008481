package engines

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// MockSampleRate is the rate of the silent PCM produced by MockEngine.
const MockSampleRate = 8000

// MockEngine is an offline generator that renders silence. Delays, clip
// lengths and failures can be set per text, which makes it the test double
// for slow or failing synthesis.
type MockEngine struct {
	mu sync.Mutex

	delay     time.Duration
	duration  time.Duration
	delays    map[string]time.Duration
	durations map[string]time.Duration
	failures  map[string]error

	calls []string
}

// NewMockEngine creates a mock that answers immediately with 300ms clips.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		duration:  300 * time.Millisecond,
		delays:    make(map[string]time.Duration),
		durations: make(map[string]time.Duration),
		failures:  make(map[string]error),
	}
}

// Name identifies the engine in cache keys.
func (e *MockEngine) Name() string {
	return "mock"
}

// Generate waits for the configured delay and returns silent PCM of the
// configured length.
func (e *MockEngine) Generate(ctx context.Context, text string, lang ttypes.Language) (*ttypes.Audio, error) {
	e.mu.Lock()
	e.calls = append(e.calls, text)
	delay, ok := e.delays[text]
	if !ok {
		delay = e.delay
	}
	duration, ok := e.durations[text]
	if !ok {
		duration = e.duration
	}
	failure := e.failures[text]
	e.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}

	samples := int(duration.Seconds() * MockSampleRate)
	return &ttypes.Audio{
		Data:       make([]byte, samples*2),
		Format:     ttypes.FormatPCM,
		SampleRate: MockSampleRate,
		Channels:   1,
	}, nil
}

// SetDelay sets the default generation delay.
func (e *MockEngine) SetDelay(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = d
}

// SetDuration sets the default clip length.
func (e *MockEngine) SetDuration(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.duration = d
}

// SetTextDelay overrides the generation delay for one text.
func (e *MockEngine) SetTextDelay(text string, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delays[text] = d
}

// SetTextDuration overrides the clip length for one text.
func (e *MockEngine) SetTextDuration(text string, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.durations[text] = d
}

// SetFailure makes generation of text fail with err. A nil err clears it.
func (e *MockEngine) SetFailure(text string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.failures, text)
		return
	}
	e.failures[text] = err
}

// Calls returns the texts passed to Generate, in call order.
func (e *MockEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// CallCount returns how many times text was generated.
func (e *MockEngine) CallCount(text string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, c := range e.calls {
		if c == text {
			n++
		}
	}
	return n
}

var _ ttypes.ClipGenerator = (*MockEngine)(nil)
