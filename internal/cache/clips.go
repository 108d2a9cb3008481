package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
	"github.com/dgnsrekt/spotlight/internal/words"
)

const (
	// DefaultWait is how long Wait blocks for a clip before giving up.
	DefaultWait = time.Second

	// DefaultWorkers bounds concurrent clip generation.
	DefaultWorkers = 4
)

// Decoder turns generator output into a playable clip.
type Decoder func(a *ttypes.Audio) (*ttypes.Clip, error)

// ClipOptions configures a ClipCache.
type ClipOptions struct {
	// Wait bounds a single Wait call. Defaults to DefaultWait.
	Wait time.Duration

	// Workers bounds concurrent generations. Defaults to DefaultWorkers.
	Workers int

	// Store, when set, persists generator output across documents and runs.
	Store Store

	// Decode materializes generator output. Required.
	Decode Decoder
}

// ClipCache lazily generates one audio clip per word of the loaded index.
// Entries move NotRequested -> Loading -> Ready or Failed; the settled states
// are terminal until the cache is invalidated.
type ClipCache struct {
	gen    ttypes.ClipGenerator
	decode Decoder
	store  Store
	wait   time.Duration
	sem    *semaphore.Weighted

	mu      sync.Mutex
	index   *words.Index
	lang    ttypes.Language
	entries map[int]*clipEntry
	epoch   uint64
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
}

type clipEntry struct {
	state ttypes.ClipState

	// done is closed once the entry settles: by the generation goroutine
	// that moved the entry to Loading, or by ensureLocked after Close.
	done chan struct{}
}

// ClipCounts summarizes entry states.
type ClipCounts struct {
	Total, Loading, Ready, Failed int
}

// NewClipCache creates an empty cache backed by gen.
func NewClipCache(gen ttypes.ClipGenerator, opts ClipOptions) *ClipCache {
	if opts.Wait <= 0 {
		opts.Wait = DefaultWait
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ClipCache{
		gen:     gen,
		decode:  opts.Decode,
		store:   opts.Store,
		wait:    opts.Wait,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		lang:    ttypes.LanguageEnglish,
		entries: make(map[int]*clipEntry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// resetter is a generator that keeps per-document state, such as a fallback
// that gave up on its primary engine.
type resetter interface {
	Reset()
}

// Reset loads a new word index and language and discards every entry. A
// generator with a Reset method is reset too.
func (c *ClipCache) Reset(index *words.Index, lang ttypes.Language) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.gen.(resetter); ok {
		r.Reset()
	}

	c.index = index
	c.lang = lang
	c.invalidateLocked()
}

// SetLanguage switches the synthesis language, discarding every entry when
// it changes.
func (c *ClipCache) SetLanguage(lang ttypes.Language) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lang == lang {
		return
	}
	c.lang = lang
	c.invalidateLocked()
}

// Language returns the current synthesis language.
func (c *ClipCache) Language() ttypes.Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

// WaitLimit returns the bound of a single Wait call.
func (c *ClipCache) WaitLimit() time.Duration {
	return c.wait
}

// InvalidateAll returns every entry to NotRequested. Generations started
// before the call are cancelled and their results discarded.
func (c *ClipCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

// must be called with lock held
func (c *ClipCache) invalidateLocked() {
	c.epoch++
	c.entries = make(map[int]*clipEntry)
	if c.closed {
		return
	}
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(context.Background())
}

// Ensure starts generating the clip for word i unless it was already
// requested. It never blocks. It returns false when i is out of range.
func (c *ClipCache) Ensure(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.ensureLocked(i)
	return ok
}

// must be called with lock held
func (c *ClipCache) ensureLocked(i int) (*clipEntry, bool) {
	text, ok := c.index.Text(i)
	if !ok {
		return nil, false
	}

	e := c.entryLocked(i)
	if e.state.Status != ttypes.ClipNotRequested {
		return e, true
	}
	if c.closed {
		e.state = ttypes.ClipState{Status: ttypes.ClipFailed, Err: ErrClosed}
		close(e.done)
		return e, true
	}

	e.state.Status = ttypes.ClipLoading
	go c.generate(c.ctx, c.epoch, i, text, c.lang, e)
	return e, true
}

// must be called with lock held
func (c *ClipCache) entryLocked(i int) *clipEntry {
	e, ok := c.entries[i]
	if !ok {
		e = &clipEntry{done: make(chan struct{})}
		c.entries[i] = e
	}
	return e
}

// Get returns the current state of word i without side effects.
func (c *ClipCache) Get(i int) ttypes.ClipState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[i]; ok {
		return e.state
	}
	return ttypes.ClipState{Status: ttypes.ClipNotRequested}
}

// Wait ensures the clip for word i and blocks until it settles, the bounded
// wait elapses or ctx is done. On timeout the Loading state is returned with
// a nil error; the generation keeps running in the background. After Close
// it returns ErrClosed without blocking.
func (c *ClipCache) Wait(ctx context.Context, i int) (ttypes.ClipState, error) {
	c.mu.Lock()
	e, ok := c.ensureLocked(i)
	closed := c.closed
	c.mu.Unlock()
	if !ok {
		return ttypes.ClipState{}, fmt.Errorf("clip %d: %w", i, words.ErrOutOfRange)
	}
	if closed {
		return c.Get(i), fmt.Errorf("clip %d: %w", i, ErrClosed)
	}

	timer := time.NewTimer(c.wait)
	defer timer.Stop()

	select {
	case <-e.done:
	case <-timer.C:
	case <-ctx.Done():
		return c.Get(i), ctx.Err()
	}
	return c.Get(i), nil
}

// Settled ensures the clip for word i and returns a channel that is closed
// once it is Ready or Failed. ok is false when i is out of range.
func (c *ClipCache) Settled(i int) (done <-chan struct{}, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.ensureLocked(i)
	if !ok {
		return nil, false
	}
	return e.done, true
}

// Counts returns how many entries are in each state.
func (c *ClipCache) Counts() ClipCounts {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := ClipCounts{Total: c.index.Size()}
	for _, e := range c.entries {
		switch e.state.Status {
		case ttypes.ClipLoading:
			counts.Loading++
		case ttypes.ClipReady:
			counts.Ready++
		case ttypes.ClipFailed:
			counts.Failed++
		}
	}
	return counts
}

// Size returns the number of words in the loaded index.
func (c *ClipCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Size()
}

// Close cancels all in-flight generations. Clips requested afterwards fail
// with ErrClosed right away.
func (c *ClipCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.cancel()
}

func (c *ClipCache) generate(ctx context.Context, epoch uint64, i int, text string, lang ttypes.Language, e *clipEntry) {
	defer close(e.done)

	clip, err := c.materialize(ctx, text, lang)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		log.Debug("discarding clip from invalidated cache", "index", i)
		return
	}

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn("clip generation failed", "index", i, "text", text, "error", err)
		}
		e.state = ttypes.ClipState{Status: ttypes.ClipFailed, Err: err}
		return
	}

	stopAt := words.StopOffset(text, clip.Duration)
	e.state = ttypes.ClipState{Status: ttypes.ClipReady, Clip: clip, StopAt: stopAt}
	log.Debug("clip ready", "index", i, "duration", clip.Duration, "stopAt", stopAt)
}

func (c *ClipCache) materialize(ctx context.Context, text string, lang ttypes.Language) (*ttypes.Clip, error) {
	if c.decode == nil {
		return nil, errors.New("no clip decoder configured")
	}

	key := KeyFor(c.gen.Name(), text, lang)
	if c.store != nil {
		if data, ok := c.store.Get(key); ok {
			if audio, err := decodeAudio(data); err == nil {
				if clip, err := c.decode(audio); err == nil {
					return clip, nil
				}
			}
			log.Debug("dropping unusable stored clip", "key", key)
			_ = c.store.Delete(key)
		}
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	audio, err := c.gen.Generate(ctx, text, lang)
	c.sem.Release(1)
	if err != nil {
		return nil, fmt.Errorf("generate %q: %w", text, err)
	}

	clip, err := c.decode(audio)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", text, err)
	}

	if c.store != nil {
		if data, err := encodeAudio(audio); err == nil {
			if err := c.store.Put(key, data); err != nil {
				log.Debug("clip not stored", "key", key, "error", err)
			}
		}
	}
	return clip, nil
}
