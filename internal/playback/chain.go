// Package playback sounds a range of word clips back to back, in order, while
// optionally moving the selection along with the voice.
//
// A Chain runs at most one session. Every session carries a generation
// number; starting a new session or calling Stop bumps it, and anything
// reported by an older session is dropped.
package playback

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// eventBuffer is how many events may queue before new ones are dropped.
const eventBuffer = 64

// ClipSource provides materialized clips. *cache.ClipCache satisfies it.
type ClipSource interface {
	Ensure(i int) bool
	Wait(ctx context.Context, i int) (ttypes.ClipState, error)
	Size() int
}

// Navigator is the part of the selection model the chain drives.
// *selection.Model satisfies it.
type Navigator interface {
	SelectNext() bool
	SelectSpecific(i int) bool
	Clear()
}

// Event reports session progress to the presentation layer.
type Event interface {
	isEvent()
}

// WordStarted is sent when the clip of word Index starts sounding.
type WordStarted struct {
	Index      int
	Generation uint64
}

// WordSkipped is sent when the clip of word Index failed and was skipped.
type WordSkipped struct {
	Index      int
	Generation uint64
	Err        error
}

// SessionDone is sent when a session ends. Completed is false when the
// session was stopped or replaced.
type SessionDone struct {
	Generation uint64
	Completed  bool
}

func (WordStarted) isEvent() {}
func (WordSkipped) isEvent() {}
func (SessionDone) isEvent() {}

// Chain plays word clips in strict index order through a single player.
type Chain struct {
	clips  ClipSource
	nav    Navigator
	player ttypes.ClipPlayer
	events chan Event

	generation atomic.Uint64

	mu      sync.Mutex
	session *session
}

type session struct {
	lo, hi  int
	advance bool
	gen     uint64

	ctx    context.Context
	cancel context.CancelFunc

	cursor atomic.Int64
}

// NewChain wires a chain to its collaborators.
func NewChain(clips ClipSource, nav Navigator, player ttypes.ClipPlayer) *Chain {
	return &Chain{
		clips:  clips,
		nav:    nav,
		player: player,
		events: make(chan Event, eventBuffer),
	}
}

// Events returns the channel of session events. Events are dropped when
// nobody drains it.
func (c *Chain) Events() <-chan Event {
	return c.events
}

// Generation returns the number of the newest session.
func (c *Chain) Generation() uint64 {
	return c.generation.Load()
}

// Stop cancels the live session and silences the player. It never blocks on
// clip generation and is safe to call at any time.
func (c *Chain) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// must be called with lock held
func (c *Chain) stopLocked() {
	c.generation.Add(1)
	if c.session != nil {
		c.session.cancel()
		c.session = nil
	}
	if err := c.player.Stop(); err != nil {
		log.Warn("failed to stop player", "error", err)
	}
}

// PlayRange stops whatever is playing and sounds words lo..hi on a new
// session. With advance set, the selection moves to each word just before it
// sounds. The range is clamped to the loaded words. It returns immediately.
func (c *Chain) PlayRange(lo, hi int, advance bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playRangeLocked(lo, hi, advance)
}

// PlaySingle selects word i and sounds it alone.
func (c *Chain) PlaySingle(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.nav.SelectSpecific(i) {
		return
	}
	c.playRangeLocked(i, i, false)
}

// ReadFromStart clears the selection and reads the whole document, moving
// the selection along.
func (c *Chain) ReadFromStart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.nav.Clear()
	c.playRangeLocked(0, c.clips.Size()-1, true)
}

// must be called with lock held
func (c *Chain) playRangeLocked(lo, hi int, advance bool) {
	c.stopLocked()

	n := c.clips.Size()
	lo = max(lo, 0)
	hi = min(hi, n-1)
	if lo > hi {
		log.Debug("nothing to play", "lo", lo, "hi", hi, "words", n)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		lo:      lo,
		hi:      hi,
		advance: advance,
		gen:     c.generation.Load(),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.cursor.Store(int64(lo))
	c.session = s

	log.Debug("playback started", "lo", lo, "hi", hi, "advance", advance, "generation", s.gen)
	go c.run(s)
}

// IsPlaying reports whether a session is live.
func (c *Chain) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Cursor returns the word the live session is on, or -1 when idle.
func (c *Chain) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return -1
	}
	return int(c.session.cursor.Load())
}

func (c *Chain) run(s *session) {
	completed := false
	defer func() {
		c.mu.Lock()
		if c.session == s {
			c.session = nil
		}
		c.mu.Unlock()
		c.emit(SessionDone{Generation: s.gen, Completed: completed})
		log.Debug("playback finished", "generation", s.gen, "completed", completed)
	}()

	for cursor := s.lo; cursor <= s.hi; cursor++ {
		s.cursor.Store(int64(cursor))
		if cursor < s.hi {
			c.clips.Ensure(cursor + 1)
		}

		state, err := c.await(s, cursor)
		if err != nil {
			return
		}

		if !c.advance(s) {
			return
		}

		if state.Status == ttypes.ClipFailed {
			log.Debug("skipping failed clip", "index", cursor, "error", state.Err)
			c.emit(WordSkipped{Index: cursor, Generation: s.gen, Err: state.Err})
			continue
		}

		if !c.sound(s, cursor, state) {
			return
		}
	}
	completed = true
}

// await blocks in bounded slices until clip i settles or the session ends.
// A clip that is still loading is never skipped.
func (c *Chain) await(s *session, i int) (ttypes.ClipState, error) {
	for slice := 1; ; slice++ {
		state, err := c.clips.Wait(s.ctx, i)
		if err != nil {
			return state, err
		}
		if state.Settled() {
			return state, nil
		}
		log.Debug("still waiting for clip", "index", i, "slice", slice, "generation", s.gen)
	}
}

// sound plays one clip and waits for it to finish. It returns false when the
// session ended first.
func (c *Chain) sound(s *session, i int, state ttypes.ClipState) bool {
	finished := make(chan struct{})
	var once sync.Once
	onComplete := func() {
		if c.generation.Load() != s.gen {
			log.Debug("ignoring stale completion", "index", i, "generation", s.gen)
			return
		}
		once.Do(func() { close(finished) })
	}

	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return false
	}
	err := c.player.Play(state.Clip, state.StopAt, onComplete)
	c.mu.Unlock()

	if err != nil {
		log.Warn("failed to play clip", "index", i, "error", err)
		c.emit(WordSkipped{Index: i, Generation: s.gen, Err: err})
		return true
	}
	c.emit(WordStarted{Index: i, Generation: s.gen})

	select {
	case <-finished:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// advance moves the selection onto the next word when s is still live and
// advancing. The check and the move happen under one lock so a concurrent
// Stop cannot slip between them.
func (c *Chain) advance(s *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != s {
		return false
	}
	if s.advance {
		c.nav.SelectNext()
	}
	return true
}

func (c *Chain) emit(e Event) {
	select {
	case c.events <- e:
	default:
		log.Debug("dropping playback event", "event", e)
	}
}
