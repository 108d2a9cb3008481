// Package router turns discrete input commands into selection moves and
// playback requests.
package router

import (
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// Navigator is the selection model as seen by the router.
type Navigator interface {
	IsLoaded() bool
	SelectNext() bool
	SelectPrevious() bool
	SelectWordAbove() bool
	SelectWordBelow() bool
	SelectNextSentence() bool
	SelectPreviousSentence() bool
	Range() (start, end int)
	Clear()
}

// Playback is the playback chain as seen by the router.
type Playback interface {
	PlayRange(lo, hi int, advance bool)
	ReadFromStart()
	Stop()
}

// Lookahead warms clips ahead of a new selection.
type Lookahead interface {
	Boost(from, n int) error
}

// Router dispatches commands. It holds no selection or playback state of
// its own.
type Router struct {
	nav   Navigator
	play  Playback
	ahead Lookahead
	span  int
}

// Option configures a Router.
type Option func(*Router)

// WithLookahead asks ahead to prefetch n words from the start of every new
// selection.
func WithLookahead(ahead Lookahead, n int) Option {
	return func(r *Router) {
		r.ahead = ahead
		r.span = n
	}
}

// New creates a router.
func New(nav Navigator, play Playback, opts ...Option) *Router {
	r := &Router{nav: nav, play: play}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle applies cmd and reports whether it changed anything. Commands are
// ignored until a document is loaded.
func (r *Router) Handle(cmd ttypes.Command) bool {
	if !r.nav.IsLoaded() {
		log.Debug("ignoring command without a document", "command", cmd)
		return false
	}

	if cmd.IsNavigation() {
		if !r.navigate(cmd) {
			return false
		}
		start, end := r.nav.Range()
		r.prefetch(start, end)
		r.play.PlayRange(start, end, false)
		return true
	}

	switch cmd {
	case ttypes.CommandReadAll:
		r.prefetch(0, 0)
		r.play.ReadFromStart()
		return true

	case ttypes.CommandReadSelection:
		start, end := r.nav.Range()
		if start < 0 {
			return false
		}
		r.play.PlayRange(start, end, false)
		return true

	case ttypes.CommandStop:
		r.play.Stop()
		return true

	case ttypes.CommandClear:
		r.play.Stop()
		r.nav.Clear()
		return true

	default:
		return false
	}
}

func (r *Router) navigate(cmd ttypes.Command) bool {
	switch cmd {
	case ttypes.CommandNextWord:
		return r.nav.SelectNext()
	case ttypes.CommandPreviousWord:
		return r.nav.SelectPrevious()
	case ttypes.CommandWordAbove:
		return r.nav.SelectWordAbove()
	case ttypes.CommandWordBelow:
		return r.nav.SelectWordBelow()
	case ttypes.CommandNextSentence:
		return r.nav.SelectNextSentence()
	case ttypes.CommandPreviousSentence:
		return r.nav.SelectPreviousSentence()
	default:
		return false
	}
}

func (r *Router) prefetch(start, end int) {
	if r.ahead == nil || r.span <= 0 {
		return
	}
	n := max(end-start+1, r.span)
	if err := r.ahead.Boost(start, n); err != nil {
		log.Debug("prefetch boost failed", "from", start, "error", err)
	}
}
