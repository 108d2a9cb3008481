package ui

import (
	"fmt"

	"github.com/dgnsrekt/spotlight/internal/cache"
	"github.com/dgnsrekt/spotlight/internal/playback"
)

// readerState is what the playback chain is doing, as far as the status bar
// is concerned.
type readerState int

const (
	stateIdle readerState = iota
	stateReading
)

func (s readerState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateReading:
		return "reading"
	default:
		return "unknown"
	}
}

// statusDisplay follows playback events for the status bar.
type statusDisplay struct {
	state      readerState
	generation uint64
	current    int
	skipped    int
	lastError  string
}

func newStatusDisplay() statusDisplay {
	return statusDisplay{current: -1}
}

// update applies ev and returns a message worth flashing, if any. Events
// from sessions older than the newest one seen are ignored.
func (s *statusDisplay) update(ev playback.Event) string {
	switch e := ev.(type) {
	case playback.WordStarted:
		if e.Generation < s.generation {
			return ""
		}
		s.generation = e.Generation
		s.state = stateReading
		s.current = e.Index

	case playback.WordSkipped:
		if e.Generation < s.generation {
			return ""
		}
		s.generation = e.Generation
		s.skipped++
		if e.Err != nil {
			s.lastError = e.Err.Error()
		}
		return fmt.Sprintf("Skipped word %d: %s", e.Index+1, s.lastError)

	case playback.SessionDone:
		if e.Generation < s.generation {
			return ""
		}
		s.generation = e.Generation
		s.state = stateIdle
		if e.Completed {
			return "Done"
		}
	}
	return ""
}

// note describes the reader for the status bar.
func (s statusDisplay) note(source, lang string, total int) string {
	n := fmt.Sprintf("%s · %s", source, lang)
	if total == 0 {
		return n + " · no words"
	}
	if s.state == stateReading && s.current >= 0 {
		return fmt.Sprintf("%s · reading %d/%d", n, s.current+1, total)
	}
	return fmt.Sprintf("%s · %d words", n, total)
}

// clipsNote summarizes clip generation. queued is the prefetch backlog.
func clipsNote(c cache.ClipCounts, queued int) string {
	if c.Total == 0 {
		return ""
	}
	s := fmt.Sprintf(" %d/%d ready", c.Ready, c.Total)
	if c.Failed > 0 {
		s += fmt.Sprintf(", %d failed", c.Failed)
	}
	if queued > 0 {
		s += fmt.Sprintf(", %d queued", queued)
	}
	return s + " "
}
