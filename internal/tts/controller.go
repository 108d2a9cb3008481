package tts

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
	"github.com/dgnsrekt/spotlight/internal/words"
)

// LanguageAuto detects the language of every loaded document.
const LanguageAuto = "auto"

// Selection is the selection model as seen by the controller.
type Selection interface {
	Load(index *words.Index)
}

// Clips is the clip cache as seen by the controller.
type Clips interface {
	Reset(index *words.Index, lang ttypes.Language)
	SetLanguage(lang ttypes.Language)
	Language() ttypes.Language
}

// Playback is the playback chain as seen by the controller.
type Playback interface {
	Stop()
}

// Prefetch warms clips in the background.
type Prefetch interface {
	Clear()
	EnqueueRange(lo, hi int) error
}

// Config holds controller settings.
type Config struct {
	// Language is "auto", "en" or "bg".
	Language string

	// PrefetchAll queues every word of a new document for generation.
	PrefetchAll bool
}

// Controller owns the loaded document and resets every component when it
// changes. The components are created by the caller to keep this package
// free of import cycles.
type Controller struct {
	config    Config
	selection Selection
	clips     Clips
	playback  Playback
	prefetch  Prefetch // optional

	mu     sync.RWMutex
	index  *words.Index
	source string
	lang   ttypes.Language
}

// NewController wires a controller. prefetch may be nil.
func NewController(config Config, selection Selection, clips Clips, playback Playback, prefetch Prefetch) (*Controller, error) {
	if selection == nil {
		return nil, fmt.Errorf("selection cannot be nil")
	}
	if clips == nil {
		return nil, fmt.Errorf("clips cannot be nil")
	}
	if playback == nil {
		return nil, fmt.Errorf("playback cannot be nil")
	}
	if _, err := ParseLanguage(config.Language); err != nil {
		return nil, err
	}

	return &Controller{
		config:    config,
		selection: selection,
		clips:     clips,
		playback:  playback,
		prefetch:  prefetch,
		lang:      ttypes.LanguageEnglish,
	}, nil
}

// ParseLanguage validates a configured language. An empty string or "auto"
// returns the empty language, meaning detect per document.
func ParseLanguage(s string) (ttypes.Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", LanguageAuto:
		return "", nil
	case string(ttypes.LanguageEnglish):
		return ttypes.LanguageEnglish, nil
	case string(ttypes.LanguageBulgarian):
		return ttypes.LanguageBulgarian, nil
	default:
		return "", fmt.Errorf("unsupported language %q (want auto, en or bg)", s)
	}
}

// Load replaces the document. Playback stops, the selection is cleared and
// every clip is discarded before the new words become visible. A document
// without words is loaded like any other.
func (c *Controller) Load(doc *ttypes.Document) error {
	if doc == nil {
		return ErrNoDocument
	}

	index, err := words.Load(doc.Words, doc.Bounds)
	if err != nil {
		return NewTTSError(ErrorCodeDocument, "invalid document layout", err).
			WithContext("source", doc.Source)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// An empty page keeps the current language rather than guessing one.
	lang, _ := ParseLanguage(c.config.Language)
	switch {
	case lang != "":
	case index.Size() == 0:
		lang = c.lang
	default:
		lang = words.DetectLanguage(words.Reconstruct(doc.Words))
	}

	c.playback.Stop()
	if c.prefetch != nil {
		c.prefetch.Clear()
	}
	c.selection.Load(index)
	c.clips.Reset(index, lang)

	c.index = index
	c.source = doc.Source
	c.lang = lang

	c.prefetchAllLocked()
	log.Info("document loaded", "source", doc.Source, "words", index.Size(), "language", lang)
	return nil
}

// SetLanguage switches the voice language. Clips of the old language are
// discarded and playback stops.
func (c *Controller) SetLanguage(lang ttypes.Language) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if lang == c.lang {
		return
	}
	c.playback.Stop()
	if c.prefetch != nil {
		c.prefetch.Clear()
	}
	c.clips.SetLanguage(lang)
	c.lang = lang
	c.prefetchAllLocked()
	log.Info("language changed", "language", lang)
}

// ToggleLanguage switches between English and Bulgarian and returns the new
// language.
func (c *Controller) ToggleLanguage() ttypes.Language {
	next := ttypes.LanguageBulgarian
	if c.Language() == ttypes.LanguageBulgarian {
		next = ttypes.LanguageEnglish
	}
	c.SetLanguage(next)
	return next
}

// must be called with lock held
func (c *Controller) prefetchAllLocked() {
	if c.prefetch == nil || !c.config.PrefetchAll || c.index.Size() == 0 {
		return
	}
	if err := c.prefetch.EnqueueRange(0, c.index.Size()-1); err != nil {
		log.Debug("prefetch not queued", "error", err)
	}
}

// Language returns the language clips are generated in.
func (c *Controller) Language() ttypes.Language {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

// IsLoaded reports whether a document is loaded.
func (c *Controller) IsLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index != nil
}

// Index returns the loaded word index, or nil.
func (c *Controller) Index() *words.Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// Source returns the name of the loaded document.
func (c *Controller) Source() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

// Close stops playback.
func (c *Controller) Close() {
	c.playback.Stop()
}
