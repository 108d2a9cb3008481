// Package ttypes contains shared types and interfaces for the reader.
// This package is used to break import cycles between words, cache, playback,
// audio and engines packages.
package ttypes

import (
	"context"
	"time"
)

// Rect is the on-screen bounding box of a word. Only the fields used by
// vertical navigation are kept.
type Rect struct {
	MinX    float64
	MaxX    float64
	CenterX float64
	MaxY    float64
}

// NewRect builds a Rect from its horizontal extent and bottom edge.
func NewRect(minX, maxX, maxY float64) Rect {
	return Rect{
		MinX:    minX,
		MaxX:    maxX,
		CenterX: (minX + maxX) / 2,
		MaxY:    maxY,
	}
}

// Contains reports whether x falls within the horizontal extent of r.
func (r Rect) Contains(x float64) bool {
	return r.MinX <= x && x <= r.MaxX
}

// Word is a single token of loaded text with its layout box.
type Word struct {
	Index  int
	Text   string
	Bounds Rect
}

// Selection is a contiguous range of word indices. Start and End are both -1
// when nothing is selected.
type Selection struct {
	Start int
	End   int
}

// NoSelection is the empty selection.
var NoSelection = Selection{Start: -1, End: -1}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return s.Start == -1
}

// Len returns how many words are selected.
func (s Selection) Len() int {
	if s.IsEmpty() {
		return 0
	}
	return s.End - s.Start + 1
}

// Language identifies the voice and corpus requested from a clip generator.
type Language string

const (
	// LanguageEnglish selects Latin-script voices.
	LanguageEnglish Language = "en"

	// LanguageBulgarian selects Cyrillic-script voices.
	LanguageBulgarian Language = "bg"
)

// String returns the language code.
func (l Language) String() string {
	return string(l)
}

// AudioFormat describes how generated audio bytes are encoded.
type AudioFormat int

const (
	// FormatMP3 is an MP3 stream, as produced by gTTS and Yandex.
	FormatMP3 AudioFormat = iota

	// FormatPCM is raw signed 16-bit little endian PCM.
	FormatPCM
)

// String returns the format name.
func (f AudioFormat) String() string {
	switch f {
	case FormatMP3:
		return "mp3"
	case FormatPCM:
		return "pcm"
	default:
		return "unknown"
	}
}

// Audio is the encoded output of a clip generator.
type Audio struct {
	Data   []byte
	Format AudioFormat

	// SampleRate and Channels are only meaningful for FormatPCM.
	SampleRate int
	Channels   int
}

// Clip is a decoded, playable rendering of one word.
type Clip struct {
	// PCM holds signed 16-bit little endian samples.
	PCM        []byte
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// BytesPerSecond returns the PCM byte rate of the clip.
func (c *Clip) BytesPerSecond() int {
	return c.SampleRate * c.Channels * 2
}

// ClipStatus is the lifecycle of a per-word clip.
type ClipStatus int

const (
	// ClipNotRequested means generation has not been asked for yet.
	ClipNotRequested ClipStatus = iota

	// ClipLoading means a generation is in flight.
	ClipLoading

	// ClipReady means the clip is materialized and playable.
	ClipReady

	// ClipFailed means generation or decoding failed.
	ClipFailed
)

// String returns the string representation of the status
func (s ClipStatus) String() string {
	switch s {
	case ClipNotRequested:
		return "not-requested"
	case ClipLoading:
		return "loading"
	case ClipReady:
		return "ready"
	case ClipFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ClipState is a snapshot of one ClipCache entry.
type ClipState struct {
	Status ClipStatus

	// Clip and StopAt are set when Status is ClipReady. StopAt is the effective
	// end of the clip after trailing silence is trimmed.
	Clip   *Clip
	StopAt time.Duration

	// Err is set when Status is ClipFailed.
	Err error
}

// Settled reports whether the state is terminal.
func (s ClipState) Settled() bool {
	return s.Status == ClipReady || s.Status == ClipFailed
}

// ClipGenerator converts word text into encoded audio.
type ClipGenerator interface {
	// Generate synthesizes text in the given language. It may be slow and
	// it may fail.
	Generate(ctx context.Context, text string, lang Language) (*Audio, error)

	// Name identifies the generator in logs and cache keys.
	Name() string
}

// ClipPlayer sounds one clip at a time.
type ClipPlayer interface {
	// Play starts sounding clip and stops it once stopAt is reached, then
	// calls onComplete. Starting a new clip replaces the current one without
	// calling the replaced clip's onComplete.
	Play(clip *Clip, stopAt time.Duration, onComplete func()) error

	// Stop halts the sounding clip immediately. onComplete is not called.
	Stop() error

	// IsPlaying returns whether a clip is currently sounding.
	IsPlaying() bool

	// Close releases the audio device.
	Close() error
}

// Command is a discrete navigation or playback request from an input source.
type Command int

const (
	// CommandNone is ignored.
	CommandNone Command = iota
	CommandNextWord
	CommandPreviousWord
	CommandWordAbove
	CommandWordBelow
	CommandNextSentence
	CommandPreviousSentence
	CommandReadAll
	CommandReadSelection
	CommandStop
	CommandClear
)

// String returns the string representation of the command
func (c Command) String() string {
	switch c {
	case CommandNextWord:
		return "next-word"
	case CommandPreviousWord:
		return "previous-word"
	case CommandWordAbove:
		return "word-above"
	case CommandWordBelow:
		return "word-below"
	case CommandNextSentence:
		return "next-sentence"
	case CommandPreviousSentence:
		return "previous-sentence"
	case CommandReadAll:
		return "read-all"
	case CommandReadSelection:
		return "read-selection"
	case CommandStop:
		return "stop"
	case CommandClear:
		return "clear"
	default:
		return "none"
	}
}

// IsNavigation reports whether the command moves the selection.
func (c Command) IsNavigation() bool {
	return c >= CommandNextWord && c <= CommandPreviousSentence
}

// Document is loaded text ready for the word index: one entry of Bounds per
// entry of Words, in reading order.
type Document struct {
	// Source names where the text came from, for display and logs.
	Source string
	Words  []string
	Bounds []Rect
}
