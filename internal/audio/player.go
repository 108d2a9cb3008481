package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// drainGrace bounds how long a clip may keep sounding past its stop offset
// while the device buffer drains.
const drainGrace = 500 * time.Millisecond

// pollInterval is how often a playback checks whether oto has finished.
const pollInterval = 10 * time.Millisecond

// sink is the part of *oto.Player a playback drives.
type sink interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Close() error
}

// Player sounds clips through oto. Only one clip sounds at a time.
type Player struct {
	format  Format
	newSink func(r io.Reader) sink

	mu      sync.Mutex
	current *playback

	state  atomic.Int32  // PlayerState
	volume atomic.Uint64 // volume * 1e6
}

// playback is one Play call. The clip stays referenced until oto is done
// reading from it. out is set once in Play and never cleared; released is
// guarded by Player.mu.
type playback struct {
	out        sink
	clip       *ttypes.Clip
	length     time.Duration
	onComplete func()
	stop       chan struct{}
	released   bool
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	Format Format

	// BufferSize is the device buffer length. Zero uses oto's default.
	BufferSize time.Duration

	// Volume is between 0 and 1.
	Volume float64
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		Format:     DefaultFormat,
		BufferSize: 50 * time.Millisecond,
		Volume:     1.0,
	}
}

func validateConfig(config PlayerConfig) error {
	switch config.Format.SampleRate {
	case 16000, 22050, 24000, 44100, 48000:
	default:
		return fmt.Errorf("unsupported sample rate %d", config.Format.SampleRate)
	}
	if config.Format.Channels != 1 && config.Format.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Format.Channels)
	}
	if config.Volume < 0 || config.Volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", config.Volume)
	}
	return nil
}

// NewPlayer opens the audio device. oto allows a single context per process,
// so create one Player and share it.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.Format.SampleRate,
		ChannelCount: config.Format.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeAudioDevice, "failed to create oto context",
			fmt.Errorf("%w: %v", tts.ErrAudioDeviceUnavailable, err))
	}
	<-readyChan

	return newPlayer(config, func(r io.Reader) sink { return ctx.NewPlayer(r) }), nil
}

func newPlayer(config PlayerConfig, newSink func(io.Reader) sink) *Player {
	p := &Player{format: config.Format, newSink: newSink}
	p.state.Store(int32(StateStopped))
	p.volume.Store(uint64(config.Volume * 1e6))
	return p
}

// Format returns the PCM layout the device was opened with.
func (p *Player) Format() Format {
	return p.format
}

// Play sounds clip up to stopAt and then calls onComplete from a separate
// goroutine. A clip already sounding is cut off without its callback.
func (p *Player) Play(clip *ttypes.Clip, stopAt time.Duration, onComplete func()) error {
	if clip == nil {
		return errors.New("clip is nil")
	}
	if clip.SampleRate != p.format.SampleRate || clip.Channels != p.format.Channels {
		return fmt.Errorf("%w: clip is %d Hz x%d, device is %d Hz x%d", tts.ErrUnsupportedAudio,
			clip.SampleRate, clip.Channels, p.format.SampleRate, p.format.Channels)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if PlayerState(p.state.Load()) == StateClosed {
		return errors.New("player is closed")
	}
	p.stopLocked()

	pcm := limitPCM(clip.PCM, stopAt, p.format)
	pb := &playback{
		clip:       clip,
		length:     p.format.Duration(len(pcm)),
		onComplete: onComplete,
		stop:       make(chan struct{}),
	}
	if len(pcm) > 0 {
		pb.out = p.newSink(bytes.NewReader(pcm))
		pb.out.SetVolume(float64(p.volume.Load()) / 1e6)
		pb.out.Play()
	}

	p.current = pb
	p.state.Store(int32(StatePlaying))
	go p.watch(pb, pb.out)
	return nil
}

// limitPCM cuts pcm at stopAt, aligned down to a whole frame.
func limitPCM(pcm []byte, stopAt time.Duration, f Format) []byte {
	if stopAt <= 0 {
		return nil
	}
	frame := f.bytesPerFrame()
	n := int(int64(stopAt) * int64(f.SampleRate) / int64(time.Second)) * frame
	if n > len(pcm) {
		n = len(pcm) - len(pcm)%frame
	}
	return pcm[:n]
}

// watch waits for pb to finish sounding and fires its callback unless pb was
// replaced or stopped in the meantime. out is pb's sink, or nil for an empty
// clip.
func (p *Player) watch(pb *playback, out sink) {
	timer := time.NewTimer(pb.length)
	defer timer.Stop()

	select {
	case <-pb.stop:
		return
	case <-timer.C:
	}

	if out != nil {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		deadline := time.Now().Add(drainGrace)
		for time.Now().Before(deadline) {
			if stopped(pb) || !out.IsPlaying() {
				break
			}
			select {
			case <-pb.stop:
				return
			case <-ticker.C:
			}
		}
	}

	p.mu.Lock()
	if p.current != pb {
		p.mu.Unlock()
		return
	}
	p.release(pb)
	p.current = nil
	p.state.Store(int32(StateStopped))
	p.mu.Unlock()

	if pb.onComplete != nil {
		pb.onComplete()
	}
}

// Stop cuts off the sounding clip. Its callback is not called.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	close(p.current.stop)
	p.release(p.current)
	p.current = nil
	if PlayerState(p.state.Load()) != StateClosed {
		p.state.Store(int32(StateStopped))
	}
}

func stopped(pb *playback) bool {
	select {
	case <-pb.stop:
		return true
	default:
		return false
	}
}

// release closes pb's sink once. Callers hold p.mu.
func (p *Player) release(pb *playback) {
	if pb.out == nil || pb.released {
		return
	}
	pb.released = true
	pb.out.Pause()
	if err := pb.out.Close(); err != nil {
		log.Debug("closing oto player", "error", err)
	}
}

// IsPlaying returns whether a clip is currently sounding.
func (p *Player) IsPlaying() bool {
	return PlayerState(p.state.Load()) == StatePlaying
}

// SetVolume sets the playback volume (0.0 to 1.0) for this and later clips.
func (p *Player) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}
	p.volume.Store(uint64(volume * 1e6))

	p.mu.Lock()
	if p.current != nil && p.current.out != nil && !p.current.released {
		p.current.out.SetVolume(volume)
	}
	p.mu.Unlock()
	return nil
}

// Close stops playback. oto v3 contexts cannot be closed; the device is
// released when the process exits.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.state.Store(int32(StateClosed))
	return nil
}

var _ ttypes.ClipPlayer = (*Player)(nil)
