package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// PlayerState represents the current state of a player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StateClosed
)

// String returns the state name.
func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PlayRecord is one Play call observed by MockPlayer.
type PlayRecord struct {
	Clip   *ttypes.Clip
	StopAt time.Duration

	Started time.Time
	// Ended is zero while the clip sounds or if it was cut off.
	Ended time.Time

	// Completed is true when the clip ran to its stop offset.
	Completed bool
	// Interrupted is true when Stop or a later Play cut the clip off.
	Interrupted bool
}

// MockPlayer implements ttypes.ClipPlayer with timers instead of a device.
// Each clip "sounds" for its stop offset divided by the speed factor.
type MockPlayer struct {
	mu      sync.Mutex
	state   atomic.Int32
	speed   float64
	current *mockPlayback
	records []*PlayRecord
	playErr error

	playbackWg sync.WaitGroup

	playCount atomic.Int64
	stopCount atomic.Int64
}

type mockPlayback struct {
	record     *PlayRecord
	onComplete func()
	stopCh     chan struct{}
}

// NewMockPlayer creates a mock player running at real time.
func NewMockPlayer() *MockPlayer {
	mp := &MockPlayer{speed: 1.0}
	mp.state.Store(int32(StateStopped))
	return mp
}

// SetSpeed scales simulated playback. 2.0 plays twice as fast.
func (mp *MockPlayer) SetSpeed(factor float64) {
	if factor <= 0 {
		factor = 1.0
	}
	mp.mu.Lock()
	mp.speed = factor
	mp.mu.Unlock()
}

// SetPlayError makes every later Play fail with err. Nil clears it.
func (mp *MockPlayer) SetPlayError(err error) {
	mp.mu.Lock()
	mp.playErr = err
	mp.mu.Unlock()
}

// Play simulates sounding clip until stopAt.
func (mp *MockPlayer) Play(clip *ttypes.Clip, stopAt time.Duration, onComplete func()) error {
	if clip == nil {
		return errors.New("clip is nil")
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if PlayerState(mp.state.Load()) == StateClosed {
		return errors.New("player is closed")
	}
	if mp.playErr != nil {
		return mp.playErr
	}
	mp.stopLocked()

	if stopAt > clip.Duration {
		stopAt = clip.Duration
	}
	if stopAt < 0 {
		stopAt = 0
	}

	pb := &mockPlayback{
		record:     &PlayRecord{Clip: clip, StopAt: stopAt, Started: time.Now()},
		onComplete: onComplete,
		stopCh:     make(chan struct{}),
	}
	mp.records = append(mp.records, pb.record)
	mp.current = pb
	mp.state.Store(int32(StatePlaying))
	mp.playCount.Add(1)

	length := time.Duration(float64(stopAt) / mp.speed)
	mp.playbackWg.Add(1)
	go mp.simulatePlayback(pb, length)
	return nil
}

func (mp *MockPlayer) simulatePlayback(pb *mockPlayback, length time.Duration) {
	defer mp.playbackWg.Done()

	timer := time.NewTimer(length)
	defer timer.Stop()

	select {
	case <-pb.stopCh:
		return
	case <-timer.C:
	}

	mp.mu.Lock()
	if mp.current != pb {
		mp.mu.Unlock()
		return
	}
	pb.record.Ended = time.Now()
	pb.record.Completed = true
	mp.current = nil
	mp.state.Store(int32(StateStopped))
	mp.mu.Unlock()

	if pb.onComplete != nil {
		pb.onComplete()
	}
}

// Stop cuts off the sounding clip without calling its callback.
func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.stopLocked()
	return nil
}

func (mp *MockPlayer) stopLocked() {
	if mp.current == nil {
		return
	}
	close(mp.current.stopCh)
	mp.current.record.Interrupted = true
	mp.current = nil
	mp.stopCount.Add(1)
	if PlayerState(mp.state.Load()) != StateClosed {
		mp.state.Store(int32(StateStopped))
	}
}

// IsPlaying returns whether a simulated clip is sounding.
func (mp *MockPlayer) IsPlaying() bool {
	return PlayerState(mp.state.Load()) == StatePlaying
}

// Close stops playback and waits for simulation goroutines to exit.
func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	mp.stopLocked()
	mp.state.Store(int32(StateClosed))
	mp.mu.Unlock()

	mp.playbackWg.Wait()
	return nil
}

// GetState returns the current player state for testing.
func (mp *MockPlayer) GetState() PlayerState {
	return PlayerState(mp.state.Load())
}

// Records returns a copy of every Play call so far.
func (mp *MockPlayer) Records() []PlayRecord {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	out := make([]PlayRecord, len(mp.records))
	for i, r := range mp.records {
		out[i] = *r
	}
	return out
}

// Overlapped reports whether any clip started before the previous one had
// completed or been cut off.
func (mp *MockPlayer) Overlapped() bool {
	records := mp.Records()
	for i := 1; i < len(records); i++ {
		prev := records[i-1]
		if prev.Completed && records[i].Started.Before(prev.Ended) {
			return true
		}
	}
	return false
}

// MockPlayerMetrics are counters collected by MockPlayer.
type MockPlayerMetrics struct {
	PlayCount int64
	StopCount int64
}

// GetMetrics returns playback metrics for testing.
func (mp *MockPlayer) GetMetrics() MockPlayerMetrics {
	return MockPlayerMetrics{
		PlayCount: mp.playCount.Load(),
		StopCount: mp.stopCount.Load(),
	}
}

var _ ttypes.ClipPlayer = (*MockPlayer)(nil)
