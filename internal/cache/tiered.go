package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Tiered layers the memory store over an optional disk store. Reads fall
// through to disk and promote hits into memory. Disk writes happen in the
// background.
type Tiered struct {
	memory *MemoryStore
	disk   *DiskStore // nil when the disk tier is disabled

	writes sync.WaitGroup

	mu         sync.Mutex
	promotions int64
}

// TieredStats aggregates the metrics of both tiers.
type TieredStats struct {
	Memory     Stats
	Disk       Stats
	HasDisk    bool
	Promotions int64
}

// Open creates a tiered store from cfg. The disk tier is enabled when both
// DiskPath and DiskCapacity are set.
func Open(cfg Config) (*Tiered, error) {
	t := &Tiered{memory: NewMemoryStore(cfg.MemoryCapacity)}

	if cfg.DiskPath != "" && cfg.DiskCapacity > 0 {
		disk, err := NewDiskStore(cfg.DiskPath, cfg.DiskCapacity, cfg.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to open disk cache: %w", err)
		}
		if cfg.TTL > 0 {
			if n := disk.RemoveOlderThan(time.Now().Add(-cfg.TTL)); n > 0 {
				log.Debug("expired cached clips", "count", n)
			}
		}
		t.disk = disk
	}

	return t, nil
}

// Get looks up key in memory, then on disk.
func (t *Tiered) Get(key string) ([]byte, bool) {
	if data, ok := t.memory.Get(key); ok {
		return data, true
	}
	if t.disk == nil {
		return nil, false
	}

	data, ok := t.disk.Get(key)
	if !ok {
		return nil, false
	}
	if err := t.memory.Put(key, data); err == nil {
		t.mu.Lock()
		t.promotions++
		t.mu.Unlock()
	}
	return data, true
}

// Put stores value in memory and schedules the disk write.
func (t *Tiered) Put(key string, value []byte) error {
	if err := t.memory.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		return fmt.Errorf("L1 cache error: %w", err)
	}
	if t.disk == nil {
		return nil
	}

	t.writes.Add(1)
	go func() {
		defer t.writes.Done()
		if err := t.disk.Put(key, value); err != nil {
			log.Warn("failed to persist clip", "key", key, "error", err)
		}
	}()
	return nil
}

// Delete removes key from both tiers.
func (t *Tiered) Delete(key string) error {
	t.writes.Wait()

	var errs []error
	if err := t.memory.Delete(key); err != nil {
		errs = append(errs, fmt.Errorf("L1 delete: %w", err))
	}
	if t.disk != nil {
		if err := t.disk.Delete(key); err != nil {
			errs = append(errs, fmt.Errorf("L2 delete: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Clear empties both tiers.
func (t *Tiered) Clear() error {
	t.writes.Wait()

	var errs []error
	if err := t.memory.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("L1 clear: %w", err))
	}
	if t.disk != nil {
		if err := t.disk.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("L2 clear: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Contains reports whether either tier holds key.
func (t *Tiered) Contains(key string) bool {
	if t.memory.Contains(key) {
		return true
	}
	return t.disk != nil && t.disk.Contains(key)
}

// Size returns the combined size of both tiers.
func (t *Tiered) Size() int64 {
	size := t.memory.Size()
	if t.disk != nil {
		size += t.disk.Size()
	}
	return size
}

// Stats returns combined hit and size counters. Hits count a lookup served
// by either tier; misses count lookups neither tier could serve.
func (t *Tiered) Stats() Stats {
	ts := t.TieredStats()

	stats := ts.Memory
	if ts.HasDisk {
		stats.Capacity += ts.Disk.Capacity
		stats.Size += ts.Disk.Size
		stats.Hits += ts.Disk.Hits
		stats.Misses = ts.Disk.Misses
		stats.Evictions += ts.Disk.Evictions
		stats.ItemCount = ts.Disk.ItemCount
	}
	stats.HitRate = 0
	stats.computeHitRate()
	return stats
}

// TieredStats returns the per-tier metrics.
func (t *Tiered) TieredStats() TieredStats {
	t.mu.Lock()
	promotions := t.promotions
	t.mu.Unlock()

	ts := TieredStats{
		Memory:     t.memory.Stats(),
		Promotions: promotions,
	}
	if t.disk != nil {
		ts.Disk = t.disk.Stats()
		ts.HasDisk = true
	}
	return ts
}

// Close waits for pending disk writes and persists the disk index.
func (t *Tiered) Close() error {
	t.writes.Wait()
	if t.disk == nil {
		return nil
	}
	if err := t.disk.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}
