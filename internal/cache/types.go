package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the store capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheMiss is returned when an item is not found in a store
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheCorrupted is returned when stored data cannot be decoded
	ErrCacheCorrupted = errors.New("cache data corrupted")

	// ErrClosed is returned for clips requested after the cache was closed.
	ErrClosed = errors.New("clip cache closed")
)

// Level identifies a store tier.
type Level int

const (
	// LevelMemory is the in-process LRU (fastest)
	LevelMemory Level = iota

	// LevelDisk is the compressed on-disk store (persistent)
	LevelDisk
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "L1-Memory"
	case LevelDisk:
		return "L2-Disk"
	default:
		return "Unknown"
	}
}

// Stats holds store performance metrics.
type Stats struct {
	Capacity  int64 // Maximum capacity in bytes
	Size      int64 // Current size in bytes
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64 // hits / (hits + misses)

	LastAccess time.Time
	LastEvict  time.Time
}

func (s *Stats) computeHitRate() {
	if s.Hits+s.Misses > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Hits+s.Misses)
	}
}

// Store is a byte-oriented key/value store for encoded audio.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Contains(key string) bool
	Size() int64
	Stats() Stats
	Close() error
}

// Config holds configuration for the persistent clip store.
type Config struct {
	MemoryCapacity int64 // Bytes

	DiskCapacity     int64  // Bytes, 0 disables the disk tier
	DiskPath         string // Directory for cache files
	CompressionLevel int    // Zstd compression level (1-22), 0 disables compression

	// TTL removes disk entries older than this on open. Zero keeps everything.
	TTL time.Duration
}

// DefaultConfig returns default store configuration.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   32 * 1024 * 1024,  // 32MB
		DiskCapacity:     512 * 1024 * 1024, // 512MB
		CompressionLevel: 3,
		TTL:              30 * 24 * time.Hour,
	}
}

// KeyFor builds the store key of a word clip. Keys are stable across runs
// so the disk tier survives restarts.
func KeyFor(generator, text string, lang ttypes.Language) string {
	data := fmt.Sprintf("%s|%s|%s", generator, lang, text)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
