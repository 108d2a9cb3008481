package cache

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const (
	indexFile = "clips.index"

	// compressThreshold is the smallest value worth compressing.
	compressThreshold = 1024
)

// DiskStore is the L2 tier: one file per clip under a directory, optionally
// zstd compressed, with a gob index persisted on Close.
type DiskStore struct {
	basePath string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry

	mu    sync.Mutex
	stats Stats
}

type diskEntry struct {
	Key          string
	File         string
	Size         int64 // on disk
	OriginalSize int64
	Timestamp    time.Time
	LastAccess   time.Time
	Compressed   bool
}

// NewDiskStore opens or creates a disk store at basePath. A compression
// level of 0 stores values as-is.
func NewDiskStore(basePath string, capacity int64, compressionLevel int) (*DiskStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	ds := &DiskStore{
		basePath: basePath,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Capacity: capacity},
	}

	if compressionLevel > 0 {
		var err error
		ds.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		ds.decoder, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
	}

	if err := ds.loadIndex(); err != nil {
		log.Warn("discarding unreadable clip index", "path", basePath, "error", err)
		ds.index = make(map[string]*diskEntry)
	}
	for _, entry := range ds.index {
		ds.size += entry.Size
	}

	return ds, nil
}

// Get reads and decompresses the value for key. Entries whose file is
// missing or corrupt are dropped.
func (ds *DiskStore) Get(key string) ([]byte, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	entry, ok := ds.index[key]
	if !ok {
		ds.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(filepath.Join(ds.basePath, entry.File))
	if err == nil && entry.Compressed {
		if ds.decoder == nil {
			err = fmt.Errorf("%w: compressed entry without decoder", ErrCacheCorrupted)
		} else {
			data, err = ds.decoder.DecodeAll(data, nil)
		}
	}
	if err != nil {
		log.Debug("dropping unreadable clip", "key", key, "error", err)
		ds.removeEntry(entry)
		ds.stats.Misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	ds.stats.Hits++
	ds.stats.LastAccess = entry.LastAccess
	return data, true
}

// Put writes value to disk, evicting the least recently accessed entries to
// stay under capacity.
func (ds *DiskStore) Put(key string, value []byte) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	data, compressed := value, false
	if ds.encoder != nil && len(value) > compressThreshold {
		if packed := ds.encoder.EncodeAll(value, nil); len(packed) < len(value) {
			data, compressed = packed, true
		}
	}

	diskSize := int64(len(data))
	if diskSize > ds.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := ds.index[key]; ok {
		ds.removeEntry(existing)
	}
	for ds.size+diskSize > ds.capacity && len(ds.index) > 0 {
		ds.evictOldest()
	}

	file := key + ".clip"
	if err := writeFileAtomic(filepath.Join(ds.basePath, file), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	ds.index[key] = &diskEntry{
		Key:          key,
		File:         file,
		Size:         diskSize,
		OriginalSize: int64(len(value)),
		Timestamp:    now,
		LastAccess:   now,
		Compressed:   compressed,
	}
	ds.size += diskSize
	return nil
}

// Delete removes key and its file.
func (ds *DiskStore) Delete(key string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if entry, ok := ds.index[key]; ok {
		ds.removeEntry(entry)
	}
	return nil
}

// Clear removes every clip file and writes an empty index.
func (ds *DiskStore) Clear() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	for _, entry := range ds.index {
		os.Remove(filepath.Join(ds.basePath, entry.File))
	}
	ds.index = make(map[string]*diskEntry)
	ds.size = 0
	return ds.saveIndex()
}

// Contains reports whether key is indexed.
func (ds *DiskStore) Contains(key string) bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	_, ok := ds.index[key]
	return ok
}

// Size returns the bytes used on disk.
func (ds *DiskStore) Size() int64 {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.size
}

// Stats returns a snapshot of the store metrics.
func (ds *DiskStore) Stats() Stats {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	stats := ds.stats
	stats.Size = ds.size
	stats.ItemCount = int64(len(ds.index))
	stats.computeHitRate()
	return stats
}

// RemoveOlderThan removes entries written before cutoff and returns how
// many were removed.
func (ds *DiskStore) RemoveOlderThan(cutoff time.Time) int {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	removed := 0
	for _, entry := range ds.index {
		if entry.Timestamp.Before(cutoff) {
			ds.removeEntry(entry)
			removed++
		}
	}
	return removed
}

// Close persists the index.
func (ds *DiskStore) Close() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.encoder != nil {
		ds.encoder.Close()
	}
	if ds.decoder != nil {
		ds.decoder.Close()
	}
	return ds.saveIndex()
}

// must be called with lock held
func (ds *DiskStore) removeEntry(entry *diskEntry) {
	os.Remove(filepath.Join(ds.basePath, entry.File))
	delete(ds.index, entry.Key)
	ds.size -= entry.Size
}

// must be called with lock held
func (ds *DiskStore) evictOldest() {
	entries := make([]*diskEntry, 0, len(ds.index))
	for _, entry := range ds.index {
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccess.Before(entries[j].LastAccess)
	})

	ds.removeEntry(entries[0])
	ds.stats.Evictions++
	ds.stats.LastEvict = time.Now()
}

func (ds *DiskStore) loadIndex() error {
	file, err := os.Open(filepath.Join(ds.basePath, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	return gob.NewDecoder(file).Decode(&ds.index)
}

func (ds *DiskStore) saveIndex() error {
	file, err := os.CreateTemp(ds.basePath, indexFile+".*.tmp")
	if err != nil {
		return err
	}
	tempPath := file.Name()

	err = gob.NewEncoder(file).Encode(ds.index)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return err
	}

	return os.Rename(tempPath, filepath.Join(ds.basePath, indexFile))
}

// writeFileAtomic writes to a temp file first, then renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, path)
}
