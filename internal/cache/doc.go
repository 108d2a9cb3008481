// Package cache holds the per-word clip cache and the persistent store
// behind it. ClipCache tracks the lifecycle of one clip per loaded word and
// bounds concurrent generation. The store layers an LRU in memory (L1) over
// a zstd-compressed directory (L2) so clips survive document reloads and
// restarts.
package cache
