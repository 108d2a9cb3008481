// Package queue prefetches word clips in priority order so playback rarely
// waits on synthesis.
package queue
