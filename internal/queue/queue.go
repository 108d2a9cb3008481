package queue

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ErrQueueClosed is returned when operations are attempted on a closed queue.
var ErrQueueClosed = errors.New("queue is closed")

// Priority orders prefetch work. Navigation targets outrank bulk loading.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

// ClipSource is the part of the clip cache the prefetcher drives.
type ClipSource interface {
	// Settled starts generating clip i if needed and returns a channel closed
	// once it is ready or failed.
	Settled(i int) (<-chan struct{}, bool)
}

// Stats tracks prefetch progress.
type Stats struct {
	TotalEnqueued     int64
	TotalCompleted    int64
	HighPriorityCount int64
	Pending           int
	InFlight          int
	LastComplete      time.Time
}

// Prefetcher warms the clip cache ahead of playback. Word indices wait in a
// priority heap; a fixed pool of workers pulls the best one, asks the cache
// for it and waits for it to settle before taking the next.
type Prefetcher struct {
	source  ClipSource
	workers int

	mu       sync.Mutex
	notEmpty *sync.Cond
	pq       priorityQueue
	queued   map[int]*queueItem
	round    int64
	inFlight int
	closed   bool
	stats    Stats

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewPrefetcher creates an idle prefetcher over source. Call Start to run it.
func NewPrefetcher(source ClipSource, workers int) *Prefetcher {
	if workers <= 0 {
		workers = 1
	}
	p := &Prefetcher{
		source:  source,
		workers: workers,
		queued:  make(map[int]*queueItem),
	}
	p.notEmpty = sync.NewCond(&p.mu)
	heap.Init(&p.pq)
	return p
}

// Start launches the workers. They run until ctx is done or Close is called.
func (p *Prefetcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)

	p.mu.Lock()
	p.cancel = cancel
	p.group = group
	p.mu.Unlock()

	// Wake blocked workers once the context ends.
	go func() {
		<-ctx.Done()
		p.mu.Lock()
		p.closed = true
		p.notEmpty.Broadcast()
		p.mu.Unlock()
	}()

	for w := 0; w < p.workers; w++ {
		group.Go(func() error {
			return p.work(ctx)
		})
	}
}

func (p *Prefetcher) work(ctx context.Context) error {
	for {
		i, err := p.next()
		if err != nil {
			return nil
		}

		done, ok := p.source.Settled(i)
		if ok {
			select {
			case <-done:
			case <-ctx.Done():
				return nil
			}
		}

		p.mu.Lock()
		p.inFlight--
		p.stats.TotalCompleted++
		p.stats.LastComplete = time.Now()
		p.mu.Unlock()
	}
}

// next blocks until an index is queued or the prefetcher closes.
func (p *Prefetcher) next() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.pq.Len() == 0 && !p.closed {
		p.notEmpty.Wait()
	}
	if p.closed {
		return 0, ErrQueueClosed
	}

	item := heap.Pop(&p.pq).(*queueItem)
	delete(p.queued, item.word)
	p.inFlight++
	return item.word, nil
}

// EnqueueRange queues words lo..hi in reading order at normal priority.
// Words already queued keep their place.
func (p *Prefetcher) EnqueueRange(lo, hi int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrQueueClosed
	}
	for i := lo; i <= hi; i++ {
		p.pushLocked(i, PriorityNormal, 0)
	}
	p.notEmpty.Broadcast()
	return nil
}

// Boost moves words from..from+n-1 to the front of the queue, nearest first.
// Later boosts outrank earlier ones.
func (p *Prefetcher) Boost(from, n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrQueueClosed
	}
	p.round++
	for i := from; i < from+n; i++ {
		if i < 0 {
			continue
		}
		p.pushLocked(i, PriorityHigh, p.round)
	}
	p.notEmpty.Broadcast()
	return nil
}

// must be called with lock held
func (p *Prefetcher) pushLocked(word int, priority Priority, round int64) {
	if item, ok := p.queued[word]; ok {
		if priority > item.priority || (priority == item.priority && round > item.round) {
			item.priority = priority
			item.round = round
			heap.Fix(&p.pq, item.index)
		}
		return
	}

	item := &queueItem{word: word, priority: priority, round: round}
	heap.Push(&p.pq, item)
	p.queued[word] = item
	p.stats.TotalEnqueued++
	if priority == PriorityHigh {
		p.stats.HighPriorityCount++
	}
}

// Clear drops every queued word. Clips already requested keep generating.
func (p *Prefetcher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pq = priorityQueue{}
	heap.Init(&p.pq)
	p.queued = make(map[int]*queueItem)
}

// Size returns the number of queued words.
func (p *Prefetcher) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pq.Len()
}

// GetStats returns current queue statistics.
func (p *Prefetcher) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := p.stats
	stats.Pending = p.pq.Len()
	stats.InFlight = p.inFlight
	return stats
}

// Close stops the workers and waits for them to exit.
func (p *Prefetcher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.notEmpty.Broadcast()
	cancel, group := p.cancel, p.group
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	if err := group.Wait(); err != nil {
		log.Debug("prefetch workers exited", "error", err)
		return err
	}
	return nil
}

type queueItem struct {
	word     int
	priority Priority
	round    int64
	index    int // Index in the heap
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

// Less orders by priority, then the newest boost, then reading order.
func (pq priorityQueue) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	if a.round != b.round {
		return a.round > b.round
	}
	return a.word < b.word
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // Avoid memory leak
	item.index = -1 // For safety
	*pq = old[0 : n-1]
	return item
}
