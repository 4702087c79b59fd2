// Package progress implements the single-writer, multi-reader progress
// channel that decouples the orchestrator's pace from observer consumption.
package progress

import (
	"sync"

	"github.com/wablabs/vectorbench/pkg/benchmark"
)

// DefaultBufferSize is the per-subscriber snapshot buffer capacity.
const DefaultBufferSize = 64

// Broadcaster fans progress snapshots out to any number of independent
// subscribers. Publish never blocks: each subscriber has a private bounded
// buffer and the oldest snapshot is dropped when a slow subscriber falls
// behind. After a terminal snapshot has been delivered, all subscriber
// streams are closed and late subscribers receive only the terminal
// snapshot followed by closure.
type Broadcaster struct {
	mu       sync.Mutex
	subs     map[int]chan benchmark.ProgressSnapshot
	nextID   int
	bufSize  int
	closed   bool
	terminal *benchmark.ProgressSnapshot
}

// NewBroadcaster creates a broadcaster with the given per-subscriber buffer
// size. A size of 0 uses DefaultBufferSize.
func NewBroadcaster(bufSize int) *Broadcaster {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	return &Broadcaster{
		subs:    make(map[int]chan benchmark.ProgressSnapshot, 4),
		bufSize: bufSize,
	}
}

// Subscribe returns a live, ordered stream of snapshots from this moment
// onward, plus a cancel function that must be called when the subscriber is
// done (safe to call after the stream closed). Subscribers never see
// snapshots published before they joined.
func (b *Broadcaster) Subscribe() (<-chan benchmark.ProgressSnapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan benchmark.ProgressSnapshot, b.bufSize)

	if b.closed {
		if b.terminal != nil {
			ch <- *b.terminal
		}

		close(ch)

		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers a snapshot to all current subscribers without blocking.
// Publishing a terminal snapshot closes every subscriber stream and marks
// the broadcaster closed. Publishing after close is a no-op.
func (b *Broadcaster) Publish(snap benchmark.ProgressSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		send(ch, snap)
	}

	if snap.Status.Terminal() {
		b.terminal = &snap
		b.closed = true

		for id, ch := range b.subs {
			delete(b.subs, id)
			close(ch)
		}
	}
}

// Closed reports whether a terminal snapshot has been published.
func (b *Broadcaster) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.closed
}

// send performs a non-blocking buffered send with drop-oldest semantics.
func send(ch chan benchmark.ProgressSnapshot, snap benchmark.ProgressSnapshot) {
	select {
	case ch <- snap:
		return
	default:
	}

	// Buffer full: evict the oldest snapshot and retry once. The second
	// send can only fail if the subscriber drained concurrently, in which
	// case the retry below succeeds or the snapshot is dropped as newest.
	select {
	case <-ch:
	default:
	}

	select {
	case ch <- snap:
	default:
	}
}
