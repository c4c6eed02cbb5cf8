package trigger

import (
	"log/slog"
	"sync"
)

// Broadcast decorates a Publisher, fanning every published event out to
// in-process subscribers (the status server's websocket stream) while
// the inner publisher stays the durable record.
type Broadcast struct {
	inner Publisher

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroadcast wraps an inner publisher.
func NewBroadcast(inner Publisher) *Broadcast {
	return &Broadcast{inner: inner, subs: make(map[chan Event]struct{})}
}

// Publish forwards to the inner publisher and then to all subscribers.
// Slow subscribers are skipped, never blocked on; the marker write is
// the signal of record.
func (b *Broadcast) Publish(ev Event) error {
	err := b.inner.Publish(ev)

	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			slog.Debug("transition subscriber lagging, event skipped", "kind", ev.Kind)
		}
	}
	b.mu.Unlock()

	return err
}

// Flush forwards to the inner publisher when it supports retry.
func (b *Broadcast) Flush() error {
	if f, ok := b.inner.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Subscribe registers a buffered event channel.
func (b *Broadcast) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (b *Broadcast) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
