// Package stream provides the push-based snapshot streams used by the notes store.
//
// A stream is a receive-only channel handed to one observer. The observer detaches by
// cancelling the context it passed in; the channel is closed afterwards. Streams always
// carry whole snapshots, and a slow observer only ever skips intermediate snapshots: it
// never receives an older snapshot after a newer one.
package stream

import "sync"

// Notifier fans change signals out to subscribers. Each subscriber owns a
// one-slot channel, so a burst of Notify calls collapses into a single pending signal.
type Notifier struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[uint64]chan struct{})}
}

// Subscribe registers a subscriber. The returned cancel func is idempotent.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = ch
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Notify signals every subscriber without blocking.
func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Count returns the number of live subscribers.
func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
