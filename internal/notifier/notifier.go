// Package notifier fans run updates out to subscribers such as SSE streams.
package notifier

import "sync"

// Update describes a change of the active run. Subscribers treat it as a
// hint and re-query state for details.
type Update struct {
	RunID     string `json:"run_id"`
	Kind      string `json:"kind"`
	Status    string `json:"status,omitempty"`
	Processed int64  `json:"processed"`
	Total     int64  `json:"total"`
}

// Notifier broadcasts updates to all subscribed listeners. Each listener
// holds at most one pending update; a newer update replaces an unread one.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Update]struct{}
	closed    bool
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Update]struct{}),
	}
}

// Subscribe returns a channel of updates and a function that removes the
// subscription. The channel is closed by the cancel function or by Close.
func (n *Notifier) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 1)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { n.unsubscribe(ch) })
	}
}

func (n *Notifier) unsubscribe(ch chan Update) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; ok {
		delete(n.listeners, ch)
		close(ch)
	}
}

// Broadcast delivers u to every listener without blocking.
func (n *Notifier) Broadcast(u Update) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- u:
		default:
			// Drop the stale update so the listener sees the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
}

// Len returns the number of active listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Close closes every listener channel. Later subscriptions get a closed channel.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for ch := range n.listeners {
		delete(n.listeners, ch)
		close(ch)
	}
}
