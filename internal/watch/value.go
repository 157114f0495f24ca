// Package watch provides a small observable value cell with replay-latest
// semantics: every subscriber immediately receives the current value (if one
// was ever set) and then every subsequent update.
package watch

import (
	"context"
	"sync"
)

// Value holds a single value of type T and broadcasts updates to subscribers.
//
// Updates never block the publisher: each subscriber has a buffer of one and
// a stale pending value is replaced by the newer one, so a slow consumer
// observes the latest state rather than every intermediate one.
type Value[T any] struct {
	mu   sync.Mutex
	cur  T
	set  bool
	subs map[chan T]struct{}
}

func NewValue[T any]() *Value[T] {
	return &Value[T]{subs: make(map[chan T]struct{})}
}

// Get returns the current value and whether one has ever been set.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur, v.set
}

// Set stores val as the current value and notifies all subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cur = val
	v.set = true
	for ch := range v.subs {
		send(ch, val)
	}
}

// Subscribe registers a new subscriber. The returned channel replays the
// current value first (if set) and is closed when ctx is done.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	v.mu.Lock()
	v.subs[ch] = struct{}{}
	if v.set {
		send(ch, v.cur)
	}
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.mu.Lock()
		delete(v.subs, ch)
		v.mu.Unlock()
		close(ch)
	}()

	return ch
}

// send delivers val on ch, replacing a pending undelivered value if needed.
func send[T any](ch chan T, val T) {
	for {
		select {
		case ch <- val:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
