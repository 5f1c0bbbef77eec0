package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Broadcaster fans events out to every subscribed sink.
// It is safe for concurrent use.
type Broadcaster struct {
	mu    sync.RWMutex
	sinks map[uuid.UUID]EventSink
}

// NewBroadcaster creates a broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{sinks: make(map[uuid.UUID]EventSink)}
}

// Subscribe adds sink and returns a function that removes it again.
// The returned function is idempotent.
func (b *Broadcaster) Subscribe(sink EventSink) (unsubscribe func()) {
	id := uuid.New()

	b.mu.Lock()
	b.sinks[id] = sink
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.sinks, id)
		b.mu.Unlock()
	}
}

// Len returns the number of subscribed sinks.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sinks)
}

// Push delivers ev to every subscriber. Delivery continues past failing
// sinks; their errors are joined into the result.
func (b *Broadcaster) Push(ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var errs []error
	for _, s := range b.sinks {
		if err := s.Push(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ EventSink = (*Broadcaster)(nil)
