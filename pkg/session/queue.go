package session

import "sync"

// DefaultQueueSize is the capacity used by sessions that do not pick one.
const DefaultQueueSize = 64

// Queue is a bounded FIFO of events for one session.
// It is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	events []Event
	head   int
	size   int
}

// NewQueue creates a queue holding at most capacity events.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &Queue{events: make([]Event, capacity)}
}

// Push appends ev, or returns ErrQueueFull without blocking.
func (q *Queue) Push(ev Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == len(q.events) {
		return ErrQueueFull
	}
	q.events[(q.head+q.size)%len(q.events)] = ev
	q.size++
	return nil
}

// Poll removes and returns the oldest event.
func (q *Queue) Poll() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return Event{}, false
	}
	ev := q.events[q.head]
	q.events[q.head] = Event{}
	q.head = (q.head + 1) % len(q.events)
	q.size--
	return ev, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

var _ EventSink = (*Queue)(nil)
