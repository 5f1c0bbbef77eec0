// Package session carries events from the space graph to the sessions that
// consume it.
//
// The space graph does not know how many sessions exist. It pushes events
// into a single [EventSink], normally a [Broadcaster], which fans them out
// to one [Queue] per session. Sessions drain their queue at their own pace.
//
// # Usage
//
//	b := session.NewBroadcaster()
//	q := session.NewQueue(session.DefaultQueueSize)
//	unsubscribe := b.Subscribe(q)
//	defer unsubscribe()
//
//	overseer := space.New(space.WithBroadcast(b))
//	// ... after a recenter:
//	for {
//	    ev, ok := q.Poll()
//	    if !ok {
//	        break
//	    }
//	    // handle ev.RefChange
//	}
package session

import (
	"errors"
	"fmt"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/pose"
)

// Sentinel errors for event delivery.
var (
	// ErrQueueFull is returned by [Queue.Push] when the queue is at capacity.
	// The event is dropped.
	ErrQueueFull = errors.New("event queue full")
)

// EventType discriminates the payload of an [Event].
type EventType int

const (
	// EventReferenceSpaceChangePending announces that a reference space's
	// origin is about to move, for example after a recenter.
	EventReferenceSpaceChangePending EventType = iota + 1
)

// String returns the event type's name.
func (t EventType) String() string {
	switch t {
	case EventReferenceSpaceChangePending:
		return "reference_space_change_pending"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// ReferenceSpaceChange is the payload of EventReferenceSpaceChangePending.
type ReferenceSpaceChange struct {
	Space device.ReferenceSpace

	// Timestamp is the monotonic time of the change, in nanoseconds.
	Timestamp int64

	// PoseValid reports whether PoseInPreviousSpace is known.
	PoseValid bool

	// PoseInPreviousSpace is the new origin expressed in the old one.
	PoseInPreviousSpace pose.Pose
}

// Event is a session event.
type Event struct {
	Type      EventType
	RefChange ReferenceSpaceChange
}

// EventSink accepts events. Implementations must be safe for concurrent use
// and must not block for long: sinks are called with space graph locks held.
type EventSink interface {
	Push(ev Event) error
}

// SinkFunc adapts a function to an EventSink.
type SinkFunc func(ev Event) error

// Push implements EventSink.
func (f SinkFunc) Push(ev Event) error { return f(ev) }

// Discard is an EventSink that drops everything.
var Discard EventSink = SinkFunc(func(Event) error { return nil })
