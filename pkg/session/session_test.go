package session

import (
	"errors"
	"testing"

	"github.com/matzehuels/xrspace/pkg/device"
)

func refChange(k device.ReferenceSpace) Event {
	return Event{
		Type:      EventReferenceSpaceChangePending,
		RefChange: ReferenceSpaceChange{Space: k, Timestamp: 42},
	}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(2)
	if err := q.Push(refChange(device.ReferenceSpaceLocal)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := q.Push(refChange(device.ReferenceSpaceLocalFloor)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := q.Push(refChange(device.ReferenceSpaceStage)); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Push on full queue = %v, want ErrQueueFull", err)
	}

	ev, ok := q.Poll()
	if !ok || ev.RefChange.Space != device.ReferenceSpaceLocal {
		t.Errorf("first Poll = %+v, %v", ev, ok)
	}

	// Room again after a poll; wraps around the ring.
	if err := q.Push(refChange(device.ReferenceSpaceStage)); err != nil {
		t.Fatalf("Push after Poll: %v", err)
	}

	for _, want := range []device.ReferenceSpace{device.ReferenceSpaceLocalFloor, device.ReferenceSpaceStage} {
		ev, ok := q.Poll()
		if !ok || ev.RefChange.Space != want {
			t.Errorf("Poll = %+v, %v, want %v", ev, ok, want)
		}
	}
	if _, ok := q.Poll(); ok {
		t.Error("Poll on empty queue should report false")
	}
}

func TestBroadcasterFansOut(t *testing.T) {
	b := NewBroadcaster()
	q1, q2 := NewQueue(4), NewQueue(4)
	unsub1 := b.Subscribe(q1)
	b.Subscribe(q2)

	if err := b.Push(refChange(device.ReferenceSpaceLocal)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if q1.Len() != 1 || q2.Len() != 1 {
		t.Fatalf("queue lengths = %d, %d, want 1, 1", q1.Len(), q2.Len())
	}

	unsub1()
	unsub1()
	if b.Len() != 1 {
		t.Fatalf("Len() = %d after unsubscribe, want 1", b.Len())
	}
	if err := b.Push(refChange(device.ReferenceSpaceLocal)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if q1.Len() != 1 || q2.Len() != 2 {
		t.Errorf("queue lengths = %d, %d, want 1, 2", q1.Len(), q2.Len())
	}
}

func TestBroadcasterJoinsErrors(t *testing.T) {
	b := NewBroadcaster()
	full := NewQueue(1)
	_ = full.Push(refChange(device.ReferenceSpaceLocal))
	ok := NewQueue(1)
	b.Subscribe(full)
	b.Subscribe(ok)

	err := b.Push(refChange(device.ReferenceSpaceLocalFloor))
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("Push = %v, want ErrQueueFull", err)
	}
	if ok.Len() != 1 {
		t.Error("healthy sink should still receive the event")
	}
}

func TestEventTypeString(t *testing.T) {
	if got := EventReferenceSpaceChangePending.String(); got != "reference_space_change_pending" {
		t.Errorf("String() = %q", got)
	}
}
