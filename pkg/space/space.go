package space

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/observability"
	"github.com/matzehuels/xrspace/pkg/pose"
)

// Kind classifies a space node.
type Kind int

const (
	// KindRoot is the single root of an Overseer's graph. It has no parent.
	KindRoot Kind = iota
	// KindNull is an offset space whose offset is exactly the identity. It
	// resolves like an offset space but adds no step to a relation chain.
	KindNull
	// KindOffset is a fixed rigid offset from its parent.
	KindOffset
	// KindPose follows a live device input, re-sampled on every resolution.
	KindPose
)

// String returns the kind's short name.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindNull:
		return "null"
	case KindOffset:
		return "offset"
	case KindPose:
		return "pose"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Space is one coordinate frame in the graph.
//
// A Space is reference counted. Every creator returns it holding one
// reference owned by the caller; [Space.Retain] adds one and [Space.Release]
// drops one. When the count reaches zero the space is destroyed and its
// reference on the parent is dropped, which may cascade up the tree.
//
// The parent edge, device and input never change after construction. The
// offset of a Null/Offset space (and the Null/Offset distinction itself) may
// be rewritten by the owning Overseer under its write lock, for example by
// [Overseer.RecenterLocalSpaces].
type Space struct {
	id     uuid.UUID
	owner  *Overseer
	parent *Space
	refs   atomic.Int32

	// Guarded by owner.mu for Null and Offset spaces.
	kind   Kind
	offset pose.Pose

	dev   device.Device
	input device.InputName
}

// newSpace builds a space with one reference. It adopts one reference on
// parent that the caller must already hold on the new space's behalf.
func (o *Overseer) newSpace(kind Kind, parent *Space) *Space {
	if kind != KindRoot && parent == nil {
		panic("space: non-root space without parent")
	}
	if kind == KindRoot && parent != nil {
		panic("space: root space given a parent")
	}

	sp := &Space{
		id:     uuid.New(),
		owner:  o,
		parent: parent,
		kind:   kind,
		offset: pose.Identity(),
	}
	sp.refs.Store(1)

	observability.Graph().OnSpaceCreated(kind.String())
	return sp
}

// ID returns the space's diagnostic identity.
func (s *Space) ID() uuid.UUID { return s.id }

// Parent returns the parent space, or nil for the root. The returned space
// is borrowed: retain it to keep it beyond the lifetime of s.
func (s *Space) Parent() *Space { return s.parent }

// Kind returns the current kind. Null and Offset may swap under a recenter.
func (s *Space) Kind() Kind {
	s.owner.mu.RLock()
	defer s.owner.mu.RUnlock()
	return s.kind
}

// Offset returns the stored offset of a Null or Offset space, and the
// identity for every other kind.
func (s *Space) Offset() pose.Pose {
	s.owner.mu.RLock()
	defer s.owner.mu.RUnlock()
	return s.offsetLocked()
}

func (s *Space) offsetLocked() pose.Pose {
	if s.kind == KindOffset {
		return s.offset
	}
	return pose.Identity()
}

// Device returns the followed device of a Pose space, or nil.
func (s *Space) Device() device.Device { return s.dev }

// Input returns the followed input of a Pose space, or InputNone.
func (s *Space) Input() device.InputName { return s.input }

// Refs returns the current reference count. Only meaningful for tests and
// diagnostics: it may change as soon as it is read.
func (s *Space) Refs() int32 { return s.refs.Load() }

// Destroyed reports whether the last reference has been released.
func (s *Space) Destroyed() bool { return s.refs.Load() <= 0 }

// Retain adds a reference and returns s for chaining.
func (s *Space) Retain() *Space {
	if s.refs.Add(1) <= 1 {
		panic(fmt.Sprintf("space: retain of destroyed %s space %s", s.kind, s.id))
	}
	return s
}

// Release drops a reference. Dropping the last one destroys the space and
// releases its parent edge, iteratively up the tree.
func (s *Space) Release() {
	for sp := s; sp != nil; {
		n := sp.refs.Add(-1)
		if n > 0 {
			return
		}
		if n < 0 {
			panic(fmt.Sprintf("space: release of destroyed %s space %s", sp.kind, sp.id))
		}

		observability.Graph().OnSpaceDestroyed(sp.kind.String())

		parent := sp.parent
		sp.parent = nil
		sp = parent
	}
}

// setOffsetLocked rewrites the offset of a Null or Offset space, demoting it
// to Null for an exact identity. Caller holds the owner's write lock.
func (s *Space) setOffsetLocked(offset pose.Pose) {
	switch s.kind {
	case KindNull, KindOffset:
	default:
		panic(fmt.Sprintf("space: cannot set offset of %s space", s.kind))
	}

	if offset.IsIdentity() {
		s.kind = KindNull
		s.offset = pose.Identity()
	} else {
		s.kind = KindOffset
		s.offset = offset
	}
}

// String implements fmt.Stringer with a short form of the ID.
func (s *Space) String() string {
	return "space(" + s.id.String()[:8] + ")"
}
