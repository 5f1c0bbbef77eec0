package space

import (
	"fmt"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/relation"
)

// inlineDepth is how many ancestors a path holds before spilling to the heap.
const inlineDepth = 8

// step is the part of a space a relation chain needs, copied out under the
// read lock so the chain can be built, and devices sampled, without it.
type step struct {
	kind   Kind
	offset pose.Pose
	dev    device.Device
	input  device.InputName
}

// path is the ordered list of non-root steps from a space up to the root.
type path struct {
	buf   [inlineDepth]step
	steps []step
}

// collectLocked walks from sp to the root, recording every non-root space.
// Caller holds the owner's lock (read or write).
func (p *path) collectLocked(sp *Space) {
	p.steps = p.buf[:0]
	for ; sp != nil; sp = sp.parent {
		switch sp.kind {
		case KindRoot:
			return
		case KindNull, KindOffset, KindPose:
			p.steps = append(p.steps, step{
				kind:   sp.kind,
				offset: sp.offset,
				dev:    sp.dev,
				input:  sp.input,
			})
		default:
			panic(fmt.Sprintf("space: unknown kind %d", sp.kind))
		}
	}
	panic("space: walked off the graph without reaching the root")
}

// pushTarget pushes the path leaf first: each step is expressed in the frame
// of the next, ending in the root frame.
func (p *path) pushTarget(c *relation.Chain, atNS int64) {
	for i := range p.steps {
		s := &p.steps[i]
		switch s.kind {
		case KindNull:
			// No-op.
		case KindOffset:
			c.PushPose(s.offset)
		case KindPose:
			c.Push(s.dev.TrackedPose(s.input, atNS))
		default:
			panic(fmt.Sprintf("space: unexpected %s step in path", s.kind))
		}
	}
}

// pushBaseInverted pushes the inverse of each step, root first, so the chain
// walks back down from the root frame into the leaf's frame.
func (p *path) pushBaseInverted(c *relation.Chain, atNS int64) {
	for i := len(p.steps) - 1; i >= 0; i-- {
		s := &p.steps[i]
		switch s.kind {
		case KindNull:
			// No-op.
		case KindOffset:
			c.PushInvertedPose(s.offset)
		case KindPose:
			c.PushInverted(s.dev.TrackedPose(s.input, atNS))
		default:
			panic(fmt.Sprintf("space: unexpected %s step in path", s.kind))
		}
	}
}

// buildChain pushes the steps relating target to base. Equal endpoints push
// nothing: every step would cancel, and skipping them keeps the result an
// exact, fully valid identity even for spaces that are not tracking.
func buildChain(c *relation.Chain, base, target *path, same bool, atNS int64) {
	if same {
		return
	}
	target.pushTarget(c, atNS)
	base.pushBaseInverted(c, atNS)
}
