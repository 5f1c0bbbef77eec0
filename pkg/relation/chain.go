package relation

import "github.com/matzehuels/xrspace/pkg/pose"

// inlineSteps is how many steps a Chain holds before it spills to the heap.
// Real graphs are shallow: offset, origin, device, a couple of inverses.
const inlineSteps = 8

// Chain accumulates relation steps for a single resolution. The zero value
// is an empty chain ready to use. A Chain is meant to live on the stack of
// one call and is not safe for concurrent use.
type Chain struct {
	buf   [inlineSteps]Relation
	steps []Relation
}

func (c *Chain) push(r Relation) {
	if c.steps == nil {
		c.steps = c.buf[:0]
	}
	c.steps = append(c.steps, r)
}

// Push appends r as the next step.
func (c *Chain) Push(r Relation) { c.push(r) }

// PushInverted appends the inverse of r.
func (c *Chain) PushInverted(r Relation) { c.push(r.Invert()) }

// PushPose appends a fixed pose step, skipping it when p is the identity.
func (c *Chain) PushPose(p pose.Pose) {
	if p.IsIdentity() {
		return
	}
	c.push(FromPose(p))
}

// PushInvertedPose appends the inverse of a fixed pose, skipping identity.
func (c *Chain) PushInvertedPose(p pose.Pose) {
	if p.IsIdentity() {
		return
	}
	c.push(FromPose(p.Invert()))
}

// Len returns the number of steps pushed so far.
func (c *Chain) Len() int { return len(c.steps) }

// Steps returns the pushed steps. The slice aliases the chain's storage.
func (c *Chain) Steps() []Relation { return c.steps }

// Reset empties the chain, keeping its storage.
func (c *Chain) Reset() { c.steps = c.steps[:0] }

// Resolve composes every step into a single relation.
//
// An empty chain resolves to [Identity], fully valid: locating a space in
// itself is always known. A chain with any step that has neither position
// nor orientation valid resolves to the zero relation.
func (c *Chain) Resolve() Relation {
	if len(c.steps) == 0 {
		return Identity()
	}
	if c.hasStepWithNoPose() {
		return Relation{}
	}

	r := c.steps[0]
	for _, s := range c.steps[1:] {
		r = apply(r, s)
	}

	r.Pose.Orientation = r.Pose.Orientation.Normalize()
	return r
}

func (c *Chain) hasStepWithNoPose() bool {
	for _, s := range c.steps {
		if s.Flags&(PositionValid|OrientationValid) == 0 {
			return true
		}
	}
	return false
}
