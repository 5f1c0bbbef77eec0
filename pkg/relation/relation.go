// Package relation defines the 6-DoF space relation (pose, velocities and
// validity flags) and the relation chain used to compose many relations into
// one.
//
// # Flags
//
// Tracking quality is data, not an error. Every [Relation] carries [Flags]
// saying which of its fields are valid and whether they are actively
// tracked. Composition ANDs the flags of every step, so a single lost device
// anywhere in a chain clears the corresponding bits on the result.
//
// # Chains
//
// A [Chain] is an ordered list of steps. Step i is expressed in the frame of
// step i+1; resolving the chain folds them left to right into a single
// relation of the first step's frame in the last step's parent frame.
//
//	var c relation.Chain
//	c.PushPose(targetOffset)
//	c.Push(deviceRelation)
//	c.PushInvertedPose(baseOffset)
//	rel := c.Resolve()
package relation

import (
	"fmt"
	"strings"

	"github.com/matzehuels/xrspace/pkg/pose"
)

// Flags is a bitset describing which parts of a [Relation] are meaningful.
type Flags uint32

const (
	OrientationValid Flags = 1 << iota
	PositionValid
	LinearVelocityValid
	AngularVelocityValid
	OrientationTracked
	PositionTracked
)

// AllPoseBits is the set of flags carried by a fixed, fully known pose.
const AllPoseBits = OrientationValid | OrientationTracked | PositionValid | PositionTracked

// Has reports whether every bit in want is set.
func (f Flags) Has(want Flags) bool { return f&want == want }

// String returns a compact, human readable form such as "OV|OT|PV|PT".
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, b := range []struct {
		bit  Flags
		name string
	}{
		{OrientationValid, "OV"},
		{OrientationTracked, "OT"},
		{PositionValid, "PV"},
		{PositionTracked, "PT"},
		{LinearVelocityValid, "LV"},
		{AngularVelocityValid, "AV"},
	} {
		if f&b.bit != 0 {
			parts = append(parts, b.name)
		}
	}
	return strings.Join(parts, "|")
}

// Relation is a pose of one space in another, plus velocities and flags.
type Relation struct {
	Flags           Flags
	Pose            pose.Pose
	LinearVelocity  pose.Vec3
	AngularVelocity pose.Vec3
}

// Identity returns the fully valid, fully tracked identity relation.
func Identity() Relation {
	return Relation{Flags: AllPoseBits, Pose: pose.Identity()}
}

// FromPose wraps a fixed pose as a fully valid, fully tracked relation.
func FromPose(p pose.Pose) Relation {
	return Relation{Flags: AllPoseBits, Pose: p}
}

// Invert returns the relation of the parent in the frame of the child.
// Flags are kept; velocities are negated.
func (r Relation) Invert() Relation {
	return Relation{
		Flags:           r.Flags,
		Pose:            r.Pose.Invert(),
		LinearVelocity:  r.LinearVelocity.Neg(),
		AngularVelocity: r.AngularVelocity.Neg(),
	}
}

// String implements fmt.Stringer for logs and CLI output.
func (r Relation) String() string {
	p, q := r.Pose.Position, r.Pose.Orientation
	return fmt.Sprintf("[%s] pos=(%.3f %.3f %.3f) ori=(%.3f %.3f %.3f %.3f)",
		r.Flags, p.X, p.Y, p.Z, q.X, q.Y, q.Z, q.W)
}

// apply composes body (a) into base (b): the result is a expressed in b's
// parent frame.
func apply(a, b Relation) Relation {
	af, bf := a.Flags, b.Flags

	// Invalid components are treated as identity so the transform is
	// defined; the result flags below decide what survives.
	body := validPose(af, a.Pose)
	base := validPose(bf, b.Pose)

	// Orientation-only (3dof) relations are upgraded to also carry a
	// position; validPose already zeroed it.
	if af&OrientationValid != 0 {
		af |= PositionValid
	}
	if bf&OrientationValid != 0 {
		bf |= PositionValid
	}

	nf := af & bf

	out := Relation{
		Flags: nf,
		Pose:  pose.Transform(base, body),
	}

	if nf&LinearVelocityValid != 0 {
		out.LinearVelocity = base.Orientation.Rotate(a.LinearVelocity).Add(b.LinearVelocity)
	}

	if nf&AngularVelocityValid != 0 {
		out.AngularVelocity = base.Orientation.RotateDerivative(a.AngularVelocity).Add(b.AngularVelocity)

		// Lever arm: angular velocity of the base produces linear
		// velocity at the body's offset.
		rotated := base.Orientation.Rotate(body.Position)
		out.LinearVelocity = out.LinearVelocity.Add(b.AngularVelocity.Cross(rotated))
	}

	return out
}

func validPose(f Flags, p pose.Pose) pose.Pose {
	out := pose.Identity()
	if f&OrientationValid != 0 {
		out.Orientation = p.Orientation
	}
	if f&PositionValid != 0 {
		out.Position = p.Position
	}
	return out
}
