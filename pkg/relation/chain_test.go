package relation

import (
	"math"
	"testing"

	"github.com/matzehuels/xrspace/pkg/pose"
)

const eps = 1e-5

func TestEmptyChainIsValidIdentity(t *testing.T) {
	var c Chain
	got := c.Resolve()
	if got.Flags != AllPoseBits {
		t.Errorf("Flags = %s, want %s", got.Flags, AllPoseBits)
	}
	if !got.Pose.IsIdentity() {
		t.Errorf("Pose = %+v, want identity", got.Pose)
	}
}

func TestPushPoseSkipsIdentity(t *testing.T) {
	var c Chain
	c.PushPose(pose.Identity())
	c.PushInvertedPose(pose.Identity())
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	c.PushPose(pose.Translation(1, 0, 0))
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestResolveComposesInOrder(t *testing.T) {
	// Body at x=1 in a frame that is yawed 90° and shifted up.
	var c Chain
	c.PushPose(pose.Translation(1, 0, 0))
	c.PushPose(pose.New(pose.Vec3{Y: 2}, pose.FromYaw(math.Pi/2)))

	got := c.Resolve()
	want := pose.Vec3{Y: 2, Z: -1}
	if !pose.ApproxEqual(got.Pose, pose.New(want, pose.FromYaw(math.Pi/2)), eps) {
		t.Errorf("Resolve = %s", got)
	}
	if got.Flags != AllPoseBits {
		t.Errorf("Flags = %s", got.Flags)
	}
}

func TestInverseCancels(t *testing.T) {
	p := pose.New(pose.Vec3{X: 1, Y: 2, Z: 3}, pose.FromAxisAngle(pose.Vec3{X: 1, Z: 1}, 0.5))
	var c Chain
	c.PushPose(p)
	c.PushInvertedPose(p)
	got := c.Resolve()
	if !pose.ApproxEqual(got.Pose, pose.Identity(), eps) {
		t.Errorf("p then p^-1 = %s, want identity", got)
	}
}

func TestFlagsAreANDed(t *testing.T) {
	untracked := Relation{
		Flags: OrientationValid | PositionValid,
		Pose:  pose.Translation(0, 1, 0),
	}
	var c Chain
	c.Push(untracked)
	c.PushPose(pose.Translation(1, 0, 0))
	got := c.Resolve()
	if got.Flags.Has(OrientationTracked) || got.Flags.Has(PositionTracked) {
		t.Errorf("tracked bits should be cleared, got %s", got.Flags)
	}
	if !got.Flags.Has(OrientationValid | PositionValid) {
		t.Errorf("valid bits should survive, got %s", got.Flags)
	}
}

func TestStepWithNoPoseZeroesResult(t *testing.T) {
	var c Chain
	c.PushPose(pose.Translation(1, 0, 0))
	c.Push(Relation{})
	got := c.Resolve()
	if got.Flags != 0 {
		t.Errorf("Flags = %s, want none", got.Flags)
	}
}

func TestOrientationOnlyIsUpgraded(t *testing.T) {
	threeDof := Relation{
		Flags: OrientationValid | OrientationTracked,
		Pose:  pose.Pose{Orientation: pose.FromYaw(0.3), Position: pose.Vec3{X: 99}},
	}
	var c Chain
	c.Push(threeDof)
	c.PushPose(pose.Translation(0, 1.7, 0))
	got := c.Resolve()
	if !got.Flags.Has(PositionValid) {
		t.Fatalf("orientation-only step should gain a position, got %s", got.Flags)
	}
	// The garbage position must not leak through.
	if !pose.ApproxEqual(got.Pose, pose.New(pose.Vec3{Y: 1.7}, pose.FromYaw(0.3)), eps) {
		t.Errorf("Pose = %s", got)
	}
}

func TestVelocityLeverArm(t *testing.T) {
	body := FromPose(pose.Translation(1, 0, 0))
	body.Flags |= LinearVelocityValid | AngularVelocityValid

	spin := Relation{
		Flags:           AllPoseBits | LinearVelocityValid | AngularVelocityValid,
		Pose:            pose.Identity(),
		AngularVelocity: pose.Vec3{Y: 1},
	}

	var c Chain
	c.Push(body)
	c.Push(spin)
	got := c.Resolve()

	// ω × r = (0,1,0) × (1,0,0) = (0,0,-1)
	want := pose.Vec3{Z: -1}
	if d := got.LinearVelocity.Sub(want).Len(); d > eps {
		t.Errorf("LinearVelocity = %+v, want %+v", got.LinearVelocity, want)
	}
	if got.AngularVelocity != (pose.Vec3{Y: 1}) {
		t.Errorf("AngularVelocity = %+v", got.AngularVelocity)
	}
}

func TestChainGrowsPastInlineBuffer(t *testing.T) {
	var c Chain
	for i := 0; i < inlineSteps*2; i++ {
		c.PushPose(pose.Translation(1, 0, 0))
	}
	got := c.Resolve()
	if d := got.Pose.Position.X - float32(inlineSteps*2); d > eps || d < -eps {
		t.Errorf("X = %v, want %d", got.Pose.Position.X, inlineSteps*2)
	}
}

func TestFlagsString(t *testing.T) {
	if got := AllPoseBits.String(); got != "OV|OT|PV|PT" {
		t.Errorf("String() = %q", got)
	}
	if got := Flags(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
}
