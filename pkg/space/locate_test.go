package space

import (
	"math"
	"testing"
	"time"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/device/sim"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/relation"
)

const eps = 1e-4

// testGraph is a small graph with every kind of space:
//
//	root
//	├── origin (offset, hmd and ctrl bound here)
//	│   ├── view (pose: hmd head)
//	│   └── grip (pose: ctrl grip)
//	├── local (offset)
//	│   └── nested (offset)
//	└── null
type testGraph struct {
	o      *Overseer
	hmd    *sim.Device
	ctrl   *sim.Device
	origin *Space
	view   *Space
	grip   *Space
	local  *Space
	nested *Space
	null   *Space
}

func newTestGraph(t *testing.T) *testGraph {
	t.Helper()
	g := &testGraph{o: newTestOverseer(t)}
	o := g.o

	g.hmd = sim.New(1, "hmd",
		sim.WithInput(device.InputHeadPose, sim.Orbit(1, 1.7, 4*time.Second)))
	g.ctrl = sim.New(2, "ctrl",
		sim.WithInput(device.InputGripPose, sim.StaticPose(pose.New(
			pose.Vec3{X: 0.3, Y: 1.1, Z: -0.4},
			pose.FromAxisAngle(pose.Vec3{X: 1, Y: 1}, 0.7)))))

	g.origin = o.CreateOffsetSpace(o.Root(), pose.New(pose.Vec3{X: 2, Z: -1}, pose.FromYaw(0.5)))
	o.BindDeviceToSpace(g.hmd, g.origin)
	o.BindDeviceToSpace(g.ctrl, g.origin)

	var err error
	if g.view, err = o.CreatePoseSpace(g.hmd, device.InputHeadPose); err != nil {
		t.Fatal(err)
	}
	if g.grip, err = o.CreatePoseSpace(g.ctrl, device.InputGripPose); err != nil {
		t.Fatal(err)
	}

	g.local = o.CreateOffsetSpace(o.Root(), pose.New(pose.Vec3{Y: 1.6, Z: 0.5}, pose.FromYaw(-1.2)))
	g.nested = o.CreateOffsetSpace(g.local, pose.New(pose.Vec3{X: -0.5}, pose.FromAxisAngle(pose.Vec3{Z: 1}, 0.3)))
	g.null = o.CreateNullSpace(o.Root())
	return g
}

func (g *testGraph) all() map[string]*Space {
	return map[string]*Space{
		"root":   g.o.Root(),
		"origin": g.origin,
		"view":   g.view,
		"grip":   g.grip,
		"local":  g.local,
		"nested": g.nested,
		"null":   g.null,
	}
}

func TestLocateIdentityLaw(t *testing.T) {
	g := newTestGraph(t)
	g.hmd.SetInput(device.InputHeadPose, sim.Lost())

	for name, sp := range g.all() {
		for _, at := range []int64{0, 1, int64(time.Second), math.MaxInt64} {
			rel := g.o.LocateSpace(sp, pose.Identity(), at, sp, pose.Identity())
			if rel != relation.Identity() {
				t.Errorf("%s at %d: got %v, want exact identity", name, at, rel)
			}
		}
	}
}

func TestLocateInverseLaw(t *testing.T) {
	g := newTestGraph(t)
	spaces := g.all()

	for an, a := range spaces {
		for bn, b := range spaces {
			for _, at := range []int64{0, int64(700 * time.Millisecond), int64(3 * time.Second)} {
				ab := g.o.LocateSpace(a, pose.Identity(), at, b, pose.Identity())
				ba := g.o.LocateSpace(b, pose.Identity(), at, a, pose.Identity())
				if !ab.Flags.Has(relation.PositionValid|relation.OrientationValid) ||
					!ba.Flags.Has(relation.PositionValid|relation.OrientationValid) {
					t.Fatalf("%s/%s: not valid", an, bn)
				}
				got := pose.Transform(ba.Pose, ab.Pose)
				if !pose.ApproxEqual(got, pose.Identity(), eps) {
					t.Errorf("%s/%s at %d: composed = %+v, want identity", an, bn, at, got)
				}
			}
		}
	}
}

func TestLocateOffsetComposition(t *testing.T) {
	g := newTestGraph(t)
	root := g.o.Root()

	p := pose.New(pose.Vec3{X: 1, Y: 2, Z: 3}, pose.FromYaw(0.4))
	q := pose.New(pose.Vec3{X: -2, Z: 0.5}, pose.FromAxisAngle(pose.Vec3{X: 1}, 1.1))

	rel := g.o.LocateSpace(root, p, 0, root, q)
	want := pose.Transform(p.Invert(), q)

	if !pose.ApproxEqual(rel.Pose, want, eps) {
		t.Errorf("got %+v, want %+v", rel.Pose, want)
	}
	if rel.Flags != relation.AllPoseBits {
		t.Errorf("flags = %s, want %s", rel.Flags, relation.AllPoseBits)
	}
}

func TestLocateConcreteScenario(t *testing.T) {
	o := newTestOverseer(t)
	l := o.CreateOffsetSpace(o.Root(), pose.Translation(1, 0, 0))
	m := o.CreateOffsetSpace(o.Root(), pose.Translation(0, 2, 0))
	defer l.Release()
	defer m.Release()

	for _, at := range []int64{0, 12345, int64(time.Hour)} {
		rel := o.LocateSpace(l, pose.Identity(), at, m, pose.Identity())

		want := pose.Translation(-1, 2, 0)
		if !pose.ApproxEqual(rel.Pose, want, eps) {
			t.Errorf("at %d: got %+v, want %+v", at, rel.Pose, want)
		}
		if rel.Flags != relation.AllPoseBits {
			t.Errorf("at %d: flags = %s, want %s", at, rel.Flags, relation.AllPoseBits)
		}
	}
}

func TestNullOffsetEquivalence(t *testing.T) {
	o := newTestOverseer(t)
	root := o.Root()
	x := pose.New(pose.Vec3{X: 0.25, Y: -1, Z: 3}, pose.FromAxisAngle(pose.Vec3{X: 1, Y: 2, Z: 3}, 0.9))

	offset := o.CreateOffsetSpace(root, x)
	viaIdentity := o.CreateOffsetSpace(root, pose.Identity())
	null := o.CreateNullSpace(root)

	if viaIdentity.Kind() != KindNull {
		t.Fatalf("identity offset produced %s", viaIdentity.Kind())
	}

	a := o.LocateSpace(root, pose.Identity(), 0, offset, pose.Identity())
	b := o.LocateSpace(root, pose.Identity(), 0, viaIdentity, x)
	c := o.LocateSpace(root, pose.Identity(), 0, null, x)

	if a != b || a != c {
		t.Errorf("results differ:\n offset: %v\n  ident: %v\n   null: %v", a, b, c)
	}
}

func TestLocateTrackingLoss(t *testing.T) {
	g := newTestGraph(t)
	root := g.o.Root()

	g.hmd.SetInput(device.InputHeadPose, sim.Lost())

	rel := g.o.LocateSpace(root, pose.Identity(), 0, g.view, pose.Identity())
	if rel.Flags != 0 {
		t.Errorf("lost view: flags = %s, want none", rel.Flags)
	}

	// Other spaces are unaffected.
	rel = g.o.LocateSpace(root, pose.Identity(), 0, g.grip, pose.Identity())
	if !rel.Flags.Has(relation.AllPoseBits) {
		t.Errorf("grip: flags = %s", rel.Flags)
	}

	// Orientation-only tracking keeps orientation and gains a position.
	g.hmd.SetInput(device.InputHeadPose, sim.Static(relation.Relation{
		Flags: relation.OrientationValid | relation.OrientationTracked,
		Pose:  pose.New(pose.Vec3{}, pose.FromYaw(1)),
	}))
	rel = g.o.LocateSpace(root, pose.Identity(), 0, g.view, pose.Identity())
	if !rel.Flags.Has(relation.OrientationValid | relation.PositionValid) {
		t.Errorf("3dof view: flags = %s", rel.Flags)
	}
	if rel.Flags.Has(relation.PositionTracked) {
		t.Errorf("3dof view: position reported tracked")
	}
}

func TestLocateSpacesMatchesLocateSpace(t *testing.T) {
	g := newTestGraph(t)
	spaces := g.all()
	names := []string{"root", "origin", "view", "grip", "local", "nested", "null"}

	targets := make([]*Space, len(names))
	offsets := make([]pose.Pose, len(names))
	for i, n := range names {
		targets[i] = spaces[n]
		offsets[i] = pose.New(pose.Vec3{X: float32(i) * 0.1}, pose.FromYaw(float64(i)*0.2))
	}
	offsets[0] = pose.Identity()

	baseOffset := pose.Translation(0, -0.5, 0.25)
	const at = int64(1500 * time.Millisecond)

	for _, bn := range names {
		base := spaces[bn]

		got := g.o.LocateSpaces(base, baseOffset, at, targets, offsets)
		for i, target := range targets {
			want := g.o.LocateSpace(base, baseOffset, at, target, offsets[i])
			if got[i] != want {
				t.Errorf("base %s target %s:\n got %v\nwant %v", bn, names[i], got[i], want)
			}
		}

		got = g.o.LocateSpaces(base, pose.Identity(), at, targets, nil)
		for i, target := range targets {
			want := g.o.LocateSpace(base, pose.Identity(), at, target, pose.Identity())
			if got[i] != want {
				t.Errorf("base %s target %s (nil offsets):\n got %v\nwant %v", bn, names[i], got[i], want)
			}
		}
	}
}

func TestLocateSpacesSamplesBasePerTarget(t *testing.T) {
	g := newTestGraph(t)
	targets := []*Space{g.local, g.nested, g.null, g.grip, g.view}

	hmdBefore, ctrlBefore := g.hmd.Queries(), g.ctrl.Queries()
	g.o.LocateSpaces(g.view, pose.Identity(), 0, targets, nil)

	// view itself short-circuits to identity; every other target crosses
	// the head pose once.
	if got := g.hmd.Queries() - hmdBefore; got != 4 {
		t.Errorf("head sampled %d times, want 4", got)
	}
	if got := g.ctrl.Queries() - ctrlBefore; got != 1 {
		t.Errorf("grip sampled %d times, want 1", got)
	}
}

func TestLocateSpacesOffsetsMismatchPanics(t *testing.T) {
	g := newTestGraph(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	g.o.LocateSpaces(g.local, pose.Identity(), 0, []*Space{g.null}, []pose.Pose{{}, {}})
}

func TestLocateDevice(t *testing.T) {
	g := newTestGraph(t)
	root := g.o.Root()

	rel, err := g.o.LocateDevice(root, pose.Identity(), 0, g.hmd)
	if err != nil {
		t.Fatalf("LocateDevice: %v", err)
	}
	want := g.o.LocateSpace(root, pose.Identity(), 0, g.origin, pose.Identity())
	if rel != want {
		t.Errorf("got %v, want origin %v", rel, want)
	}

	_, err = g.o.LocateDevice(root, pose.Identity(), 0, sim.New(99, "stranger"))
	if !errors.Is(err, errors.ErrCodeUnknownDevice) {
		t.Errorf("unknown device: err = %v", err)
	}
}

func TestLocateVelocities(t *testing.T) {
	o := newTestOverseer(t)
	hmd := sim.New(1, "hmd", sim.WithInput(device.InputHeadPose, sim.Orbit(2, 1.5, 2*time.Second)))
	o.BindDeviceToSpace(hmd, o.Root())
	view, err := o.CreatePoseSpace(hmd, device.InputHeadPose)
	if err != nil {
		t.Fatal(err)
	}
	defer view.Release()

	rel := o.LocateSpace(o.Root(), pose.Identity(), 0, view, pose.Identity())
	if !rel.Flags.Has(relation.LinearVelocityValid | relation.AngularVelocityValid) {
		t.Fatalf("flags = %s, want velocities", rel.Flags)
	}

	// Speed on a circle of radius r with period T is 2πr/T.
	want := float32(2 * math.Pi * 2 / 2)
	if got := rel.LinearVelocity.Len(); math.Abs(float64(got-want)) > 1e-3 {
		t.Errorf("speed = %v, want %v", got, want)
	}
}
