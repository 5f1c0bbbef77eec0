package space_test

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/device/sim"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/session"
	"github.com/matzehuels/xrspace/pkg/space"
)

func ExampleOverseer_LocateSpace() {
	o := space.New(space.WithLogger(log.New(io.Discard)))
	defer o.Close()

	l := o.CreateOffsetSpace(o.Root(), pose.Translation(1, 0, 0))
	m := o.CreateOffsetSpace(o.Root(), pose.Translation(0, 2, 0))
	defer l.Release()
	defer m.Release()

	rel := o.LocateSpace(l, pose.Identity(), 0, m, pose.Identity())
	p := rel.Pose.Position
	fmt.Printf("M in L: (%.1f, %.1f, %.1f) %s\n", p.X, p.Y, p.Z, rel.Flags)
	// Output:
	// M in L: (-1.0, 2.0, 0.0) OV|OT|PV|PT
}

func ExampleOverseer_RecenterLocalSpaces() {
	q := session.NewQueue(session.DefaultQueueSize)
	o := space.New(space.WithLogger(log.New(io.Discard)), space.WithBroadcast(q))
	defer o.Close()

	head := sim.New(1, "hmd", sim.WithInput(device.InputHeadPose,
		sim.StaticPose(pose.New(pose.Vec3{X: 3, Y: 1.5, Z: 4}, pose.FromYaw(math.Pi/2)))))
	if err := o.LegacySetup([]device.Device{head}, head, pose.Identity(), false); err != nil {
		fmt.Println(err)
		return
	}

	if err := o.RecenterLocalSpaces(); err != nil {
		fmt.Println(err)
		return
	}

	local := o.Semantic(device.ReferenceSpaceLocal)
	view := o.Semantic(device.ReferenceSpaceView)
	defer local.Release()
	defer view.Release()

	rel := o.LocateSpace(local, pose.Identity(), 0, view, pose.Identity())
	p := rel.Pose.Position
	fmt.Printf("view in local: (%.1f, %.1f, %.1f) yaw %.0f\n",
		math.Abs(float64(p.X)), p.Y, math.Abs(float64(p.Z)), math.Abs(rel.Pose.Orientation.Yaw()))

	for ev, ok := q.Poll(); ok; ev, ok = q.Poll() {
		fmt.Println(ev.Type, ev.RefChange.Space)
	}
	// Output:
	// view in local: (0.0, 1.5, 0.0) yaw 0
	// reference_space_change_pending local
	// reference_space_change_pending local_floor
}
