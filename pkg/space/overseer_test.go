package space

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/device/sim"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/pose"
)

func newTestOverseer(t *testing.T, opts ...Option) *Overseer {
	t.Helper()
	return New(append([]Option{WithLogger(log.New(io.Discard))}, opts...)...)
}

func TestCreateOffsetSpace(t *testing.T) {
	tests := []struct {
		name     string
		offset   pose.Pose
		wantKind Kind
	}{
		{"Identity", pose.Identity(), KindNull},
		{"Translation", pose.Translation(1, 0, 0), KindOffset},
		{"Rotation", pose.New(pose.Vec3{}, pose.FromYaw(1)), KindOffset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOverseer(t)
			sp := o.CreateOffsetSpace(o.Root(), tt.offset)
			defer sp.Release()

			if got := sp.Kind(); got != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", got, tt.wantKind)
			}
			if sp.Parent() != o.Root() {
				t.Error("parent is not root")
			}
			if got := sp.Offset(); got != tt.offset {
				t.Errorf("Offset() = %+v, want %+v", got, tt.offset)
			}
		})
	}
}

func TestReferenceCounting(t *testing.T) {
	o := newTestOverseer(t)
	root := o.Root()

	if got := root.Refs(); got != 1 {
		t.Fatalf("root refs = %d, want 1", got)
	}

	parent := o.CreateOffsetSpace(root, pose.Translation(0, 1, 0))
	child := o.CreateNullSpace(parent)

	if got := root.Refs(); got != 2 {
		t.Errorf("root refs = %d, want 2", got)
	}
	if got := parent.Refs(); got != 2 {
		t.Errorf("parent refs = %d, want 2", got)
	}

	// A second caller holds the child.
	child.Retain()

	// Dropping the birth reference on the parent must not destroy it while
	// the child lives.
	parent.Release()
	if parent.Destroyed() {
		t.Fatal("parent destroyed while child holds it")
	}

	child.Release()
	if child.Destroyed() {
		t.Fatal("child destroyed with one reference left")
	}

	child.Release()
	if !child.Destroyed() {
		t.Error("child not destroyed after last release")
	}
	if !parent.Destroyed() {
		t.Error("parent not destroyed after its last child went")
	}
	if got := root.Refs(); got != 1 {
		t.Errorf("root refs = %d, want 1", got)
	}
}

func TestReferenceCountingSharedParent(t *testing.T) {
	o := newTestOverseer(t)

	parent := o.CreateOffsetSpace(o.Root(), pose.Translation(0, 1, 0))
	a := o.CreateNullSpace(parent)
	b := o.CreateNullSpace(parent)
	parent.Release()

	a.Release()
	if parent.Destroyed() {
		t.Fatal("parent destroyed while b holds it")
	}
	b.Release()
	if !parent.Destroyed() {
		t.Error("parent not destroyed")
	}
}

func TestReleasePastZeroPanics(t *testing.T) {
	o := newTestOverseer(t)
	sp := o.CreateNullSpace(o.Root())
	sp.Release()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	sp.Release()
}

func TestForeignSpacePanics(t *testing.T) {
	a := newTestOverseer(t)
	b := newTestOverseer(t)

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	a.CreateNullSpace(b.Root())
}

func TestCreatePoseSpaceUnknownDevice(t *testing.T) {
	o := newTestOverseer(t)
	hmd := sim.New(1, "hmd")

	sp, err := o.CreatePoseSpace(hmd, device.InputHeadPose)
	if sp != nil {
		t.Error("expected nil space")
	}
	if !errors.Is(err, errors.ErrCodeUnknownDevice) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeUnknownDevice)
	}
}

func TestCreatePoseSpace(t *testing.T) {
	o := newTestOverseer(t)
	hmd := sim.New(1, "hmd")
	origin := o.CreateOffsetSpace(o.Root(), pose.Translation(0, 0, 1))
	o.BindDeviceToSpace(hmd, origin)
	origin.Release()

	sp, err := o.CreatePoseSpace(hmd, device.InputHeadPose)
	if err != nil {
		t.Fatalf("CreatePoseSpace: %v", err)
	}
	defer sp.Release()

	if sp.Kind() != KindPose {
		t.Errorf("Kind() = %v, want pose", sp.Kind())
	}
	if sp.Parent() != origin {
		t.Error("pose space not parented to the device's space")
	}
	if sp.Device() != device.Device(hmd) || sp.Input() != device.InputHeadPose {
		t.Errorf("device/input = %v/%v", sp.Device(), sp.Input())
	}
}

func TestBindDeviceToSpaceRebind(t *testing.T) {
	var buf bytes.Buffer
	o := New(WithLogger(log.New(&buf)))
	hmd := sim.New(1, "hmd")

	first := o.CreateNullSpace(o.Root())
	second := o.CreateNullSpace(o.Root())

	o.BindDeviceToSpace(hmd, first)
	first.Release()
	if first.Destroyed() {
		t.Fatal("bound space destroyed")
	}
	if strings.Contains(buf.String(), "already had a space") {
		t.Fatal("warning on first bind")
	}

	o.BindDeviceToSpace(hmd, second)
	second.Release()

	if !strings.Contains(buf.String(), "Device already had a space attached") {
		t.Errorf("missing rebind warning, log: %q", buf.String())
	}
	if !first.Destroyed() {
		t.Error("replaced space still alive")
	}

	got, ok := o.DeviceSpace(hmd)
	if !ok {
		t.Fatal("device not bound")
	}
	defer got.Release()
	if got != second {
		t.Error("DeviceSpace did not return the new binding")
	}
}

func TestSetSemantic(t *testing.T) {
	o := newTestOverseer(t)

	if got := o.Semantic(device.ReferenceSpaceStage); got != nil {
		t.Fatal("fresh overseer has a stage space")
	}

	sp := o.CreateOffsetSpace(o.Root(), pose.Translation(1, 0, 0))
	if err := o.SetSemantic(device.ReferenceSpaceStage, sp); err != nil {
		t.Fatalf("SetSemantic: %v", err)
	}
	sp.Release()

	got := o.Semantic(device.ReferenceSpaceStage)
	if got != sp {
		t.Fatal("Semantic returned a different space")
	}
	got.Release()

	if err := o.SetSemantic(device.ReferenceSpaceStage, nil); err != nil {
		t.Fatalf("SetSemantic(nil): %v", err)
	}
	if !sp.Destroyed() {
		t.Error("cleared semantic space still alive")
	}

	if err := o.SetSemantic(device.ReferenceSpaceCount, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("out of range kind: err = %v", err)
	}
}

func TestClose(t *testing.T) {
	o := newTestOverseer(t)
	hmd := sim.New(1, "hmd", sim.WithInput(device.InputHeadPose, sim.StaticPose(pose.Identity())))
	if err := o.LegacySetup([]device.Device{hmd}, hmd, pose.Translation(0, 1.6, 0), true); err != nil {
		t.Fatalf("LegacySetup: %v", err)
	}

	local := o.Semantic(device.ReferenceSpaceLocal)
	root := o.Root()

	o.Close()

	if local.Destroyed() || root.Destroyed() {
		t.Fatal("space held by caller destroyed on close")
	}
	local.Release()
	if !local.Destroyed() || !root.Destroyed() {
		t.Error("graph not torn down after last caller release")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on second Close")
		}
	}()
	o.Close()
}
