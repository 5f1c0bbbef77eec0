package prom

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/device/sim"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/observability"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/relation"
	"github.com/matzehuels/xrspace/pkg/space"
)

func TestValidity(t *testing.T) {
	tests := []struct {
		flags relation.Flags
		want  string
	}{
		{relation.AllPoseBits, "full"},
		{relation.AllPoseBits | relation.LinearVelocityValid, "full"},
		{relation.OrientationValid | relation.PositionValid, "partial"},
		{relation.OrientationValid, "partial"},
		{relation.LinearVelocityValid, "none"},
		{0, "none"},
	}
	for _, tt := range tests {
		if got := Validity(tt.flags); got != tt.want {
			t.Errorf("Validity(%s) = %q, want %q", tt.flags, got, tt.want)
		}
	}
}

func TestHooksDirect(t *testing.T) {
	h := NewHooks(prometheus.NewRegistry())

	h.OnLocate("space", 3, uint32(relation.AllPoseBits), time.Microsecond)
	h.OnLocate("space", 2, 0, time.Microsecond)
	h.OnLocate("device", 1, uint32(relation.AllPoseBits), time.Microsecond)

	if got := testutil.ToFloat64(h.locateTotal.WithLabelValues("space", "full")); got != 1 {
		t.Errorf("space/full = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.locateTotal.WithLabelValues("space", "none")); got != 1 {
		t.Errorf("space/none = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(h.locateDuration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}

	h.OnRecenter(time.Millisecond, nil)
	h.OnRecenter(time.Millisecond, errors.New(errors.ErrCodeRecenteringNotSupported, "no view"))
	h.OnRecenter(time.Millisecond, errors.New(errors.ErrCodeInternal, "boom"))
	for _, result := range []string{"ok", "unsupported", "error"} {
		if got := testutil.ToFloat64(h.recenterTotal.WithLabelValues(result)); got != 1 {
			t.Errorf("recenter %s = %v, want 1", result, got)
		}
	}

	h.OnBind("hmd", false)
	h.OnBind("hmd", true)
	h.OnBind("ctrl", false)
	if got := testutil.ToFloat64(h.bindTotal.WithLabelValues("false")); got != 2 {
		t.Errorf("binds = %v, want 2", got)
	}
}

func TestHooksWithOverseer(t *testing.T) {
	h := NewHooks(prometheus.NewRegistry())
	observability.SetLocateHooks(h)
	observability.SetGraphHooks(h)
	defer observability.Reset()

	o := space.New(space.WithLogger(log.New(io.Discard)))
	hmd := sim.New(1, "hmd",
		sim.WithInput(device.InputHeadPose, sim.StaticPose(pose.Translation(0, 1.7, 0))))
	if err := o.LegacySetup([]device.Device{hmd}, hmd, pose.Translation(0, 1.6, 0), false); err != nil {
		t.Fatal(err)
	}

	// root, local, local-floor and view. The head has no tracking origin,
	// so it is bound to the root and gets no space of its own.
	if got := testutil.ToFloat64(h.spacesLive); got != 4 {
		t.Errorf("live spaces = %v, want 4", got)
	}

	_ = o.RefSpaceInc(device.ReferenceSpaceLocal)
	if got := testutil.ToFloat64(h.refSpaceInUse.WithLabelValues("local")); got != 1 {
		t.Errorf("local in use = %v, want 1", got)
	}
	_ = o.RefSpaceDec(device.ReferenceSpaceLocal)
	if got := testutil.ToFloat64(h.refSpaceInUse.WithLabelValues("local")); got != 0 {
		t.Errorf("local in use = %v, want 0", got)
	}

	stage := o.Semantic(device.ReferenceSpaceStage)
	view := o.Semantic(device.ReferenceSpaceView)
	o.LocateSpace(stage, pose.Identity(), 0, view, pose.Identity())
	view.Release()
	stage.Release()

	if got := testutil.ToFloat64(h.locateTotal.WithLabelValues("space", "full")); got != 1 {
		t.Errorf("locates = %v, want 1", got)
	}

	if err := o.RecenterLocalSpaces(); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(h.recenterTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("recenters = %v, want 1", got)
	}

	o.Close()
	if got := testutil.ToFloat64(h.spacesLive); got != 0 {
		t.Errorf("live spaces after close = %v, want 0", got)
	}
}
