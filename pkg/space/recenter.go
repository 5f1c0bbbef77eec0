package space

import (
	"time"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/observability"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/relation"
	"github.com/matzehuels/xrspace/pkg/session"
)

// RecenterLocalSpaces moves the local and local-floor spaces to where the
// view currently is: same horizontal position, same heading, no pitch or
// roll. Each space keeps its own height.
//
// Recentering needs view, local and local-floor to exist, local and
// local-floor to be Null or Offset spaces, and both to share a parent. It
// also needs a view pose with valid position and orientation right now.
// If any of that is missing it returns ErrCodeRecenteringNotSupported and
// changes nothing; callers should simply try again later.
//
// On success one reference-space-change-pending event is pushed for local
// and one for local-floor.
func (o *Overseer) RecenterLocalSpaces() (err error) {
	start := time.Now()
	defer func() { observability.Graph().OnRecenter(time.Since(start), err) }()

	// Held for the whole operation, including the view sample.
	o.mu.Lock()
	defer o.mu.Unlock()

	view := o.semantic[device.ReferenceSpaceView]
	local := o.semantic[device.ReferenceSpaceLocal]
	localFloor := o.semantic[device.ReferenceSpaceLocalFloor]

	if err := checkRecenterable(view, local, localFloor); err != nil {
		o.logger.Debug("Recenter not possible", "reason", errors.UserMessage(err))
		return err
	}

	parent := local.parent
	now := o.clock()

	var bp, tp path
	bp.collectLocked(parent)
	tp.collectLocked(view)

	var c relation.Chain
	buildChain(&c, &bp, &tp, parent == view, now)
	rel := c.Resolve()

	if !rel.Flags.Has(relation.PositionValid | relation.OrientationValid) {
		o.logger.Debug("Recenter not possible", "reason", "view not tracking", "flags", rel.Flags)
		return errors.New(errors.ErrCodeRecenteringNotSupported, "view pose not valid (%s)", rel.Flags)
	}

	yaw := pose.YawOnly(rel.Pose.Orientation)

	localOffset := local.offsetLocked()
	floorOffset := localFloor.offsetLocked()

	localOffset.Orientation = yaw
	floorOffset.Orientation = yaw

	localOffset.Position.X = rel.Pose.Position.X
	localOffset.Position.Z = rel.Pose.Position.Z
	floorOffset.Position.X = rel.Pose.Position.X
	floorOffset.Position.Z = rel.Pose.Position.Z

	local.setOffsetLocked(localOffset)
	localFloor.setOffsetLocked(floorOffset)

	o.logger.Info("Recentered local spaces",
		"x", rel.Pose.Position.X, "z", rel.Pose.Position.Z, "yaw", yaw.Yaw())

	o.pushRefChangeLocked(device.ReferenceSpaceLocal)
	o.pushRefChangeLocked(device.ReferenceSpaceLocalFloor)

	return nil
}

func checkRecenterable(view, local, localFloor *Space) error {
	switch {
	case view == nil:
		return errors.New(errors.ErrCodeRecenteringNotSupported, "no view space")
	case local == nil:
		return errors.New(errors.ErrCodeRecenteringNotSupported, "no local space")
	case localFloor == nil:
		return errors.New(errors.ErrCodeRecenteringNotSupported, "no local-floor space")
	case !isOffsetKind(local.kind):
		return errors.New(errors.ErrCodeRecenteringNotSupported, "local is a %s space", local.kind)
	case !isOffsetKind(localFloor.kind):
		return errors.New(errors.ErrCodeRecenteringNotSupported, "local-floor is a %s space", localFloor.kind)
	case local.parent != localFloor.parent:
		return errors.New(errors.ErrCodeRecenteringNotSupported, "local and local-floor have different parents")
	}
	return nil
}

func isOffsetKind(k Kind) bool {
	return k == KindNull || k == KindOffset
}

// pushRefChangeLocked announces a pending change of a reference space. The
// new pose in the previous space is not reported. Delivery failures are
// logged; they do not undo the change.
func (o *Overseer) pushRefChangeLocked(kind device.ReferenceSpace) {
	ev := session.Event{
		Type: session.EventReferenceSpaceChangePending,
		RefChange: session.ReferenceSpaceChange{
			Space:               kind,
			Timestamp:           o.clock(),
			PoseValid:           false,
			PoseInPreviousSpace: pose.Identity(),
		},
	}
	if err := o.broadcast.Push(ev); err != nil {
		o.logger.Error("Failed to push reference space change event", "space", kind, "err", err)
	}
}
