package space

import (
	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/observability"
	"github.com/matzehuels/xrspace/pkg/pose"
)

// LegacySetup builds the standard graph for a fixed set of devices:
//
//   - one offset space under the root per distinct tracking origin, placed at
//     the origin's Offset, with every device on that origin bound to it
//     (devices without an origin are bound to the root);
//   - stage is the root, and so is unbounded when rootIsUnbounded is set;
//   - local sits at localOffset from the root, and local-floor at the same
//     offset dropped to the root's floor (Y = 0);
//   - view follows head's head pose, and head receives usage notifications
//     for spaces that do not follow a device.
//
// head may be nil, in which case there is no view space; otherwise it must
// be one of devs. LegacySetup expects a fresh Overseer. On any error nothing
// is bound or assigned: an unknown head returns ErrCodeInvalidConfig, and an
// already assigned semantic space returns ErrCodeInvalidInput.
func (o *Overseer) LegacySetup(devs []device.Device, head device.Device, localOffset pose.Pose, rootIsUnbounded bool) error {
	headIdx := -1
	if head != nil {
		for i, dev := range devs {
			if dev.ID() == head.ID() {
				headIdx = i
			}
		}
		if headIdx < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "head %q is not in the device list", head.Name())
		}
	}

	// Everything below is built unlocked: none of it is reachable until the
	// Overseer adopts it. Each origin space holds the reference created here.
	created := make(map[*device.TrackingOrigin]*Space)
	targets := make([]*Space, len(devs))
	for i, dev := range devs {
		origin := dev.TrackingOrigin()
		if origin == nil {
			targets[i] = o.root
			continue
		}
		sp, ok := created[origin]
		if !ok {
			sp = o.CreateOffsetSpace(o.root, origin.Offset)
			created[origin] = sp
			o.logger.Debug("Created tracking origin space", "origin", origin.Name, "space", sp)
		}
		targets[i] = sp
	}

	local := o.CreateOffsetSpace(o.root, localOffset)
	floorOffset := localOffset
	floorOffset.Position.Y = 0
	localFloor := o.CreateOffsetSpace(o.root, floorOffset)

	var view *Space
	if head != nil {
		view = o.newSpace(KindPose, targets[headIdx].Retain())
		view.dev = head
		view.input = device.InputHeadPose
	}

	discard := func() {
		if view != nil {
			view.Release()
		}
		local.Release()
		localFloor.Release()
		for _, sp := range created {
			sp.Release()
		}
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		discard()
		panic("space: setup on closed overseer")
	}
	for k, sp := range o.semantic {
		if sp != nil {
			o.mu.Unlock()
			discard()
			return errors.New(errors.ErrCodeInvalidInput, "reference space %s already set up", device.ReferenceSpace(k))
		}
	}

	var dropped []*Space
	replaced := make([]bool, len(devs))
	for i, dev := range devs {
		if old, ok := o.devices[dev.ID()]; ok {
			dropped = append(dropped, old.space)
			replaced[i] = true
		}
		o.devices[dev.ID()] = binding{dev: dev, space: targets[i].Retain()}
	}
	for origin, sp := range created {
		if old, ok := o.origins[origin]; ok {
			dropped = append(dropped, old)
		}
		o.origins[origin] = sp
	}
	o.semantic[device.ReferenceSpaceStage] = o.root.Retain()
	if rootIsUnbounded {
		o.semantic[device.ReferenceSpaceUnbounded] = o.root.Retain()
	}
	o.semantic[device.ReferenceSpaceLocal] = local
	o.semantic[device.ReferenceSpaceLocalFloor] = localFloor
	if view != nil {
		o.semantic[device.ReferenceSpaceView] = view
		o.notify = head
	}
	o.mu.Unlock()

	for i, dev := range devs {
		observability.Graph().OnBind(dev.Name(), replaced[i])
		if replaced[i] {
			o.logger.Warn("Device already had a space attached", "device", dev.Name())
		}
	}
	for _, sp := range dropped {
		sp.Release()
	}

	o.logger.Info("Space graph set up",
		"devices", len(devs), "origins", len(created), "view", view != nil, "unbounded", rootIsUnbounded)
	return nil
}
