package space

import (
	"fmt"
	"time"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/observability"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/relation"
)

// LocateSpace returns target (moved by targetOffset) expressed in base
// (moved by baseOffset) at atNS.
//
// It never fails: tracking loss anywhere on the way shows up as cleared
// flags on the result. Locating a space in itself with identity offsets is
// an exact, fully valid identity.
func (o *Overseer) LocateSpace(base *Space, baseOffset pose.Pose, atNS int64, target *Space, targetOffset pose.Pose) relation.Relation {
	o.mustOwn(base)
	o.mustOwn(target)
	start := time.Now()

	var bp, tp path
	o.mu.RLock()
	bp.collectLocked(base)
	tp.collectLocked(target)
	o.mu.RUnlock()

	var c relation.Chain
	c.PushPose(targetOffset)
	buildChain(&c, &bp, &tp, base == target, atNS)
	c.PushInvertedPose(baseOffset)

	rel := c.Resolve()
	observability.Locate().OnLocate("space", c.Len(), uint32(rel.Flags), time.Since(start))
	return rel
}

// LocateSpaces locates every target in base in one call. offsets may be nil,
// meaning identity for every target; otherwise it must be as long as
// targets. The result is what calling LocateSpace once per target would
// return. The lock is taken once for the whole batch; device poses are still
// sampled for every target whose chain crosses them.
func (o *Overseer) LocateSpaces(base *Space, baseOffset pose.Pose, atNS int64, targets []*Space, offsets []pose.Pose) []relation.Relation {
	if offsets != nil && len(offsets) != len(targets) {
		panic(fmt.Sprintf("space: %d offsets for %d targets", len(offsets), len(targets)))
	}
	o.mustOwn(base)
	for _, t := range targets {
		o.mustOwn(t)
	}
	start := time.Now()

	var bp path
	tps := make([]path, len(targets))

	o.mu.RLock()
	bp.collectLocked(base)
	for i, t := range targets {
		tps[i].collectLocked(t)
	}
	o.mu.RUnlock()

	out := make([]relation.Relation, len(targets))
	for i, t := range targets {
		var c relation.Chain
		if offsets != nil {
			c.PushPose(offsets[i])
		}
		if t == base {
			c.PushInvertedPose(baseOffset)
		} else {
			tps[i].pushTarget(&c, atNS)
			bp.pushBaseInverted(&c, atNS)
			c.PushInvertedPose(baseOffset)
		}
		out[i] = c.Resolve()
		observability.Locate().OnLocate("space", c.Len(), uint32(out[i].Flags), time.Since(start))
	}
	return out
}

// LocateDevice returns the origin of dev's tracking space, the frame its raw
// poses are reported in, expressed in base at atNS. This is not the pose of
// the device itself. Returns ErrCodeUnknownDevice if dev is not bound.
func (o *Overseer) LocateDevice(base *Space, baseOffset pose.Pose, atNS int64, dev device.Device) (relation.Relation, error) {
	o.mustOwn(base)
	start := time.Now()

	var bp, tp path
	o.mu.RLock()
	b, ok := o.devices[dev.ID()]
	target := b.space
	if ok {
		bp.collectLocked(base)
		tp.collectLocked(target)
	}
	o.mu.RUnlock()

	if !ok {
		o.logger.Error("Looking for space belonging to unknown device", "device", dev.Name())
		return relation.Relation{}, errors.New(errors.ErrCodeUnknownDevice, "no space bound to device %q", dev.Name())
	}

	var c relation.Chain
	buildChain(&c, &bp, &tp, base == target, atNS)
	c.PushInvertedPose(baseOffset)

	rel := c.Resolve()
	observability.Locate().OnLocate("device", c.Len(), uint32(rel.Flags), time.Since(start))
	return rel, nil
}
