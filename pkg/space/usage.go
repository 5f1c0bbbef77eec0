package space

import (
	"fmt"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/observability"
)

// RefSpaceInc marks one more user of a semantic space. The first user
// triggers a usage notification, letting a driver start expensive tracking
// only while a space that needs it is in use.
func (o *Overseer) RefSpaceInc(kind device.ReferenceSpace) error {
	if !kind.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "invalid reference space %d", int(kind))
	}

	if o.usage[kind].Add(1) != 1 {
		return nil
	}

	o.logger.Debug("Ref-space in use", "space", kind)
	o.notifyUsage(kind, true)
	return nil
}

// RefSpaceDec marks one less user of a semantic space. The last user leaving
// triggers a usage notification. Decrementing an unused space is a caller
// bug and panics.
func (o *Overseer) RefSpaceDec(kind device.ReferenceSpace) error {
	if !kind.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "invalid reference space %d", int(kind))
	}

	n := o.usage[kind].Add(-1)
	if n < 0 {
		o.usage[kind].Add(1)
		panic(fmt.Sprintf("space: ref-space %s decremented below zero", kind))
	}
	if n != 0 {
		return nil
	}

	o.logger.Debug("Ref-space no longer in use", "space", kind)
	o.notifyUsage(kind, false)
	return nil
}

// RefSpaceUsage returns the current usage count of a semantic space.
func (o *Overseer) RefSpaceUsage(kind device.ReferenceSpace) int32 {
	if !kind.Valid() {
		return 0
	}
	return o.usage[kind].Load()
}

// notifyUsage tells the device behind a semantic space that its usage
// changed. A space following a device input notifies that device and input;
// any other space notifies the notify device with InputNone.
func (o *Overseer) notifyUsage(kind device.ReferenceSpace, used bool) {
	observability.Graph().OnRefSpaceUsage(kind.String(), used)

	o.mu.RLock()
	sp := o.semantic[kind]
	if sp == nil {
		// Not provided by this configuration; nobody to tell.
		o.mu.RUnlock()
		return
	}

	dev, input := o.notify, device.InputNone
	if sp.kind == KindPose {
		dev, input = sp.dev, sp.input
	}
	o.mu.RUnlock()

	if dev == nil || !dev.RefSpaceUsageSupported() {
		return
	}
	dev.NotifyRefSpaceUsage(kind, input, used)
}
