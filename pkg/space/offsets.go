package space

import (
	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/pose"
)

// GetReferenceSpaceOffset returns the offset of a semantic space from its
// parent. Only Null and Offset spaces have one; anything else, including a
// missing space, is ErrCodeUnsupported.
func (o *Overseer) GetReferenceSpaceOffset(kind device.ReferenceSpace) (pose.Pose, error) {
	if !kind.Valid() {
		return pose.Pose{}, errors.New(errors.ErrCodeInvalidInput, "invalid reference space %d", int(kind))
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	sp, err := o.offsetSemanticLocked(kind)
	if err != nil {
		return pose.Pose{}, err
	}
	return sp.offsetLocked(), nil
}

// SetReferenceSpaceOffset moves a semantic Null or Offset space relative to
// its parent and announces the change like a recenter does.
func (o *Overseer) SetReferenceSpaceOffset(kind device.ReferenceSpace, offset pose.Pose) error {
	if !kind.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "invalid reference space %d", int(kind))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	sp, err := o.offsetSemanticLocked(kind)
	if err != nil {
		return err
	}
	sp.setOffsetLocked(offset)
	o.logger.Debug("Reference space offset set", "space", kind, "kind", sp.kind)

	o.pushRefChangeLocked(kind)
	return nil
}

func (o *Overseer) offsetSemanticLocked(kind device.ReferenceSpace) (*Space, error) {
	sp := o.semantic[kind]
	if sp == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "reference space %s not provided", kind)
	}
	if !isOffsetKind(sp.kind) {
		return nil, errors.New(errors.ErrCodeUnsupported, "reference space %s is a %s space", kind, sp.kind)
	}
	return sp, nil
}

// GetTrackingOriginOffset returns the offset of the space created for origin
// by [Overseer.LegacySetup].
func (o *Overseer) GetTrackingOriginOffset(origin *device.TrackingOrigin) (pose.Pose, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	sp, err := o.originLocked(origin)
	if err != nil {
		return pose.Pose{}, err
	}
	return sp.offsetLocked(), nil
}

// SetTrackingOriginOffset moves every device tracked in origin at once. The
// origin's own Offset field is updated too, so it stays the record of where
// the origin sits in the root space.
func (o *Overseer) SetTrackingOriginOffset(origin *device.TrackingOrigin, offset pose.Pose) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	sp, err := o.originLocked(origin)
	if err != nil {
		return err
	}
	sp.setOffsetLocked(offset)
	origin.Offset = offset
	o.logger.Debug("Tracking origin offset set", "origin", origin.Name, "kind", sp.kind)
	return nil
}

func (o *Overseer) originLocked(origin *device.TrackingOrigin) (*Space, error) {
	if origin == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil tracking origin")
	}
	sp, ok := o.origins[origin]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "tracking origin %q has no space", origin.Name)
	}
	return sp, nil
}
