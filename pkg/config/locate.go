package config

import (
	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/relation"
	"github.com/matzehuels/xrspace/pkg/space"
)

// Located is the result of locating one named target.
type Located struct {
	Name     string
	Relation relation.Relation
	Err      error
}

// Semantic returns the reference space called name ("view", "local",
// "local_floor", "stage" or "unbounded"), retained. The caller must release
// it.
func (r *Rig) Semantic(name string) (*space.Space, error) {
	kind, err := device.ParseReferenceSpace(name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad reference space %q", name)
	}
	sp := r.Overseer.Semantic(kind)
	if sp == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "reference space %s is not provided by this rig", kind)
	}
	return sp, nil
}

// Locate resolves each named target in the reference space base at atNS.
// A name is a device of the rig, standing for the pose of the input it
// reports on, or a reference space; device names win. All targets are
// located in one batch and share a single sample of base. Per-target
// failures are reported in Located.Err; only a bad base fails the whole
// call.
func (r *Rig) Locate(base string, atNS int64, names []string) ([]Located, error) {
	bs, err := r.Semantic(base)
	if err != nil {
		return nil, err
	}
	defer bs.Release()

	o := r.Overseer
	out := make([]Located, len(names))

	var (
		targets []*space.Space
		slots   []int
	)
	defer func() {
		for _, sp := range targets {
			sp.Release()
		}
	}()

	for i, name := range names {
		out[i].Name = name
		sp, err := r.target(name)
		if err != nil {
			out[i].Err = err
			continue
		}
		targets = append(targets, sp)
		slots = append(slots, i)
	}

	if len(targets) > 0 {
		rels := o.LocateSpaces(bs, pose.Identity(), atNS, targets, nil)
		for j, rel := range rels {
			out[slots[j]].Relation = rel
		}
	}
	return out, nil
}

// target returns a retained space for name: a fresh pose space for a
// device, or the reference space of that name.
func (r *Rig) target(name string) (*space.Space, error) {
	if d, ok := r.Device(name); ok {
		return r.Overseer.CreatePoseSpace(d, r.Input(name))
	}
	sp, err := r.Semantic(name)
	if errors.Is(err, errors.ErrCodeInvalidInput) {
		return nil, errors.New(errors.ErrCodeUnknownDevice, "no device or reference space named %q", name)
	}
	return sp, err
}

// Names returns the names of the rig's devices in file order.
func (r *Rig) Names() []string {
	names := make([]string, len(r.Devices))
	for i, d := range r.Devices {
		names[i] = d.Name()
	}
	return names
}
