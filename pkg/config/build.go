package config

import (
	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/device/sim"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/space"
)

// Rig is a built rig: simulated devices and the space graph set up for them.
type Rig struct {
	Overseer *space.Overseer
	Devices  []*sim.Device
	Head     *sim.Device
	Origins  map[string]*device.TrackingOrigin

	byName map[string]*sim.Device
	inputs map[string]device.InputName
}

// Device returns the device with the given name.
func (r *Rig) Device(name string) (*sim.Device, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Input returns the input the named device reports on, or InputNone.
func (r *Rig) Input(name string) device.InputName {
	return r.inputs[name]
}

// Close tears down the space graph.
func (r *Rig) Close() {
	r.Overseer.Close()
}

// Build creates the devices described by c and an Overseer set up for them
// with [space.Overseer.LegacySetup]. Device IDs follow file order, starting
// at 1.
func (c *Config) Build(opts ...space.Option) (*Rig, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	r := &Rig{
		Origins: make(map[string]*device.TrackingOrigin, len(c.Origins)),
		byName:  make(map[string]*sim.Device, len(c.Devices)),
		inputs:  make(map[string]device.InputName, len(c.Devices)),
	}
	for _, o := range c.Origins {
		r.Origins[o.Name] = &device.TrackingOrigin{Name: o.Name, Offset: o.Placement().Pose()}
	}

	devs := make([]device.Device, 0, len(c.Devices))
	for i, d := range c.Devices {
		isHead := d.Name == c.Head
		input, err := d.inputName(isHead)
		if err != nil {
			return nil, err
		}
		motion, err := d.motion()
		if err != nil {
			return nil, err
		}

		simOpts := []sim.Option{sim.WithInput(input, motion)}
		if d.Origin != "" {
			simOpts = append(simOpts, sim.WithOrigin(r.Origins[d.Origin]))
		}
		if d.UsageNotifications {
			simOpts = append(simOpts, sim.WithUsageNotifications())
		}

		sd := sim.New(device.ID(i+1), d.Name, simOpts...)
		r.Devices = append(r.Devices, sd)
		r.byName[d.Name] = sd
		r.inputs[d.Name] = input
		devs = append(devs, sd)
		if isHead {
			r.Head = sd
		}
	}

	r.Overseer = space.New(opts...)

	var head device.Device
	if r.Head != nil {
		head = r.Head
	}
	if err := r.Overseer.LegacySetup(devs, head, c.LocalOffset.Pose(), c.RootIsUnbounded); err != nil {
		r.Overseer.Close()
		return nil, err
	}
	return r, nil
}

func (d Device) motion() (sim.Motion, error) {
	switch d.Motion {
	case "", MotionStatic:
		p := Placement{Position: d.Position, YawDeg: d.YawDeg}
		return sim.StaticPose(p.Pose()), nil
	case MotionLost:
		return sim.Lost(), nil
	case MotionOrbit:
		period, err := d.period()
		if err != nil {
			return nil, err
		}
		return sim.Orbit(d.Radius, d.Height, period), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "device %q: unknown motion %q", d.Name, d.Motion)
}
