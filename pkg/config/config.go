// Package config loads rig files: TOML descriptions of a set of simulated
// tracked devices, their tracking origins and the local space placement,
// from which a ready-to-use space graph is built.
//
// # Format
//
//	root_is_unbounded = true
//	head = "hmd"
//
//	[local_offset]
//	position = [0.0, 1.6, 0.0]
//	yaw_deg = 0.0
//
//	[[origin]]
//	name = "lighthouse"
//	position = [0.0, 0.0, 0.0]
//
//	[[device]]
//	name = "hmd"
//	origin = "lighthouse"
//	motion = "orbit"   # static | orbit | lost
//	radius = 1.0
//	height = 1.7
//	period = "4s"
//
// Devices without an origin are tracked directly in the root space. The head
// device drives the view space through its "head" input; every other device
// reports on the input named by its input field ("grip" by default).
package config

import (
	"math"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/pose"
)

// Motion names accepted in a device's motion field.
const (
	MotionStatic = "static"
	MotionOrbit  = "orbit"
	MotionLost   = "lost"
)

// Config is a parsed rig file.
type Config struct {
	RootIsUnbounded bool      `toml:"root_is_unbounded"`
	Head            string    `toml:"head"`
	LocalOffset     Placement `toml:"local_offset"`
	Origins         []Origin  `toml:"origin"`
	Devices         []Device  `toml:"device"`
}

// Placement is a position plus a heading about the up axis.
type Placement struct {
	Position [3]float32 `toml:"position"`
	YawDeg   float64    `toml:"yaw_deg"`
}

// Pose converts the placement to a pose.
func (p Placement) Pose() pose.Pose {
	return pose.New(
		pose.Vec3{X: p.Position[0], Y: p.Position[1], Z: p.Position[2]},
		pose.FromYaw(p.YawDeg*math.Pi/180),
	)
}

// Origin is a tracking origin: a frame shared by several devices.
type Origin struct {
	Name     string     `toml:"name"`
	Position [3]float32 `toml:"position"`
	YawDeg   float64    `toml:"yaw_deg"`
}

// Placement returns where the origin sits in the root space.
func (o Origin) Placement() Placement {
	return Placement{Position: o.Position, YawDeg: o.YawDeg}
}

// Device is one simulated device.
type Device struct {
	Name   string `toml:"name"`
	Origin string `toml:"origin"`
	Input  string `toml:"input"`

	Motion string `toml:"motion"`

	// static
	Position [3]float32 `toml:"position"`
	YawDeg   float64    `toml:"yaw_deg"`

	// orbit
	Radius float32 `toml:"radius"`
	Height float32 `toml:"height"`
	Period string  `toml:"period"`

	UsageNotifications bool `toml:"usage_notifications"`
}

// Default returns the built-in rig: a head walking a one metre circle and a
// controller held still, both tracked by one lighthouse origin.
func Default() *Config {
	return &Config{
		RootIsUnbounded: true,
		Head:            "hmd",
		LocalOffset:     Placement{Position: [3]float32{0, 1.6, 0}},
		Origins: []Origin{
			{Name: "lighthouse"},
		},
		Devices: []Device{
			{
				Name:               "hmd",
				Origin:             "lighthouse",
				Motion:             MotionOrbit,
				Radius:             1,
				Height:             1.7,
				Period:             "8s",
				UsageNotifications: true,
			},
			{
				Name:     "controller",
				Origin:   "lighthouse",
				Input:    "grip",
				Motion:   MotionStatic,
				Position: [3]float32{0.2, 1.1, -0.3},
			},
		},
	}
}

// Load reads and validates a rig file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "rig file %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Parse decodes and validates rig file contents. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode rig")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks names, references and motion parameters.
func (c *Config) Validate() error {
	origins := make(map[string]bool, len(c.Origins))
	for _, o := range c.Origins {
		if err := errors.ValidateName("origin", o.Name); err != nil {
			return err
		}
		if origins[o.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate origin %q", o.Name)
		}
		origins[o.Name] = true
	}

	names := make(map[string]bool, len(c.Devices))
	for _, d := range c.Devices {
		if err := errors.ValidateName("device", d.Name); err != nil {
			return err
		}
		if names[d.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate device %q", d.Name)
		}
		names[d.Name] = true

		if d.Origin != "" && !origins[d.Origin] {
			return errors.New(errors.ErrCodeInvalidConfig, "device %q: unknown origin %q", d.Name, d.Origin)
		}
		if _, err := d.inputName(d.Name == c.Head); err != nil {
			return err
		}
		if err := d.validateMotion(); err != nil {
			return err
		}
	}

	if c.Head != "" && !names[c.Head] {
		return errors.New(errors.ErrCodeInvalidConfig, "head %q is not a device", c.Head)
	}
	return nil
}

// inputName returns the input the device's motion drives.
func (d Device) inputName(isHead bool) (device.InputName, error) {
	if d.Input == "" {
		if isHead {
			return device.InputHeadPose, nil
		}
		return device.InputGripPose, nil
	}
	n, err := device.ParseInputName(d.Input)
	if err != nil || n == device.InputNone {
		return device.InputNone, errors.New(errors.ErrCodeInvalidConfig, "device %q: unknown input %q", d.Name, d.Input)
	}
	if isHead && n != device.InputHeadPose {
		return device.InputNone, errors.New(errors.ErrCodeInvalidConfig, "device %q: head must use the head input", d.Name)
	}
	return n, nil
}

func (d Device) validateMotion() error {
	switch d.Motion {
	case "", MotionStatic, MotionLost:
		return nil
	case MotionOrbit:
		if d.Radius <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "device %q: orbit radius must be positive", d.Name)
		}
		if _, err := d.period(); err != nil {
			return err
		}
		return nil
	}
	return errors.New(errors.ErrCodeInvalidConfig, "device %q: unknown motion %q", d.Name, d.Motion)
}

func (d Device) period() (time.Duration, error) {
	if d.Period == "" {
		return 4 * time.Second, nil
	}
	p, err := time.ParseDuration(d.Period)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "device %q: bad period", d.Name)
	}
	if p <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "device %q: period must be positive", d.Name)
	}
	return p, nil
}
