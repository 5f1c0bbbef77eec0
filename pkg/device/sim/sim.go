// Package sim provides simulated tracked devices. They back the spacectl
// tool and the space graph tests: each input follows a [Motion], and every
// pose query and usage notification is recorded.
package sim

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/relation"
)

// Motion produces the relation of an input at a point in time.
type Motion func(atNS int64) relation.Relation

// Static always reports rel.
func Static(rel relation.Relation) Motion {
	return func(int64) relation.Relation { return rel }
}

// StaticPose always reports p as a fully tracked relation.
func StaticPose(p pose.Pose) Motion {
	return Static(relation.FromPose(p))
}

// Lost reports no valid data at all.
func Lost() Motion {
	return Static(relation.Relation{})
}

// Orbit walks a circle of the given radius at height, facing the direction
// of travel, completing one lap per period. Velocities are reported.
func Orbit(radius, height float32, period time.Duration) Motion {
	if period <= 0 {
		period = time.Second
	}
	omega := 2 * math.Pi / period.Seconds()
	return func(atNS int64) relation.Relation {
		theta := omega * float64(atNS) / float64(time.Second)
		sin, cos := math.Sincos(theta)
		pos := pose.Vec3{
			X: radius * float32(cos),
			Y: height,
			Z: -radius * float32(sin),
		}
		vel := pose.Vec3{
			X: -radius * float32(omega*sin),
			Z: -radius * float32(omega*cos),
		}
		return relation.Relation{
			Flags: relation.AllPoseBits |
				relation.LinearVelocityValid | relation.AngularVelocityValid,
			Pose:            pose.New(pos, pose.FromYaw(theta)),
			LinearVelocity:  vel,
			AngularVelocity: pose.Vec3{Y: float32(omega)},
		}
	}
}

// Usage is a recorded reference-space usage notification.
type Usage struct {
	Space device.ReferenceSpace
	Input device.InputName
	Used  bool
}

// Device is a simulated [device.Device]. It is safe for concurrent use.
type Device struct {
	id     device.ID
	name   string
	origin *device.TrackingOrigin

	usageSupported bool

	mu      sync.Mutex
	inputs  map[device.InputName]Motion
	usage   []Usage
	queries atomic.Int64
}

// Option configures a Device.
type Option func(*Device)

// WithOrigin sets the device's tracking origin.
func WithOrigin(o *device.TrackingOrigin) Option {
	return func(d *Device) { d.origin = o }
}

// WithInput sets the motion of one input.
func WithInput(name device.InputName, m Motion) Option {
	return func(d *Device) { d.inputs[name] = m }
}

// WithUsageNotifications makes the device accept reference space usage hints.
func WithUsageNotifications() Option {
	return func(d *Device) { d.usageSupported = true }
}

// New creates a simulated device. Inputs without a motion report [Lost].
func New(id device.ID, name string, opts ...Option) *Device {
	d := &Device{
		id:     id,
		name:   name,
		inputs: make(map[device.InputName]Motion),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ID implements device.Device.
func (d *Device) ID() device.ID { return d.id }

// Name implements device.Device.
func (d *Device) Name() string { return d.name }

// TrackingOrigin implements device.Device.
func (d *Device) TrackingOrigin() *device.TrackingOrigin { return d.origin }

// SetInput replaces the motion of an input while the device is live.
func (d *Device) SetInput(name device.InputName, m Motion) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inputs[name] = m
}

// TrackedPose implements device.Device.
func (d *Device) TrackedPose(name device.InputName, atNS int64) relation.Relation {
	d.queries.Add(1)

	d.mu.Lock()
	m, ok := d.inputs[name]
	d.mu.Unlock()

	if !ok {
		return relation.Relation{}
	}
	return m(atNS)
}

// RefSpaceUsageSupported implements device.Device.
func (d *Device) RefSpaceUsageSupported() bool { return d.usageSupported }

// NotifyRefSpaceUsage implements device.Device.
func (d *Device) NotifyRefSpaceUsage(kind device.ReferenceSpace, name device.InputName, used bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.usage = append(d.usage, Usage{Space: kind, Input: name, Used: used})
}

// Usage returns a copy of every usage notification received so far.
func (d *Device) Usage() []Usage {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Usage, len(d.usage))
	copy(out, d.usage)
	return out
}

// Queries returns how many times TrackedPose has been called.
func (d *Device) Queries() int64 { return d.queries.Load() }

var _ device.Device = (*Device)(nil)
