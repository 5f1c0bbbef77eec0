package space

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/observability"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/session"
)

// processStart anchors the default monotonic clock.
var processStart = time.Now()

// MonotonicNS returns nanoseconds on the monotonic clock used by default for
// recenter sampling and event timestamps.
func MonotonicNS() int64 {
	return int64(time.Since(processStart))
}

// Overseer owns one space graph: the root, the semantic spaces, the map from
// devices to the space their raw tracking is reported in, and the per
// semantic space usage counters.
//
// A single reader/writer lock guards graph shape. Readers (locate, the
// lookup half of CreatePoseSpace) hold it only long enough to copy what they
// need; device sampling happens after it is released. Writers (binding,
// semantic assignment, recenter, offset updates) hold it for the whole
// mutation. Reference counts on individual spaces are atomic and independent
// of the lock.
type Overseer struct {
	logger    *log.Logger
	broadcast session.EventSink
	clock     func() int64

	mu       sync.RWMutex
	root     *Space
	semantic [device.ReferenceSpaceCount]*Space
	devices  map[device.ID]binding
	origins  map[*device.TrackingOrigin]*Space
	notify   device.Device
	closed   bool

	usage [device.ReferenceSpaceCount]atomic.Int32
}

// binding is the space a device reports its raw tracking in.
type binding struct {
	dev   device.Device
	space *Space
}

// Option configures an Overseer.
type Option func(*Overseer)

// WithLogger sets the logger. Defaults to log.Default() with a "space" prefix.
func WithLogger(l *log.Logger) Option {
	return func(o *Overseer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBroadcast sets the sink that receives session events such as
// reference space change notifications. Defaults to [session.Discard].
func WithBroadcast(sink session.EventSink) Option {
	return func(o *Overseer) {
		if sink != nil {
			o.broadcast = sink
		}
	}
}

// WithClock sets the monotonic nanosecond clock used for recenter sampling
// and event timestamps. Defaults to [MonotonicNS].
func WithClock(clock func() int64) Option {
	return func(o *Overseer) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// New creates an Overseer with a root space and no semantic spaces.
func New(opts ...Option) *Overseer {
	o := &Overseer{
		logger:    log.Default().WithPrefix("space"),
		broadcast: session.Discard,
		clock:     MonotonicNS,
		devices:   make(map[device.ID]binding),
		origins:   make(map[*device.TrackingOrigin]*Space),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.root = o.newSpace(KindRoot, nil)
	return o
}

// Root returns the root space. It is borrowed from the Overseer.
func (o *Overseer) Root() *Space { return o.root }

// Close drops every reference the Overseer holds: semantic spaces, device
// bindings, tracking origin spaces and the root. Spaces still held by
// callers stay valid until they are released.
func (o *Overseer) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		panic("space: overseer closed twice")
	}
	o.closed = true

	var drop []*Space
	for k := range o.semantic {
		if o.semantic[k] != nil {
			drop = append(drop, o.semantic[k])
			o.semantic[k] = nil
		}
	}
	for id, b := range o.devices {
		drop = append(drop, b.space)
		delete(o.devices, id)
	}
	for origin, sp := range o.origins {
		drop = append(drop, sp)
		delete(o.origins, origin)
	}
	o.notify = nil
	o.mu.Unlock()

	for _, sp := range drop {
		sp.Release()
	}
	o.root.Release()
}

// mustOwn panics unless sp is a live space created by o. Passing a nil,
// destroyed or foreign space is a caller bug.
func (o *Overseer) mustOwn(sp *Space) {
	switch {
	case sp == nil:
		panic("space: nil space")
	case sp.owner != o:
		panic(fmt.Sprintf("space: %s belongs to a different overseer", sp))
	case sp.Destroyed():
		panic(fmt.Sprintf("space: %s used after its last release", sp))
	}
}

// =============================================================================
// Node creation
// =============================================================================

// CreateOffsetSpace creates a space at a fixed offset from parent. An exact
// identity offset creates a Null space. No lock is needed: the new space is
// a leaf nothing else can see yet.
func (o *Overseer) CreateOffsetSpace(parent *Space, offset pose.Pose) *Space {
	o.mustOwn(parent)

	if offset.IsIdentity() {
		return o.newSpace(KindNull, parent.Retain())
	}

	sp := o.newSpace(KindOffset, parent.Retain())
	sp.offset = offset
	return sp
}

// CreateNullSpace creates a space coincident with parent.
func (o *Overseer) CreateNullSpace(parent *Space) *Space {
	o.mustOwn(parent)
	return o.newSpace(KindNull, parent.Retain())
}

// CreatePoseSpace creates a space that follows input on dev. Its parent is
// the space dev is bound to, since a device's pose is only meaningful in the
// frame it is tracked in. Returns ErrCodeUnknownDevice if dev was never bound.
func (o *Overseer) CreatePoseSpace(dev device.Device, input device.InputName) (*Space, error) {
	o.mu.RLock()
	b, ok := o.devices[dev.ID()]
	if ok {
		b.space.Retain()
	}
	o.mu.RUnlock()

	if !ok {
		o.logger.Error("Looking for space belonging to unknown device", "device", dev.Name())
		return nil, errors.New(errors.ErrCodeUnknownDevice, "no space bound to device %q", dev.Name())
	}

	sp := o.newSpace(KindPose, b.space)
	sp.dev = dev
	sp.input = input
	return sp, nil
}

// =============================================================================
// Graph shape
// =============================================================================

// BindDeviceToSpace records sp as the space dev reports its raw tracking in,
// taking a reference on sp. A previous binding is replaced with a warning
// and its reference dropped once the lock is released.
func (o *Overseer) BindDeviceToSpace(dev device.Device, sp *Space) {
	o.mustOwn(sp)
	sp.Retain()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		sp.Release()
		panic("space: bind on closed overseer")
	}
	old, replaced := o.devices[dev.ID()]
	o.devices[dev.ID()] = binding{dev: dev, space: sp}
	o.mu.Unlock()

	observability.Graph().OnBind(dev.Name(), replaced)

	if replaced {
		o.logger.Warn("Device already had a space attached", "device", dev.Name())
		old.space.Release()
	}
}

// DeviceSpace returns the space dev is bound to, retained for the caller, or
// false if dev is not bound.
func (o *Overseer) DeviceSpace(dev device.Device) (*Space, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	b, ok := o.devices[dev.ID()]
	if !ok {
		return nil, false
	}
	return b.space.Retain(), true
}

// Semantic returns the semantic space of the given kind, retained for the
// caller, or nil if this Overseer does not provide it.
func (o *Overseer) Semantic(kind device.ReferenceSpace) *Space {
	if !kind.Valid() {
		return nil
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	sp := o.semantic[kind]
	if sp == nil {
		return nil
	}
	return sp.Retain()
}

// SetSemantic assigns (or with nil, clears) a semantic space. The Overseer
// takes its own reference on sp; the caller keeps theirs.
func (o *Overseer) SetSemantic(kind device.ReferenceSpace, sp *Space) error {
	if !kind.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "invalid reference space %d", int(kind))
	}
	if sp != nil {
		o.mustOwn(sp)
		sp.Retain()
	}

	o.mu.Lock()
	old := o.semantic[kind]
	o.semantic[kind] = sp
	o.mu.Unlock()

	if old != nil {
		old.Release()
	}
	return nil
}

// SetNotifyDevice sets the device told about usage of semantic spaces that
// do not follow a device themselves, usually the head.
func (o *Overseer) SetNotifyDevice(dev device.Device) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notify = dev
}
