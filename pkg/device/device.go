// Package device defines the tracked-device abstraction the space graph
// consumes: something that can report a pose for one of its named inputs at
// a given time, and that may want to know when reference spaces it backs go
// in and out of use.
//
// Drivers, prediction and filtering live behind the [Device] interface; the
// space graph only relies on the contract documented on each method.
package device

import (
	"fmt"
	"strings"

	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/relation"
)

// ID is a stable, opaque device handle. It is an explicit value rather than
// an address so that a device map can never alias a freed and reused object.
type ID uint64

// InputName identifies a pose-producing input on a device.
type InputName uint32

// Well-known inputs. InputNone is used for notifications that are not tied to
// a specific input.
const (
	InputNone InputName = iota
	InputHeadPose
	InputGripPose
	InputAimPose
	InputHandTracking
)

// String returns the input's short name.
func (n InputName) String() string {
	switch n {
	case InputNone:
		return "none"
	case InputHeadPose:
		return "head"
	case InputGripPose:
		return "grip"
	case InputAimPose:
		return "aim"
	case InputHandTracking:
		return "hand"
	}
	return fmt.Sprintf("input(%d)", uint32(n))
}

// ParseInputName maps a short name (as printed by String) to an InputName.
func ParseInputName(s string) (InputName, error) {
	for n := InputNone; n <= InputHandTracking; n++ {
		if strings.EqualFold(s, n.String()) {
			return n, nil
		}
	}
	return InputNone, fmt.Errorf("unknown input %q", s)
}

// ReferenceSpace is one of the well-known semantic spaces exposed by name.
type ReferenceSpace int

const (
	ReferenceSpaceView ReferenceSpace = iota
	ReferenceSpaceLocal
	ReferenceSpaceLocalFloor
	ReferenceSpaceStage
	ReferenceSpaceUnbounded

	// ReferenceSpaceCount is the number of semantic spaces.
	ReferenceSpaceCount
)

// String returns the space's short name.
func (k ReferenceSpace) String() string {
	switch k {
	case ReferenceSpaceView:
		return "view"
	case ReferenceSpaceLocal:
		return "local"
	case ReferenceSpaceLocalFloor:
		return "local_floor"
	case ReferenceSpaceStage:
		return "stage"
	case ReferenceSpaceUnbounded:
		return "unbounded"
	}
	return fmt.Sprintf("reference_space(%d)", int(k))
}

// Valid reports whether k names a semantic space.
func (k ReferenceSpace) Valid() bool {
	return k >= 0 && k < ReferenceSpaceCount
}

// ParseReferenceSpace maps a short name to a ReferenceSpace. Both
// "local_floor" and "local-floor" are accepted.
func ParseReferenceSpace(s string) (ReferenceSpace, error) {
	s = strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for k := ReferenceSpace(0); k < ReferenceSpaceCount; k++ {
		if s == k.String() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown reference space %q", s)
}

// TrackingOrigin groups devices whose raw poses are reported in the same
// tracking frame, for example all devices tracked by one set of base
// stations. Offset places that frame in the world.
type TrackingOrigin struct {
	Name   string
	Offset pose.Pose
}

// Device is a tracked device.
type Device interface {
	// ID returns the device's stable handle.
	ID() ID

	// Name returns a human readable name used in logs.
	Name() string

	// TrackingOrigin returns the frame the device reports poses in. May be
	// nil for devices that are bound to a space explicitly.
	TrackingOrigin() *TrackingOrigin

	// TrackedPose samples input name at atNS (monotonic nanoseconds),
	// predicted as the device sees fit. It must be safe to call from any
	// goroutine and must not retain its arguments. Loss of tracking is
	// reported through the relation flags, never by panicking.
	TrackedPose(name InputName, atNS int64) relation.Relation

	// RefSpaceUsageSupported reports whether NotifyRefSpaceUsage is of any
	// interest to this device.
	RefSpaceUsageSupported() bool

	// NotifyRefSpaceUsage is a best-effort hint that reference space kind,
	// backed by input name on this device, went in (used) or out of use.
	NotifyRefSpaceUsage(kind ReferenceSpace, name InputName, used bool)
}
