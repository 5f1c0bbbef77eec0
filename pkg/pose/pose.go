// Package pose provides the small amount of rigid-body math the space graph
// needs: 3D vectors, unit quaternions and poses (orientation + position).
//
// Conventions follow the XR runtime: right-handed, Y is up, quaternions are
// stored as X, Y, Z, W and rotate vectors as q * v * q⁻¹. A [Pose] maps points
// from its own frame into its parent frame: p' = R·p + T.
//
// All values are plain structs and safe to copy. Nothing here allocates.
package pose

import "math"

// Vec3 is a 3-component vector in meters (positions) or meters per second
// (velocities), or radians per second for angular velocities.
type Vec3 struct {
	X, Y, Z float32
}

// Quat is an orientation quaternion. Most functions expect unit quaternions.
type Quat struct {
	X, Y, Z, W float32
}

// Pose is a rigid transform: rotate by Orientation, then translate by Position.
type Pose struct {
	Orientation Quat
	Position    Vec3
}

// IdentityQuat returns the no-rotation quaternion.
func IdentityQuat() Quat { return Quat{W: 1} }

// Identity returns the identity pose.
func Identity() Pose { return Pose{Orientation: IdentityQuat()} }

// New builds a pose from a position and orientation.
func New(position Vec3, orientation Quat) Pose {
	return Pose{Orientation: orientation, Position: position}
}

// Translation builds a pose with no rotation.
func Translation(x, y, z float32) Pose {
	return Pose{Orientation: IdentityQuat(), Position: Vec3{x, y, z}}
}

// IsIdentity reports whether p is exactly the identity pose. The comparison
// is exact on purpose: it gates the Null-space optimisation, where a near
// identity must still be stored as a real offset.
func (p Pose) IsIdentity() bool {
	if p.Position != (Vec3{}) {
		return false
	}
	q := p.Orientation
	return q.X == 0 && q.Y == 0 && q.Z == 0 && (q.W == 1 || q.W == -1)
}

// =============================================================================
// Vec3
// =============================================================================

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Neg returns -v.
func (v Vec3) Neg() Vec3 { return Vec3{-v.X, -v.Y, -v.Z} }

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns the cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Len returns the Euclidean length.
func (v Vec3) Len() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// =============================================================================
// Quat
// =============================================================================

// FromAxisAngle builds a rotation of angle radians about axis (need not be
// normalised).
func FromAxisAngle(axis Vec3, angle float64) Quat {
	l := axis.Len()
	if l == 0 {
		return IdentityQuat()
	}
	s := float32(math.Sin(angle/2)) / l
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: float32(math.Cos(angle / 2)),
	}
}

// FromYaw builds a rotation of yaw radians about the up (Y) axis.
func FromYaw(yaw float64) Quat {
	return Quat{Y: float32(math.Sin(yaw / 2)), W: float32(math.Cos(yaw / 2))}
}

// Yaw returns the heading of q about the up axis, in radians, in (-π, π].
func (q Quat) Yaw() float64 {
	f := q.Rotate(Vec3{Z: -1})
	return math.Atan2(float64(-f.X), float64(-f.Z))
}

// Mul returns q * o (apply o first, then q).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Conjugate returns the conjugate, which is the inverse for unit quaternions.
func (q Quat) Conjugate() Quat { return Quat{-q.X, -q.Y, -q.Z, q.W} }

// Len returns the quaternion norm.
func (q Quat) Len() float32 {
	return float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
}

// Normalize returns q scaled to unit length. A zero quaternion normalises to
// identity rather than NaN.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l == 0 {
		return IdentityQuat()
	}
	inv := 1 / l
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// Rotate rotates v by q.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v' = v + 2w(u×v) + 2u×(u×v), u = (x, y, z)
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// RotateDerivative rotates an angular velocity vector by q. For a unit
// quaternion this is the same as rotating a vector; it is kept separate so
// the composition code reads like the math it implements.
func (q Quat) RotateDerivative(w Vec3) Vec3 {
	return q.Rotate(w)
}

// YawOnly strips pitch and roll from q, keeping only the rotation about the
// up axis, and normalises the result.
func YawOnly(q Quat) Quat {
	q.X = 0
	q.Z = 0
	return q.Normalize()
}

// =============================================================================
// Pose
// =============================================================================

// Invert returns the pose that undoes p.
func (p Pose) Invert() Pose {
	inv := p.Orientation.Conjugate()
	return Pose{
		Orientation: inv,
		Position:    inv.Rotate(p.Position.Neg()),
	}
}

// TransformPoint maps a point from p's frame into its parent frame.
func (p Pose) TransformPoint(v Vec3) Vec3 {
	return p.Orientation.Rotate(v).Add(p.Position)
}

// Transform composes base and body: the result maps points from body's frame
// through base into base's parent frame.
func Transform(base, body Pose) Pose {
	return Pose{
		Orientation: base.Orientation.Mul(body.Orientation),
		Position:    base.TransformPoint(body.Position),
	}
}

// ApproxEqual reports whether a and b are within eps on every component.
// Quaternions q and -q describe the same rotation and compare equal.
func ApproxEqual(a, b Pose, eps float32) bool {
	if !vecNear(a.Position, b.Position, eps) {
		return false
	}
	qa, qb := a.Orientation, b.Orientation
	if quatNear(qa, qb, eps) {
		return true
	}
	return quatNear(qa, Quat{-qb.X, -qb.Y, -qb.Z, -qb.W}, eps)
}

func vecNear(a, b Vec3, eps float32) bool {
	return near(a.X, b.X, eps) && near(a.Y, b.Y, eps) && near(a.Z, b.Z, eps)
}

func quatNear(a, b Quat, eps float32) bool {
	return near(a.X, b.X, eps) && near(a.Y, b.Y, eps) && near(a.Z, b.Z, eps) && near(a.W, b.W, eps)
}

func near(a, b, eps float32) bool {
	d := a - b
	return d <= eps && d >= -eps
}
