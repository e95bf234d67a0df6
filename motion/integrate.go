package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AngularMotionThreshold caps the rotation a single step may integrate (≈45°).
// Above it the angular velocity magnitude is rescaled so the step rotates by
// exactly the threshold, which keeps fast spinners numerically stable.
const AngularMotionThreshold = 0.5 * math.Pi / 2

// squared-length below which a quaternion or axis is treated as degenerate
const lengthNoiseThreshold = 1e-12

// IntegrateTransform advances a transform by one explicit Euler step for the
// linear part and one exponential-map step for the angular part.
// timeStep must be positive; a zero timeStep is a caller bug and is not guarded.
func IntegrateTransform(current Transform, linearVelocity, angularVelocity mgl64.Vec3, timeStep float64) Transform {
	predicted := Transform{
		Position: current.Position.Add(linearVelocity.Mul(timeStep)),
	}

	angleSq := angularVelocity.Dot(angularVelocity)
	angle := 0.0
	if angleSq > lengthNoiseThreshold {
		angle = math.Sqrt(angleSq)
	}

	if angle*timeStep > AngularMotionThreshold {
		// rescale the whole vector, not just the magnitude, so the increment
		// quaternion stays unit and the step rotates by exactly the threshold
		clamped := AngularMotionThreshold / timeStep
		angularVelocity = angularVelocity.Mul(clamped / angle)
		angle = clamped
	}

	var axis mgl64.Vec3
	if angle < 0.001 {
		// third-order Taylor expansion of sin(angle*t/2)/angle around zero
		axis = angularVelocity.Mul(0.5*timeStep - timeStep*timeStep*timeStep*(1.0/48.0)*angle*angle)
	} else {
		axis = angularVelocity.Mul(math.Sin(0.5*angle*timeStep) / angle)
	}

	increment := mgl64.Quat{W: math.Cos(0.5 * angle * timeStep), V: axis}
	predicted.Rotation = safeNormalize(increment.Mul(current.Rotation), current.Rotation)

	return predicted
}

// safeNormalize normalizes q, falling back to the previous rotation when the
// product degenerated to numerical noise.
func safeNormalize(q mgl64.Quat, fallback mgl64.Quat) mgl64.Quat {
	lenSq := q.W*q.W + q.V.Dot(q.V)
	if lenSq <= lengthNoiseThreshold {
		return fallback
	}
	return q.Scale(1 / math.Sqrt(lenSq))
}

// CalculateVelocity derives the linear and angular velocity that move
// transform t0 onto t1 over timeStep.
func CalculateVelocity(t0, t1 Transform, timeStep float64) (linearVelocity, angularVelocity mgl64.Vec3) {
	return CalculateVelocityQuaternion(t0.Position, t1.Position, t0.Rotation, t1.Rotation, timeStep)
}

// CalculateVelocityQuaternion is CalculateVelocity over raw position/orientation pairs.
func CalculateVelocityQuaternion(pos0, pos1 mgl64.Vec3, orn0, orn1 mgl64.Quat, timeStep float64) (linearVelocity, angularVelocity mgl64.Vec3) {
	linearVelocity = pos1.Sub(pos0).Mul(1 / timeStep)

	if orn0 != orn1 {
		axis, angle := CalculateDiffAxisAngleQuaternion(orn0, orn1)
		angularVelocity = axis.Mul(angle / timeStep)
	}

	return linearVelocity, angularVelocity
}

// CalculateDiffAxisAngle extracts the rotation axis and angle taking t0's
// orientation onto t1's.
func CalculateDiffAxisAngle(t0, t1 Transform) (axis mgl64.Vec3, angle float64) {
	return CalculateDiffAxisAngleQuaternion(t0.Rotation, t1.Rotation)
}

// CalculateDiffAxisAngleQuaternion extracts the axis and angle between two
// orientations, picking the double-cover representative of orn1 nearest orn0
// so a near-identity delta never reads as a full turn.
func CalculateDiffAxisAngleQuaternion(orn0, orn1 mgl64.Quat) (axis mgl64.Vec3, angle float64) {
	delta := nearest(orn0, orn1).Mul(orn0.Inverse())
	angle = quatAngle(delta)

	axis = delta.V
	lenSq := axis.Dot(axis)
	if lenSq < lengthNoiseThreshold {
		// degenerate axis, the (near-zero) angle keeps its computed value
		axis = mgl64.Vec3{1, 0, 0}
	} else {
		axis = axis.Mul(1 / math.Sqrt(lenSq))
	}

	return axis, angle
}

// nearest returns q or -q, whichever lies closer to reference on the 4-sphere.
func nearest(reference, q mgl64.Quat) mgl64.Quat {
	diff := reference.Sub(q)
	sum := reference.Add(q)
	if diff.Dot(diff) < sum.Dot(sum) {
		return q
	}
	return q.Scale(-1)
}

// quatAngle returns the rotation angle encoded by a unit quaternion.
func quatAngle(q mgl64.Quat) float64 {
	w := q.W
	if w > 1 {
		w = 1
	} else if w < -1 {
		w = -1
	}
	return 2 * math.Acos(w)
}
