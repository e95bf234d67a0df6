package motion

import "github.com/go-gl/mathgl/mgl64"

// SeparatingDistanceUtil conservatively tracks the minimum separation between
// two moving convex bodies from their bounding radii and the motion observed
// between two sampled transforms. As long as the tracked distance stays
// positive, an exact narrow-phase distance query cannot find a contact and
// may be skipped.
type SeparatingDistanceUtil struct {
	ornA, ornB mgl64.Quat
	posA, posB mgl64.Vec3

	separatingNormal   mgl64.Vec3
	separatingDistance float64

	boundingRadiusA float64
	boundingRadiusB float64
}

// NewSeparatingDistanceUtil creates a tracker for two bodies with the given
// bounding sphere radii.
func NewSeparatingDistanceUtil(boundingRadiusA, boundingRadiusB float64) *SeparatingDistanceUtil {
	return &SeparatingDistanceUtil{
		boundingRadiusA: boundingRadiusA,
		boundingRadiusB: boundingRadiusB,
	}
}

// ConservativeSeparatingDistance returns the current lower bound on the
// separation. A non-positive value means a contact can no longer be ruled out.
func (u *SeparatingDistanceUtil) ConservativeSeparatingDistance() float64 {
	return u.separatingDistance
}

// InitSeparatingDistance seeds the tracker with an exact separation result:
// the witness normal (pointing from B to A) and distance, plus the transforms
// the result was computed at.
func (u *SeparatingDistanceUtil) InitSeparatingDistance(separatingNormal mgl64.Vec3, separatingDistance float64, transA, transB Transform) {
	u.separatingNormal = separatingNormal
	u.separatingDistance = separatingDistance

	if separatingDistance > 0 {
		u.posA = transA.Position
		u.posB = transB.Position
		u.ornA = transA.Rotation
		u.ornB = transB.Rotation
	}
}

// UpdateSeparatingDistance shrinks the tracked separation by an upper bound on
// the motion both bodies performed since the previous sample: the relative
// linear motion projected on the separating normal plus the worst-case surface
// sweep either body's rotation can produce within its bounding radius.
func (u *SeparatingDistanceUtil) UpdateSeparatingDistance(transA, transB Transform) {
	if u.separatingDistance > 0 {
		prevA := Transform{Position: u.posA, Rotation: u.ornA}
		prevB := Transform{Position: u.posB, Rotation: u.ornB}

		linVelA, angVelA := CalculateVelocity(prevA, transA, 1)
		linVelB, angVelB := CalculateVelocity(prevB, transB, 1)

		maxAngularProjectedVelocity := angVelA.Len()*u.boundingRadiusA + angVelB.Len()*u.boundingRadiusB

		relLinVel := linVelB.Sub(linVelA)
		relLinVelocLength := relLinVel.Dot(u.separatingNormal)
		if relLinVelocLength < 0 {
			relLinVelocLength = 0
		}

		projectedMotion := maxAngularProjectedVelocity + relLinVelocLength
		u.separatingDistance -= projectedMotion
	}

	u.posA = transA.Position
	u.posB = transB.Position
	u.ornA = transA.Rotation
	u.ornB = transB.Rotation
}
