package bedrock

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/bedrock/motion"
)

// BodyType represents the type of collision object
type BodyType int

const (
	// BodyTypeDynamic objects move freely and merge simulation islands
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic objects are immovable (e.g., ground, walls) and never
	// merge islands: shared contacts with static geometry must not connect
	// unrelated dynamic islands
	BodyTypeStatic

	// BodyTypeKinematic objects are driven externally; like static objects
	// they do not merge islands
	BodyTypeKinematic
)

// NullIsland is the island tag of objects excluded from island merging.
const NullIsland = -1

// CollisionObject is a broadphase-tracked entity: a transform with
// velocities, a bounding volume, and the island bookkeeping scratch fields
// written by the SimulationIslandManager each step.
type CollisionObject struct {
	Transform         motion.Transform
	PreviousTransform motion.Transform

	Velocity        mgl64.Vec3 // linear velocity (m/s)
	AngularVelocity mgl64.Vec3 // rotation speed (rad/s)

	// Island scratch, rewritten every step by the island manager
	IslandTag   int
	CompanionID int

	IsSleeping bool
	SleepTimer float64

	BodyType BodyType
	// ResponseDisabled objects still produce pairs and manifolds but are
	// excluded from island merging
	ResponseDisabled bool

	// BoundingRadius bounds the object around its position, for the
	// broadphase AABB and conservative separation estimates
	BoundingRadius float64
	AABB           AABB

	// Proxy is the broadphase slot index, -1 while not inserted
	Proxy int
}

// NewCollisionObject creates a collision object at the given transform.
func NewCollisionObject(transform motion.Transform, bodyType BodyType, boundingRadius float64) *CollisionObject {
	obj := &CollisionObject{
		Transform:         transform,
		PreviousTransform: transform,
		BodyType:          bodyType,
		BoundingRadius:    boundingRadius,
		IslandTag:         NullIsland,
		CompanionID:       NullIsland,
		Proxy:             -1,
	}
	obj.UpdateAABB()

	return obj
}

// MergesSimulationIslands reports whether contacts on this object connect
// islands.
func (obj *CollisionObject) MergesSimulationIslands() bool {
	return obj.BodyType == BodyTypeDynamic && !obj.ResponseDisabled
}

// PredictMotion returns the transform one integration step ahead without
// committing it.
func (obj *CollisionObject) PredictMotion(dt float64) motion.Transform {
	return motion.IntegrateTransform(obj.Transform, obj.Velocity, obj.AngularVelocity, dt)
}

// StepMotion advances the object's transform by dt and refreshes its AABB.
// Static and sleeping objects do not move.
func (obj *CollisionObject) StepMotion(dt float64) {
	if obj.BodyType == BodyTypeStatic || obj.IsSleeping {
		return
	}

	obj.PreviousTransform = obj.Transform
	obj.Transform = obj.PredictMotion(dt)
	obj.UpdateAABB()
}

// UpdateAABB recomputes the bounding box from the current position and
// bounding radius.
func (obj *CollisionObject) UpdateAABB() {
	r := mgl64.Vec3{obj.BoundingRadius, obj.BoundingRadius, obj.BoundingRadius}
	obj.AABB = AABB{
		Min: obj.Transform.Position.Sub(r),
		Max: obj.Transform.Position.Add(r),
	}
}

// TrySleep sets the object to sleep if its velocity stays under the threshold
// for the given duration
func (obj *CollisionObject) TrySleep(dt float64, timeThreshold float64, velocityThreshold float64) {
	if obj.Velocity.Len() < velocityThreshold && obj.AngularVelocity.Len() < velocityThreshold {
		obj.SleepTimer += dt
		if obj.SleepTimer >= timeThreshold {
			obj.Sleep()
		}
	} else {
		obj.Awake()
	}
}

func (obj *CollisionObject) Sleep() {
	obj.IsSleeping = true
	obj.SleepTimer = 0.0

	obj.Velocity = mgl64.Vec3{}
	obj.AngularVelocity = mgl64.Vec3{}
}

func (obj *CollisionObject) Awake() {
	obj.IsSleeping = false
	obj.SleepTimer = 0.0
}
