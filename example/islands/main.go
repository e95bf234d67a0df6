package main

import (
	"fmt"

	"github.com/akmonengine/bedrock"
	"github.com/akmonengine/bedrock/motion"
	"github.com/go-gl/mathgl/mgl64"
)

// printer reports each island the manager emits
type printer struct{}

func (printer) ProcessIsland(bodies []*bedrock.CollisionObject, manifolds []bedrock.Manifold, islandID int) {
	fmt.Printf("island %d: %d bodies, %d manifolds\n", islandID, len(bodies), len(manifolds))
	for _, body := range bodies {
		fmt.Printf("   body at %v (tag %d)\n", body.Transform.Position, body.IslandTag)
	}
}

func newBody(world *bedrock.CollisionWorld, x, y, z float64, bodyType bedrock.BodyType) *bedrock.CollisionObject {
	transform := motion.NewTransform()
	transform.Position = mgl64.Vec3{x, y, z}

	body := bedrock.NewCollisionObject(transform, bodyType, 0.5)
	world.AddObject(body)
	return body
}

func main() {
	world := bedrock.NewCollisionWorld(1.0, 256)

	// two stacks resting on a shared static floor
	floor := newBody(world, 0, -1, 0, bedrock.BodyTypeStatic)
	a0 := newBody(world, 0, 0, 0, bedrock.BodyTypeDynamic)
	a1 := newBody(world, 0, 0.9, 0, bedrock.BodyTypeDynamic)
	b0 := newBody(world, 5, 0, 0, bedrock.BodyTypeDynamic)
	b1 := newBody(world, 5, 0.9, 0, bedrock.BodyTypeDynamic)

	a1.Velocity = mgl64.Vec3{0.1, 0, 0}
	a1.AngularVelocity = mgl64.Vec3{0, 0, 1}

	// a narrow phase would produce these from the pair cache; registered by
	// hand since bedrock only does the bookkeeping
	world.Dispatcher.AddManifold(&bedrock.ContactManifold{
		BodyA: a0, BodyB: a1, Points: []bedrock.ContactPoint{{Position: mgl64.Vec3{0, 0.45, 0}}},
	})
	world.Dispatcher.AddManifold(&bedrock.ContactManifold{
		BodyA: b0, BodyB: b1, Points: []bedrock.ContactPoint{{Position: mgl64.Vec3{5, 0.45, 0}}},
	})
	world.Dispatcher.AddManifold(&bedrock.ContactManifold{
		BodyA: a0, BodyB: floor, Points: []bedrock.ContactPoint{{Position: mgl64.Vec3{0, -0.5, 0}}},
	})

	for step := 0; step < 3; step++ {
		fmt.Printf("--- step %d ---\n", step)
		world.Step(1.0/60.0, printer{})
		fmt.Printf("broadphase pairs: %d\n", world.PairCache.NumOverlappingPairs())
	}

	stats := world.PairCache.Stats()
	fmt.Printf("pair cache: %d added, %d removed, %d found (%d attempts)\n",
		stats.AddedPairs, stats.RemovedPairs, stats.FoundPairs, stats.AddAttempts)
}
