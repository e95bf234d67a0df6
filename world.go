package bedrock

// CollisionWorld owns the collision objects and composes the bookkeeping
// pipeline: broadphase pair maintenance, contact manifolds (populated by an
// external narrow phase through the dispatcher), and island extraction.
type CollisionWorld struct {
	Objects []*CollisionObject

	Broadphase    *UniformGridBroadphase
	PairCache     OverlappingPairCache
	Dispatcher    *ContactManifoldSet
	IslandManager *SimulationIslandManager
}

// NewCollisionWorld creates a world with a hashed pair cache and a uniform
// grid broadphase of the given cell size and cell count.
func NewCollisionWorld(cellSize float64, numCells int) *CollisionWorld {
	return &CollisionWorld{
		Broadphase:    NewUniformGridBroadphase(cellSize, numCells),
		PairCache:     NewHashedOverlappingPairCache(),
		Dispatcher:    NewContactManifoldSet(),
		IslandManager: NewSimulationIslandManager(),
	}
}

// CollisionObjects returns the tracked objects; their slice indices are the
// island manager's union-find index space.
func (w *CollisionWorld) CollisionObjects() []*CollisionObject {
	return w.Objects
}

// AddObject inserts an object into the world and the broadphase.
func (w *CollisionWorld) AddObject(obj *CollisionObject) {
	obj.Proxy = w.Broadphase.CreateProxy(obj.AABB)
	w.Objects = append(w.Objects, obj)
}

// RemoveObject takes an object out of the world, destroying its broadphase
// proxy (which removes its cached pairs) and dropping its manifolds.
func (w *CollisionWorld) RemoveObject(obj *CollisionObject) {
	k := -1
	for i, o := range w.Objects {
		if o == obj {
			k = i
			break
		}
	}
	if k == -1 {
		return
	}

	w.Objects = append(w.Objects[:k], w.Objects[k+1:]...)
	w.Broadphase.DestroyProxy(obj.Proxy, w.PairCache, w.Dispatcher)
	w.Dispatcher.RemoveManifoldsFor(obj)
	obj.Proxy = -1
}

// UpdateBroadphase pushes every object's current AABB into the broadphase and
// refreshes the overlapping pair set.
func (w *CollisionWorld) UpdateBroadphase() {
	for _, obj := range w.Objects {
		if obj.Proxy >= 0 {
			w.Broadphase.SetAABB(obj.Proxy, obj.AABB)
		}
	}
	w.Broadphase.UpdatePairs(w.PairCache, w.Dispatcher)
}

// Step advances every awake dynamic object's transform, refreshes the
// broadphase pairs, and runs island extraction over the manifolds currently
// registered with the dispatcher. Narrow-phase contact generation and
// constraint solving are the callback's concern.
func (w *CollisionWorld) Step(dt float64, callback IslandCallback) {
	for _, obj := range w.Objects {
		obj.StepMotion(dt)
	}

	w.UpdateBroadphase()

	w.IslandManager.UpdateActivationState(w, w.Dispatcher)
	w.IslandManager.BuildAndProcessIslands(w.Dispatcher, w, callback)

	w.trySleep(dt)
}

// trySleep sets objects to sleep when their velocity stayed under the
// threshold long enough; a sleeping object skips motion on the next steps
// until something wakes it
func (w *CollisionWorld) trySleep(dt float64) {
	for _, obj := range w.Objects {
		obj.TrySleep(dt, 0.1, 0.05)
	}
}
