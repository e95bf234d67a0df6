package bedrock

// World supplies the collision objects tracked by the island manager.
// Object indices in the returned slice are the index space of the union-find.
type World interface {
	CollisionObjects() []*CollisionObject
}

// IslandCallback receives each island exactly once per step. The bodies and
// manifolds slices alias the manager's scratch buffers and are only valid for
// the duration of the call; ProcessIslandsParallel hands out copies instead.
type IslandCallback interface {
	ProcessIsland(bodies []*CollisionObject, manifolds []Manifold, islandID int)
}

// islandRange is one island's slice of the grouped body scratch list.
type islandRange struct {
	id    int
	start int
	end   int
}

// SimulationIslandManager groups contact-connected collision objects into
// islands with a union-find rebuilt every step. Required call order per step:
// UpdateActivationState, then BuildIslands or BuildAndProcessIslands.
type SimulationIslandManager struct {
	unionFind UnionFind

	// scratch, reused across steps
	islandBodies    []*CollisionObject
	islandRanges    []islandRange
	islandManifolds []Manifold

	activated bool
}

// NewSimulationIslandManager creates an island manager.
func NewSimulationIslandManager() *SimulationIslandManager {
	return &SimulationIslandManager{}
}

// UnionFind exposes the manager's union-find, mainly for tests and tooling.
func (m *SimulationIslandManager) UnionFind() *UnionFind {
	return &m.unionFind
}

// InitUnionFind resets the union-find to n elements.
func (m *SimulationIslandManager) InitUnionFind(n int) {
	m.unionFind.Reset(n)
	m.activated = false
}

// UpdateActivationState starts a new island pass: every object is tagged with
// its array index (or NullIsland when it does not merge islands), its
// companion id is cleared, it is marked active, and contact-connected objects
// are united via FindUnions.
func (m *SimulationIslandManager) UpdateActivationState(world World, dispatcher Dispatcher) {
	objects := world.CollisionObjects()
	m.InitUnionFind(len(objects))

	for i, obj := range objects {
		if obj.MergesSimulationIslands() {
			obj.IslandTag = i
		} else {
			obj.IslandTag = NullIsland
		}
		obj.CompanionID = NullIsland
		obj.Awake()
	}
	m.activated = true

	m.FindUnions(dispatcher, world)
}

// FindUnions unites the two bodies of every manifold that has at least one
// contact point and both island tags non-negative.
func (m *SimulationIslandManager) FindUnions(dispatcher Dispatcher, world World) {
	for i := 0; i < dispatcher.NumManifolds(); i++ {
		manifold := dispatcher.ManifoldByIndex(i)
		if manifold.NumContacts() == 0 {
			continue
		}

		tag0 := manifold.Body0().IslandTag
		tag1 := manifold.Body1().IslandTag
		if tag0 >= 0 && tag1 >= 0 {
			m.unionFind.Unite(tag0, tag1)
		}
	}
}

// StoreIslandActivationState resolves every tracked object's island tag to
// its union-find root, making the island id durable on the object for the
// rest of the step.
func (m *SimulationIslandManager) StoreIslandActivationState(world World) {
	for i, obj := range world.CollisionObjects() {
		if obj.IslandTag >= 0 {
			obj.IslandTag = m.unionFind.Find(i)
		}
		obj.CompanionID = NullIsland
	}
}

// BuildIslands finalizes the union-find and collects the per-island body
// groups plus the flat list of manifolds carrying contacts. Must follow
// UpdateActivationState within the same step.
func (m *SimulationIslandManager) BuildIslands(dispatcher Dispatcher, world World) {
	if !m.activated {
		panic("bedrock: BuildIslands requires UpdateActivationState first")
	}
	// SortIslands invalidates index-to-root lookups, so one build per activation
	m.activated = false

	m.islandBodies = m.islandBodies[:0]
	m.islandRanges = m.islandRanges[:0]
	m.islandManifolds = m.islandManifolds[:0]

	m.StoreIslandActivationState(world)
	m.unionFind.SortIslands()

	objects := world.CollisionObjects()
	n := m.unionFind.NumElements()

	// the sorted union-find is grouped by root id ascending; each run is one
	// island, Sz holds the member's original object index
	for start := 0; start < n; {
		islandID := m.unionFind.Element(start).ID

		end := start
		bodiesStart := len(m.islandBodies)
		for ; end < n && m.unionFind.Element(end).ID == islandID; end++ {
			m.islandBodies = append(m.islandBodies, objects[m.unionFind.Element(end).Sz])
		}

		m.islandRanges = append(m.islandRanges, islandRange{
			id:    islandID,
			start: bodiesStart,
			end:   len(m.islandBodies),
		})
		start = end
	}

	for i := 0; i < dispatcher.NumManifolds(); i++ {
		manifold := dispatcher.ManifoldByIndex(i)
		if manifold.NumContacts() > 0 {
			m.islandManifolds = append(m.islandManifolds, manifold)
		}
	}
}

// manifoldIslandID resolves a manifold to the island of whichever body
// carries a non-negative tag, or NullIsland when neither body merges islands.
func manifoldIslandID(manifold Manifold) int {
	if tag := manifold.Body0().IslandTag; tag >= 0 {
		return tag
	}
	return manifold.Body1().IslandTag
}

// ProcessIslands invokes the callback once per island built by BuildIslands,
// ascending by root id. Within an island, body order follows the original
// object indices and manifold order follows dispatcher order.
func (m *SimulationIslandManager) ProcessIslands(dispatcher Dispatcher, world World, callback IslandCallback) {
	buckets := make(map[int][]Manifold, len(m.islandRanges))
	for _, manifold := range m.islandManifolds {
		id := manifoldIslandID(manifold)
		if id == NullIsland {
			// both bodies excluded from merging, no island to hand it to
			continue
		}
		buckets[id] = append(buckets[id], manifold)
	}

	for _, r := range m.islandRanges {
		callback.ProcessIsland(m.islandBodies[r.start:r.end], buckets[r.id], r.id)
	}
}

// BuildAndProcessIslands composes BuildIslands and ProcessIslands.
func (m *SimulationIslandManager) BuildAndProcessIslands(dispatcher Dispatcher, world World, callback IslandCallback) {
	m.BuildIslands(dispatcher, world)
	m.ProcessIslands(dispatcher, world, callback)
}

// islandWork is a detached snapshot of one island, safe to hand to a worker.
type islandWork struct {
	bodies    []*CollisionObject
	manifolds []Manifold
	id        int
}

// ProcessIslandsParallel fans the islands built by BuildIslands out over
// workers goroutines. Islands are independent, but the manager's scratch
// buffers are not: each island's body and manifold lists are copied before
// dispatch. The callback must be safe for concurrent use.
func (m *SimulationIslandManager) ProcessIslandsParallel(dispatcher Dispatcher, world World, callback IslandCallback, workers int) {
	workers = max(1, workers)

	buckets := make(map[int][]Manifold, len(m.islandRanges))
	for _, manifold := range m.islandManifolds {
		id := manifoldIslandID(manifold)
		if id == NullIsland {
			continue
		}
		buckets[id] = append(buckets[id], manifold)
	}

	works := make([]islandWork, 0, len(m.islandRanges))
	for _, r := range m.islandRanges {
		bodies := make([]*CollisionObject, r.end-r.start)
		copy(bodies, m.islandBodies[r.start:r.end])

		manifolds := make([]Manifold, len(buckets[r.id]))
		copy(manifolds, buckets[r.id])

		works = append(works, islandWork{bodies: bodies, manifolds: manifolds, id: r.id})
	}

	task(workers, works, func(work islandWork) {
		callback.ProcessIsland(work.bodies, work.manifolds, work.id)
	})
}
