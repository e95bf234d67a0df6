package bedrock

import "github.com/go-gl/mathgl/mgl64"

// Manifold is a persistent record of contact points between two collision
// objects, read-only to this package. Manifolds are produced by an external
// narrow phase and reported through a Dispatcher.
type Manifold interface {
	Body0() *CollisionObject
	Body1() *CollisionObject
	NumContacts() int
}

// Dispatcher reports the currently live contact manifolds and releases the
// narrow-phase algorithm state attached to a broadphase pair when the pair
// dies.
type Dispatcher interface {
	NumManifolds() int
	ManifoldByIndex(i int) Manifold
	ReleasePairAlgorithm(pair *BroadphasePair)
}

// ContactPoint is one contact of a manifold.
type ContactPoint struct {
	Position    mgl64.Vec3
	Penetration float64
}

// ContactManifold is a basic in-memory Manifold.
type ContactManifold struct {
	BodyA  *CollisionObject
	BodyB  *CollisionObject
	Points []ContactPoint
}

func (m *ContactManifold) Body0() *CollisionObject { return m.BodyA }
func (m *ContactManifold) Body1() *CollisionObject { return m.BodyB }
func (m *ContactManifold) NumContacts() int        { return len(m.Points) }

// ContactManifoldSet is a minimal Dispatcher: a manifold list plus a
// free-list of narrow-phase algorithm slots keyed by BroadphasePair
// AlgorithmID. A real narrow phase would populate it between the broadphase
// update and island building.
type ContactManifoldSet struct {
	manifolds []*ContactManifold

	freeAlgorithms []int
	algorithmCount int
}

// NewContactManifoldSet creates an empty manifold set.
func NewContactManifoldSet() *ContactManifoldSet {
	return &ContactManifoldSet{}
}

// AddManifold registers a manifold for the current step.
func (s *ContactManifoldSet) AddManifold(manifold *ContactManifold) {
	s.manifolds = append(s.manifolds, manifold)
}

// RemoveManifoldsFor drops every manifold referencing body.
func (s *ContactManifoldSet) RemoveManifoldsFor(body *CollisionObject) {
	for i := len(s.manifolds) - 1; i >= 0; i-- {
		if s.manifolds[i].BodyA == body || s.manifolds[i].BodyB == body {
			s.manifolds = append(s.manifolds[:i], s.manifolds[i+1:]...)
		}
	}
}

// Clear drops all manifolds, typically once per step before the narrow phase
// repopulates the set.
func (s *ContactManifoldSet) Clear() {
	s.manifolds = s.manifolds[:0]
}

func (s *ContactManifoldSet) NumManifolds() int {
	return len(s.manifolds)
}

func (s *ContactManifoldSet) ManifoldByIndex(i int) Manifold {
	return s.manifolds[i]
}

// AcquireAlgorithm hands out an algorithm table slot for a new pair, reusing
// released slots first.
func (s *ContactManifoldSet) AcquireAlgorithm(pair *BroadphasePair) int {
	if n := len(s.freeAlgorithms); n > 0 {
		id := s.freeAlgorithms[n-1]
		s.freeAlgorithms = s.freeAlgorithms[:n-1]
		pair.AlgorithmID = id
		return id
	}

	id := s.algorithmCount
	s.algorithmCount++
	pair.AlgorithmID = id
	return id
}

// ReleasePairAlgorithm returns a dying pair's algorithm slot to the free-list.
func (s *ContactManifoldSet) ReleasePairAlgorithm(pair *BroadphasePair) {
	if pair.AlgorithmID >= 0 {
		s.freeAlgorithms = append(s.freeAlgorithms, pair.AlgorithmID)
	}
}
