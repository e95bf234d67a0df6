package bedrock

import (
	"sort"
	"sync"
	"testing"

	"github.com/akmonengine/bedrock/motion"
)

// =============================================================================
// Helpers
// =============================================================================

type testWorld struct {
	objects []*CollisionObject
}

func (w *testWorld) CollisionObjects() []*CollisionObject {
	return w.objects
}

func makeTestWorld(bodyTypes ...BodyType) *testWorld {
	w := &testWorld{}
	for _, bt := range bodyTypes {
		w.objects = append(w.objects, NewCollisionObject(motion.NewTransform(), bt, 0.5))
	}
	return w
}

func contact(a, b *CollisionObject) *ContactManifold {
	return &ContactManifold{
		BodyA:  a,
		BodyB:  b,
		Points: []ContactPoint{{}},
	}
}

type recordedIsland struct {
	id        int
	bodies    []*CollisionObject
	manifolds []Manifold
}

// islandRecorder captures every callback invocation, copying the slices since
// they alias the manager's scratch buffers.
type islandRecorder struct {
	mu      sync.Mutex
	islands []recordedIsland
}

func (r *islandRecorder) ProcessIsland(bodies []*CollisionObject, manifolds []Manifold, islandID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	island := recordedIsland{id: islandID}
	island.bodies = append(island.bodies, bodies...)
	island.manifolds = append(island.manifolds, manifolds...)
	r.islands = append(r.islands, island)
}

func (r *islandRecorder) sortByID() {
	sort.Slice(r.islands, func(a, b int) bool { return r.islands[a].id < r.islands[b].id })
}

func runIslands(world *testWorld, dispatcher *ContactManifoldSet) *islandRecorder {
	manager := NewSimulationIslandManager()
	recorder := &islandRecorder{}

	manager.UpdateActivationState(world, dispatcher)
	manager.BuildAndProcessIslands(dispatcher, world, recorder)

	return recorder
}

func hasBody(island recordedIsland, obj *CollisionObject) bool {
	for _, b := range island.bodies {
		if b == obj {
			return true
		}
	}
	return false
}

// =============================================================================
// SimulationIslandManager
// =============================================================================

func TestIslandManager_TwoIslandScenario(t *testing.T) {
	world := makeTestWorld(BodyTypeDynamic, BodyTypeDynamic, BodyTypeDynamic, BodyTypeDynamic)
	dispatcher := NewContactManifoldSet()

	m01 := contact(world.objects[0], world.objects[1])
	m23 := contact(world.objects[2], world.objects[3])
	dispatcher.AddManifold(m01)
	dispatcher.AddManifold(m23)

	recorder := runIslands(world, dispatcher)

	if len(recorder.islands) != 2 {
		t.Fatalf("emitted %d islands, want 2", len(recorder.islands))
	}

	for _, island := range recorder.islands {
		switch {
		case hasBody(island, world.objects[0]):
			if len(island.bodies) != 2 || !hasBody(island, world.objects[1]) {
				t.Errorf("island %d = %d bodies, want exactly {0, 1}", island.id, len(island.bodies))
			}
			if len(island.manifolds) != 1 || island.manifolds[0] != Manifold(m01) {
				t.Errorf("island %d carries wrong manifolds", island.id)
			}
		case hasBody(island, world.objects[2]):
			if len(island.bodies) != 2 || !hasBody(island, world.objects[3]) {
				t.Errorf("island %d = %d bodies, want exactly {2, 3}", island.id, len(island.bodies))
			}
			if len(island.manifolds) != 1 || island.manifolds[0] != Manifold(m23) {
				t.Errorf("island %d carries wrong manifolds", island.id)
			}
		default:
			t.Errorf("island %d contains neither object 0 nor object 2", island.id)
		}
	}
}

func TestIslandManager_PartitionCorrectness(t *testing.T) {
	tests := []struct {
		name        string
		objects     int
		contacts    [][2]int
		wantIslands int
	}{
		{"no contacts", 3, nil, 3},
		{"single chain", 4, [][2]int{{0, 1}, {1, 2}, {2, 3}}, 1},
		{"two components", 5, [][2]int{{0, 1}, {3, 4}}, 3},
		{"cycle", 3, [][2]int{{0, 1}, {1, 2}, {2, 0}}, 1},
		{"duplicate contacts", 2, [][2]int{{0, 1}, {0, 1}, {1, 0}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types := make([]BodyType, tt.objects)
			world := makeTestWorld(types...)
			dispatcher := NewContactManifoldSet()
			for _, c := range tt.contacts {
				dispatcher.AddManifold(contact(world.objects[c[0]], world.objects[c[1]]))
			}

			recorder := runIslands(world, dispatcher)

			if len(recorder.islands) != tt.wantIslands {
				t.Fatalf("emitted %d islands, want %d", len(recorder.islands), tt.wantIslands)
			}

			// the union of all islands is the full object set, each exactly once
			seen := map[*CollisionObject]int{}
			for _, island := range recorder.islands {
				for _, b := range island.bodies {
					seen[b]++
				}
			}
			if len(seen) != tt.objects {
				t.Errorf("islands cover %d objects, want %d", len(seen), tt.objects)
			}
			for obj, count := range seen {
				if count != 1 {
					t.Errorf("object %p emitted %d times, want 1", obj, count)
				}
			}

			// contact-connected objects must share an island
			for _, c := range tt.contacts {
				a, b := world.objects[c[0]], world.objects[c[1]]
				if a.IslandTag != b.IslandTag {
					t.Errorf("contact (%d, %d): tags %d vs %d, want equal", c[0], c[1], a.IslandTag, b.IslandTag)
				}
			}
		})
	}
}

func TestIslandManager_StaticDoesNotMergeIslands(t *testing.T) {
	// two dynamic boxes resting on one static floor must stay separate islands
	world := makeTestWorld(BodyTypeDynamic, BodyTypeStatic, BodyTypeDynamic)
	floor := world.objects[1]
	dispatcher := NewContactManifoldSet()
	dispatcher.AddManifold(contact(world.objects[0], floor))
	dispatcher.AddManifold(contact(world.objects[2], floor))

	recorder := runIslands(world, dispatcher)

	if floor.IslandTag != NullIsland {
		t.Errorf("static object IslandTag = %d, want %d", floor.IslandTag, NullIsland)
	}
	if world.objects[0].IslandTag == world.objects[2].IslandTag {
		t.Error("dynamic objects merged through shared static contact")
	}
	if len(recorder.islands) != 3 {
		t.Errorf("emitted %d islands, want 3 (two dynamic, one static singleton)", len(recorder.islands))
	}
}

func TestIslandManager_KinematicAndResponseDisabled(t *testing.T) {
	world := makeTestWorld(BodyTypeDynamic, BodyTypeKinematic, BodyTypeDynamic)
	world.objects[2].ResponseDisabled = true
	dispatcher := NewContactManifoldSet()
	dispatcher.AddManifold(contact(world.objects[0], world.objects[1]))
	dispatcher.AddManifold(contact(world.objects[0], world.objects[2]))

	runIslands(world, dispatcher)

	if world.objects[1].IslandTag != NullIsland {
		t.Errorf("kinematic IslandTag = %d, want %d", world.objects[1].IslandTag, NullIsland)
	}
	if world.objects[2].IslandTag != NullIsland {
		t.Errorf("response-disabled IslandTag = %d, want %d", world.objects[2].IslandTag, NullIsland)
	}
}

func TestIslandManager_EmptyManifoldDoesNotMerge(t *testing.T) {
	world := makeTestWorld(BodyTypeDynamic, BodyTypeDynamic)
	dispatcher := NewContactManifoldSet()
	dispatcher.AddManifold(&ContactManifold{BodyA: world.objects[0], BodyB: world.objects[1]})

	recorder := runIslands(world, dispatcher)

	if len(recorder.islands) != 2 {
		t.Errorf("emitted %d islands, want 2 (contactless manifold must not merge)", len(recorder.islands))
	}
	for _, island := range recorder.islands {
		if len(island.manifolds) != 0 {
			t.Error("contactless manifold was collected into an island")
		}
	}
}

func TestIslandManager_NonMergingContactBelongsToNoIsland(t *testing.T) {
	// a touching static/kinematic pair produces a manifold with contacts, but
	// neither body merges islands, so no island may claim it
	world := makeTestWorld(BodyTypeStatic, BodyTypeKinematic)
	dispatcher := NewContactManifoldSet()
	dispatcher.AddManifold(contact(world.objects[0], world.objects[1]))

	recorder := runIslands(world, dispatcher)

	if len(recorder.islands) != 2 {
		t.Fatalf("emitted %d islands, want 2 singletons", len(recorder.islands))
	}
	for _, island := range recorder.islands {
		if len(island.manifolds) != 0 {
			t.Errorf("island %d claims a manifold between non-merging bodies", island.id)
		}
	}
}

func TestIslandManager_AscendingIslandOrder(t *testing.T) {
	world := makeTestWorld(BodyTypeDynamic, BodyTypeDynamic, BodyTypeDynamic,
		BodyTypeDynamic, BodyTypeDynamic, BodyTypeDynamic)
	dispatcher := NewContactManifoldSet()
	dispatcher.AddManifold(contact(world.objects[4], world.objects[5]))
	dispatcher.AddManifold(contact(world.objects[0], world.objects[2]))

	recorder := runIslands(world, dispatcher)

	for i := 1; i < len(recorder.islands); i++ {
		if recorder.islands[i-1].id >= recorder.islands[i].id {
			t.Errorf("island ids %d, %d not strictly ascending",
				recorder.islands[i-1].id, recorder.islands[i].id)
		}
	}
}

func TestIslandManager_StoreIslandActivationState(t *testing.T) {
	world := makeTestWorld(BodyTypeDynamic, BodyTypeDynamic, BodyTypeDynamic)
	dispatcher := NewContactManifoldSet()
	dispatcher.AddManifold(contact(world.objects[0], world.objects[1]))

	manager := NewSimulationIslandManager()
	manager.UpdateActivationState(world, dispatcher)
	manager.StoreIslandActivationState(world)

	if world.objects[0].IslandTag != world.objects[1].IslandTag {
		t.Errorf("united objects carry tags %d vs %d, want equal roots",
			world.objects[0].IslandTag, world.objects[1].IslandTag)
	}
	if world.objects[2].IslandTag == world.objects[0].IslandTag {
		t.Error("disconnected object shares the contact pair's root")
	}
	for _, obj := range world.objects {
		if obj.CompanionID != NullIsland {
			t.Errorf("CompanionID = %d, want %d", obj.CompanionID, NullIsland)
		}
	}
}

func TestIslandManager_BuildWithoutActivationPanics(t *testing.T) {
	world := makeTestWorld(BodyTypeDynamic)
	manager := NewSimulationIslandManager()

	defer func() {
		if recover() == nil {
			t.Error("BuildIslands without UpdateActivationState did not panic")
		}
	}()
	manager.BuildIslands(NewContactManifoldSet(), world)
}

func TestIslandManager_ProcessIslandsParallel(t *testing.T) {
	world := makeTestWorld(BodyTypeDynamic, BodyTypeDynamic, BodyTypeDynamic,
		BodyTypeDynamic, BodyTypeDynamic)
	dispatcher := NewContactManifoldSet()
	dispatcher.AddManifold(contact(world.objects[0], world.objects[1]))
	dispatcher.AddManifold(contact(world.objects[3], world.objects[4]))

	manager := NewSimulationIslandManager()
	manager.UpdateActivationState(world, dispatcher)
	manager.BuildIslands(dispatcher, world)

	sequential := &islandRecorder{}
	manager.ProcessIslands(dispatcher, world, sequential)

	parallel := &islandRecorder{}
	manager.ProcessIslandsParallel(dispatcher, world, parallel, 4)

	sequential.sortByID()
	parallel.sortByID()

	if len(parallel.islands) != len(sequential.islands) {
		t.Fatalf("parallel emitted %d islands, sequential %d", len(parallel.islands), len(sequential.islands))
	}
	for i := range sequential.islands {
		s, p := sequential.islands[i], parallel.islands[i]
		if s.id != p.id || len(s.bodies) != len(p.bodies) || len(s.manifolds) != len(p.manifolds) {
			t.Errorf("island %d differs between sequential and parallel dispatch", s.id)
		}
		for j := range s.bodies {
			if s.bodies[j] != p.bodies[j] {
				t.Errorf("island %d body order differs at %d", s.id, j)
			}
		}
	}
}
