package bedrock

// Marker values for the bookkeeping fields of a BroadphasePair.
const (
	// PairNew marks a pair created this step, with no narrow-phase algorithm
	// attached yet.
	PairNew = -1
	// PairRemoved marks a pair whose algorithm slot has been released.
	PairRemoved = -2
)

// BroadphasePair is an unordered pair of broadphase proxy indices, stored
// canonically with ProxyA < ProxyB. AlgorithmID and UserInfo carry either a
// marker or an index into a caller-owned narrow-phase algorithm table; the
// cache never interprets them beyond the PairNew/PairRemoved lifecycle.
type BroadphasePair struct {
	ProxyA int
	ProxyB int

	AlgorithmID int
	UserInfo    int
}

// MakeBroadphasePair builds a canonical pair from two proxy indices in any order.
func MakeBroadphasePair(proxy0, proxy1 int) BroadphasePair {
	if proxy0 > proxy1 {
		proxy0, proxy1 = proxy1, proxy0
	}

	return BroadphasePair{
		ProxyA:      proxy0,
		ProxyB:      proxy1,
		AlgorithmID: PairNew,
		UserInfo:    PairNew,
	}
}

// PairLessThan orders pairs by (ProxyA, ProxyB) ascending.
func PairLessThan(a, b BroadphasePair) bool {
	if a.ProxyA != b.ProxyA {
		return a.ProxyA < b.ProxyA
	}
	return a.ProxyB < b.ProxyB
}

// OverlapFilterCallback lets the caller veto pair creation, e.g. from
// collision groups/masks.
type OverlapFilterCallback interface {
	NeedBroadphaseCollision(proxy0, proxy1 int) bool
}

// OverlapCallback visits pairs during a bulk pass; returning true deletes the
// visited pair immediately.
type OverlapCallback interface {
	ProcessOverlap(pair *BroadphasePair) bool
}

// PairCacheStats are per-cache diagnostic counters with explicit reset.
// Filtered-out add attempts count toward AddAttempts but not AddedPairs.
type PairCacheStats struct {
	AddAttempts  int
	AddedPairs   int
	RemovedPairs int
	FoundPairs   int
}

// Reset clears all counters.
func (s *PairCacheStats) Reset() {
	*s = PairCacheStats{}
}

// OverlappingPairCache maintains the current set of candidate-colliding proxy
// pairs, produced by a broadphase and consumed by island management and
// narrow-phase dispatch.
type OverlappingPairCache interface {
	// AddOverlappingPair inserts the canonical pair for (proxy0, proxy1) and
	// returns it, or returns the already-stored pair unchanged (idempotent
	// add), or nil when the filter callback rejects the pair. The returned
	// pointer is valid until the next cache mutation.
	AddOverlappingPair(proxy0, proxy1 int) *BroadphasePair

	// RemoveOverlappingPair deletes the pair, releasing its algorithm state
	// through the dispatcher, and returns the removed pair's data. Removing
	// an absent pair is a no-op, not an error.
	RemoveOverlappingPair(proxy0, proxy1 int, dispatcher Dispatcher) (BroadphasePair, bool)

	// FindPair returns the stored pair for (proxy0, proxy1), or nil.
	FindPair(proxy0, proxy1 int) *BroadphasePair

	// CleanProxyFromPairs removes every pair referencing proxy.
	CleanProxyFromPairs(proxy int, dispatcher Dispatcher)

	// ProcessAllOverlappingPairs visits every pair, deleting those for which
	// the callback returns true.
	ProcessAllOverlappingPairs(callback OverlapCallback, dispatcher Dispatcher)

	// SortOverlappingPairs establishes the (ProxyA, ProxyB) ascending total
	// order over the backing array, for deterministic iteration.
	SortOverlappingPairs(dispatcher Dispatcher)

	NumOverlappingPairs() int

	// OverlappingPairs exposes the live backing array; mutating calls
	// invalidate it.
	OverlappingPairs() []BroadphasePair

	SetOverlapFilterCallback(filter OverlapFilterCallback)

	Stats() *PairCacheStats
}
