package bedrock

import "sort"

// SortedOverlappingPairCache is the linear-search variant: a single pair
// array scanned by value equality, no hash table. O(n) find/remove, favored
// where pair counts stay small or where the simpler layout matters more than
// lookup speed.
type SortedOverlappingPairCache struct {
	pairs  []BroadphasePair
	filter OverlapFilterCallback
	stats  PairCacheStats
}

// NewSortedOverlappingPairCache creates an empty sorted pair cache.
func NewSortedOverlappingPairCache() *SortedOverlappingPairCache {
	return &SortedOverlappingPairCache{
		pairs: make([]BroadphasePair, 0, initialPairCapacity),
	}
}

func (c *SortedOverlappingPairCache) findIndex(proxy0, proxy1 int) int {
	for i := range c.pairs {
		if c.pairs[i].ProxyA == proxy0 && c.pairs[i].ProxyB == proxy1 {
			return i
		}
	}
	return nullPair
}

func (c *SortedOverlappingPairCache) AddOverlappingPair(proxy0, proxy1 int) *BroadphasePair {
	c.stats.AddAttempts++
	if c.filter != nil && !c.filter.NeedBroadphaseCollision(proxy0, proxy1) {
		return nil
	}

	if proxy0 > proxy1 {
		proxy0, proxy1 = proxy1, proxy0
	}

	if index := c.findIndex(proxy0, proxy1); index != nullPair {
		return &c.pairs[index]
	}

	c.pairs = append(c.pairs, MakeBroadphasePair(proxy0, proxy1))
	c.stats.AddedPairs++
	return &c.pairs[len(c.pairs)-1]
}

func (c *SortedOverlappingPairCache) FindPair(proxy0, proxy1 int) *BroadphasePair {
	if proxy0 > proxy1 {
		proxy0, proxy1 = proxy1, proxy0
	}

	index := c.findIndex(proxy0, proxy1)
	if index == nullPair {
		return nil
	}

	c.stats.FoundPairs++
	return &c.pairs[index]
}

func (c *SortedOverlappingPairCache) RemoveOverlappingPair(proxy0, proxy1 int, dispatcher Dispatcher) (BroadphasePair, bool) {
	if proxy0 > proxy1 {
		proxy0, proxy1 = proxy1, proxy0
	}

	index := c.findIndex(proxy0, proxy1)
	if index == nullPair {
		return BroadphasePair{}, false
	}

	c.cleanOverlappingPair(&c.pairs[index], dispatcher)
	removed := c.pairs[index]

	last := len(c.pairs) - 1
	c.pairs[index] = c.pairs[last]
	c.pairs = c.pairs[:last]

	c.stats.RemovedPairs++
	return removed, true
}

func (c *SortedOverlappingPairCache) cleanOverlappingPair(pair *BroadphasePair, dispatcher Dispatcher) {
	if dispatcher != nil && pair.AlgorithmID >= 0 {
		dispatcher.ReleasePairAlgorithm(pair)
		pair.AlgorithmID = PairRemoved
	}
}

func (c *SortedOverlappingPairCache) CleanProxyFromPairs(proxy int, dispatcher Dispatcher) {
	for i := len(c.pairs) - 1; i >= 0; i-- {
		if c.pairs[i].ProxyA == proxy || c.pairs[i].ProxyB == proxy {
			c.RemoveOverlappingPair(c.pairs[i].ProxyA, c.pairs[i].ProxyB, dispatcher)
		}
	}
}

func (c *SortedOverlappingPairCache) ProcessAllOverlappingPairs(callback OverlapCallback, dispatcher Dispatcher) {
	for i := len(c.pairs) - 1; i >= 0; i-- {
		if callback.ProcessOverlap(&c.pairs[i]) {
			c.RemoveOverlappingPair(c.pairs[i].ProxyA, c.pairs[i].ProxyB, dispatcher)
		}
	}
}

func (c *SortedOverlappingPairCache) SortOverlappingPairs(dispatcher Dispatcher) {
	sort.Slice(c.pairs, func(a, b int) bool {
		return PairLessThan(c.pairs[a], c.pairs[b])
	})
}

func (c *SortedOverlappingPairCache) NumOverlappingPairs() int {
	return len(c.pairs)
}

func (c *SortedOverlappingPairCache) OverlappingPairs() []BroadphasePair {
	return c.pairs
}

func (c *SortedOverlappingPairCache) SetOverlapFilterCallback(filter OverlapFilterCallback) {
	c.filter = filter
}

func (c *SortedOverlappingPairCache) Stats() *PairCacheStats {
	return &c.stats
}
