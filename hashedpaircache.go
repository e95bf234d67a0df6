package bedrock

import "sort"

const nullPair = -1

// initial hash table capacity, grown by doubling
const initialPairCapacity = 16

// HashedOverlappingPairCache stores pairs in a gap-free append-only array
// reachable through a hash table of bucket heads with a parallel chained-next
// array. Removal swaps the victim with the last array element and relinks the
// moved element's chain, so the array never holds holes.
type HashedOverlappingPairCache struct {
	pairs     []BroadphasePair
	hashTable []int
	next      []int

	filter OverlapFilterCallback
	stats  PairCacheStats
}

// NewHashedOverlappingPairCache creates an empty hashed pair cache.
func NewHashedOverlappingPairCache() *HashedOverlappingPairCache {
	cache := &HashedOverlappingPairCache{
		hashTable: make([]int, initialPairCapacity),
		next:      make([]int, 0, initialPairCapacity),
		pairs:     make([]BroadphasePair, 0, initialPairCapacity),
	}
	for i := range cache.hashTable {
		cache.hashTable[i] = nullPair
	}

	return cache
}

// pairHashKey folds two proxy indices (16-bit range) into one 32-bit key and
// avalanches it with Thomas Wang's integer mix. The exact mixing sequence is
// load-bearing: identical input order must reproduce identical table layouts
// across runs.
func pairHashKey(proxy0, proxy1 int) uint32 {
	key := uint32(proxy0) | uint32(proxy1)<<16

	key += ^(key << 15)
	key ^= key >> 10
	key += key << 3
	key ^= key >> 6
	key += ^(key << 11)
	key ^= key >> 16

	return key
}

func (c *HashedOverlappingPairCache) bucket(proxy0, proxy1 int) int {
	return int(pairHashKey(proxy0, proxy1)) & (len(c.hashTable) - 1)
}

func (c *HashedOverlappingPairCache) findIndex(proxy0, proxy1, bucket int) int {
	index := c.hashTable[bucket]
	for index != nullPair && !(c.pairs[index].ProxyA == proxy0 && c.pairs[index].ProxyB == proxy1) {
		index = c.next[index]
	}
	return index
}

func (c *HashedOverlappingPairCache) AddOverlappingPair(proxy0, proxy1 int) *BroadphasePair {
	c.stats.AddAttempts++
	if c.filter != nil && !c.filter.NeedBroadphaseCollision(proxy0, proxy1) {
		return nil
	}

	if proxy0 > proxy1 {
		proxy0, proxy1 = proxy1, proxy0
	}

	bucket := c.bucket(proxy0, proxy1)
	if index := c.findIndex(proxy0, proxy1, bucket); index != nullPair {
		return &c.pairs[index]
	}

	if len(c.pairs) >= len(c.hashTable) {
		c.growTables()
		bucket = c.bucket(proxy0, proxy1)
	}

	index := len(c.pairs)
	c.pairs = append(c.pairs, BroadphasePair{
		ProxyA:      proxy0,
		ProxyB:      proxy1,
		AlgorithmID: PairNew,
		UserInfo:    PairNew,
	})
	c.next = append(c.next, c.hashTable[bucket])
	c.hashTable[bucket] = index

	c.stats.AddedPairs++
	return &c.pairs[index]
}

// growTables doubles the hash table and rebuilds every bucket chain.
func (c *HashedOverlappingPairCache) growTables() {
	c.hashTable = make([]int, len(c.hashTable)*2)
	c.rebuildTables()
}

func (c *HashedOverlappingPairCache) rebuildTables() {
	for i := range c.hashTable {
		c.hashTable[i] = nullPair
	}
	c.next = c.next[:0]

	for i := range c.pairs {
		bucket := c.bucket(c.pairs[i].ProxyA, c.pairs[i].ProxyB)
		c.next = append(c.next, c.hashTable[bucket])
		c.hashTable[bucket] = i
	}
}

func (c *HashedOverlappingPairCache) FindPair(proxy0, proxy1 int) *BroadphasePair {
	if proxy0 > proxy1 {
		proxy0, proxy1 = proxy1, proxy0
	}

	index := c.findIndex(proxy0, proxy1, c.bucket(proxy0, proxy1))
	if index == nullPair {
		return nil
	}

	c.stats.FoundPairs++
	return &c.pairs[index]
}

func (c *HashedOverlappingPairCache) RemoveOverlappingPair(proxy0, proxy1 int, dispatcher Dispatcher) (BroadphasePair, bool) {
	if proxy0 > proxy1 {
		proxy0, proxy1 = proxy1, proxy0
	}

	bucket := c.bucket(proxy0, proxy1)
	index := c.findIndex(proxy0, proxy1, bucket)
	if index == nullPair {
		return BroadphasePair{}, false
	}

	c.cleanOverlappingPair(&c.pairs[index], dispatcher)
	removed := c.pairs[index]

	c.unlink(bucket, index)

	last := len(c.pairs) - 1
	if index != last {
		// move the last pair into the vacated slot and relink its chain
		lastBucket := c.bucket(c.pairs[last].ProxyA, c.pairs[last].ProxyB)
		c.unlink(lastBucket, last)

		c.pairs[index] = c.pairs[last]
		c.next[index] = c.hashTable[lastBucket]
		c.hashTable[lastBucket] = index
	}

	c.pairs = c.pairs[:last]
	c.next = c.next[:last]

	c.stats.RemovedPairs++
	return removed, true
}

// unlink detaches the pair at index from its bucket chain.
func (c *HashedOverlappingPairCache) unlink(bucket, index int) {
	if c.hashTable[bucket] == index {
		c.hashTable[bucket] = c.next[index]
		return
	}

	previous := c.hashTable[bucket]
	for c.next[previous] != index {
		previous = c.next[previous]
	}
	c.next[previous] = c.next[index]
}

// cleanOverlappingPair releases the narrow-phase algorithm state attached to
// a pair before it goes away.
func (c *HashedOverlappingPairCache) cleanOverlappingPair(pair *BroadphasePair, dispatcher Dispatcher) {
	if dispatcher != nil && pair.AlgorithmID >= 0 {
		dispatcher.ReleasePairAlgorithm(pair)
		pair.AlgorithmID = PairRemoved
	}
}

func (c *HashedOverlappingPairCache) CleanProxyFromPairs(proxy int, dispatcher Dispatcher) {
	// backward so swap-with-last never skips an unvisited pair
	for i := len(c.pairs) - 1; i >= 0; i-- {
		if c.pairs[i].ProxyA == proxy || c.pairs[i].ProxyB == proxy {
			c.RemoveOverlappingPair(c.pairs[i].ProxyA, c.pairs[i].ProxyB, dispatcher)
		}
	}
}

func (c *HashedOverlappingPairCache) ProcessAllOverlappingPairs(callback OverlapCallback, dispatcher Dispatcher) {
	for i := len(c.pairs) - 1; i >= 0; i-- {
		if callback.ProcessOverlap(&c.pairs[i]) {
			c.RemoveOverlappingPair(c.pairs[i].ProxyA, c.pairs[i].ProxyB, dispatcher)
		}
	}
}

func (c *HashedOverlappingPairCache) SortOverlappingPairs(dispatcher Dispatcher) {
	sort.Slice(c.pairs, func(a, b int) bool {
		return PairLessThan(c.pairs[a], c.pairs[b])
	})
	c.rebuildTables()
}

func (c *HashedOverlappingPairCache) NumOverlappingPairs() int {
	return len(c.pairs)
}

func (c *HashedOverlappingPairCache) OverlappingPairs() []BroadphasePair {
	return c.pairs
}

func (c *HashedOverlappingPairCache) SetOverlapFilterCallback(filter OverlapFilterCallback) {
	c.filter = filter
}

func (c *HashedOverlappingPairCache) Stats() *PairCacheStats {
	return &c.stats
}
