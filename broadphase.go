package bedrock

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// cellKey - coordinates of a cell in 3D space
type cellKey struct {
	X, Y, Z int
}

// cell - container of proxy indices inside one cell
type cell struct {
	proxyIndices []int
}

// UniformGridBroadphase is a hashed uniform grid over proxy AABBs. Each
// UpdatePairs rebuild inserts every live proxy into the cells its AABB
// covers, adds newly overlapping pairs to the cache, and retires pairs whose
// AABBs separated or whose proxies died.
type UniformGridBroadphase struct {
	cellSize float64
	cells    []cell
	cellMask int

	aabbs []AABB
	live  []bool
	free  []int
}

// NewUniformGridBroadphase creates a grid with the given cell size and cell
// count (rounded up to a power of two).
func NewUniformGridBroadphase(cellSize float64, numCells int) *UniformGridBroadphase {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]cell, numCells)
	for i := range cells {
		cells[i].proxyIndices = make([]int, 0, 8)
	}

	return &UniformGridBroadphase{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

// nextPowerOfTwo rounds up to the next power of 2
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// CreateProxy allocates a proxy slot for the given AABB and returns its index.
func (bp *UniformGridBroadphase) CreateProxy(aabb AABB) int {
	if n := len(bp.free); n > 0 {
		proxy := bp.free[n-1]
		bp.free = bp.free[:n-1]
		bp.aabbs[proxy] = aabb
		bp.live[proxy] = true
		return proxy
	}

	bp.aabbs = append(bp.aabbs, aabb)
	bp.live = append(bp.live, true)
	return len(bp.aabbs) - 1
}

// DestroyProxy frees the proxy slot and removes every cached pair that
// references it.
func (bp *UniformGridBroadphase) DestroyProxy(proxy int, cache OverlappingPairCache, dispatcher Dispatcher) {
	if proxy < 0 || proxy >= len(bp.live) || !bp.live[proxy] {
		return
	}

	bp.live[proxy] = false
	bp.free = append(bp.free, proxy)
	cache.CleanProxyFromPairs(proxy, dispatcher)
}

// SetAABB updates the bounding box of a live proxy.
func (bp *UniformGridBroadphase) SetAABB(proxy int, aabb AABB) {
	bp.aabbs[proxy] = aabb
}

// TestOverlap reports whether both proxies are live and their AABBs overlap.
func (bp *UniformGridBroadphase) TestOverlap(proxyA, proxyB int) bool {
	if !bp.live[proxyA] || !bp.live[proxyB] {
		return false
	}
	return bp.aabbs[proxyA].Overlaps(bp.aabbs[proxyB])
}

// UpdatePairs rebuilds the grid from the current AABBs, feeds every
// overlapping proxy pair to the cache (idempotent adds collapse duplicates
// from shared cells), then retires cached pairs that stopped overlapping.
func (bp *UniformGridBroadphase) UpdatePairs(cache OverlappingPairCache, dispatcher Dispatcher) {
	bp.clear()
	for proxy := range bp.aabbs {
		if bp.live[proxy] {
			bp.insert(proxy)
		}
	}
	bp.sortCells()

	for proxy := range bp.aabbs {
		if !bp.live[proxy] {
			continue
		}

		minCell := bp.worldToCell(bp.aabbs[proxy].Min)
		maxCell := bp.worldToCell(bp.aabbs[proxy].Max)

		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					cellIdx := bp.hashCell(cellKey{x, y, z})

					for _, other := range bp.cells[cellIdx].proxyIndices {
						// deterministic order, avoids (A,B) and (B,A) duplicates
						if other <= proxy {
							continue
						}

						if bp.aabbs[proxy].Overlaps(bp.aabbs[other]) {
							cache.AddOverlappingPair(proxy, other)
						}
					}
				}
			}
		}
	}

	cache.ProcessAllOverlappingPairs(stalePairRetirer{bp}, dispatcher)
}

// stalePairRetirer deletes cached pairs that no longer overlap.
type stalePairRetirer struct {
	bp *UniformGridBroadphase
}

func (r stalePairRetirer) ProcessOverlap(pair *BroadphasePair) bool {
	return !r.bp.TestOverlap(pair.ProxyA, pair.ProxyB)
}

func (bp *UniformGridBroadphase) clear() {
	for i := range bp.cells {
		bp.cells[i].proxyIndices = bp.cells[i].proxyIndices[:0]
	}
}

// insert places a proxy into every cell its AABB covers
func (bp *UniformGridBroadphase) insert(proxy int) {
	minCell := bp.worldToCell(bp.aabbs[proxy].Min)
	maxCell := bp.worldToCell(bp.aabbs[proxy].Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := bp.hashCell(cellKey{x, y, z})

				bp.cells[cellIdx].proxyIndices = append(
					bp.cells[cellIdx].proxyIndices,
					proxy,
				)
			}
		}
	}
}

func (bp *UniformGridBroadphase) sortCells() {
	for i := range bp.cells {
		if len(bp.cells[i].proxyIndices) > 1 {
			sort.Ints(bp.cells[i].proxyIndices)
		}
	}
}

// worldToCell converts a world position into cell coordinates
func (bp *UniformGridBroadphase) worldToCell(pos mgl64.Vec3) cellKey {
	return cellKey{
		X: int(math.Floor(pos.X() / bp.cellSize)),
		Y: int(math.Floor(pos.Y() / bp.cellSize)),
		Z: int(math.Floor(pos.Z() / bp.cellSize)),
	}
}

// hashCell hashes a cell into an index in the array
func (bp *UniformGridBroadphase) hashCell(key cellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & bp.cellMask
}
