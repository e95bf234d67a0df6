package bedrock

import "sort"

// Element is one union-find record. ID points toward the element's root;
// after SortIslands it holds the resolved root id and Sz holds the element's
// original index.
type Element struct {
	ID int
	Sz int
}

// UnionFind is a disjoint-set structure over the index space 0..N-1 with path
// compression. It is rebuilt from scratch every simulation step: Reset, a
// batch of Unite calls, one SortIslands, then read-only iteration.
type UnionFind struct {
	elements []Element
	sorted   bool
}

// Reset discards all previous state and initializes n elements, each its own
// root with size 1.
func (uf *UnionFind) Reset(n int) {
	if cap(uf.elements) < n {
		uf.elements = make([]Element, n)
	}
	uf.elements = uf.elements[:n]

	for i := range uf.elements {
		uf.elements[i] = Element{ID: i, Sz: 1}
	}
	uf.sorted = false
}

// NumElements returns the number of tracked elements.
func (uf *UnionFind) NumElements() int {
	return len(uf.elements)
}

// Element returns the record at position i.
func (uf *UnionFind) Element(i int) Element {
	return uf.elements[i]
}

// Find returns the root of x. Every visited node is relinked to its
// grandparent on the way up, so repeated lookups amortize toward O(1).
func (uf *UnionFind) Find(x int) int {
	for x != uf.elements[x].ID {
		uf.elements[x].ID = uf.elements[uf.elements[x].ID].ID
		x = uf.elements[x].ID
	}
	return x
}

// Unite merges the sets containing p and q. The root of p is always attached
// under the root of q, without size balancing: path compression alone keeps
// the trees shallow, and Sz stays bookkeeping only.
func (uf *UnionFind) Unite(p, q int) {
	if uf.sorted {
		panic("bedrock: Unite called after SortIslands; Reset the union-find first")
	}

	i, j := uf.Find(p), uf.Find(q)
	if i == j {
		return
	}

	uf.elements[i].ID = j
	uf.elements[j].Sz += uf.elements[i].Sz
}

// SortIslands finalizes the structure for island extraction: every element's
// ID is resolved to its root, Sz is repurposed to hold the element's original
// index, and the records are reordered grouped by root id ascending. Any
// previously cached index-to-root mapping is invalidated; further Unite calls
// panic until the next Reset.
func (uf *UnionFind) SortIslands() {
	for i := range uf.elements {
		uf.elements[i].ID = uf.Find(i)
		uf.elements[i].Sz = i
	}

	sort.Slice(uf.elements, func(a, b int) bool {
		if uf.elements[a].ID != uf.elements[b].ID {
			return uf.elements[a].ID < uf.elements[b].ID
		}
		return uf.elements[a].Sz < uf.elements[b].Sz
	})

	uf.sorted = true
}

// IsSorted reports whether SortIslands has finalized the current step.
func (uf *UnionFind) IsSorted() bool {
	return uf.sorted
}
