package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // rank stays below 32 for any uint32 element count
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	// Union by rank.
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in x's set.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// WeakComponents unions the endpoints of every edge, treating the directed
// graph as undirected.
func WeakComponents(g *Graph) *UnionFind {
	uf := NewUnionFind(g.NumVertices)
	for _, e := range g.Edges {
		uf.Union(uint32(e.From), uint32(e.To))
	}
	return uf
}

// ComponentSummary reports how many weakly connected components contain at
// least one of the given vertices, and the vertex count of the largest of
// those components.
func ComponentSummary(g *Graph, vertices []VertexID) (count int, largest uint32) {
	uf := WeakComponents(g)
	roots := make(map[uint32]struct{}, len(vertices))
	for _, v := range vertices {
		root := uf.Find(uint32(v))
		if _, ok := roots[root]; ok {
			continue
		}
		roots[root] = struct{}{}
		largest = max(largest, uf.Size(root))
	}
	return len(roots), largest
}
