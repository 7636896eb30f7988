package graph

// VertexID identifies a vertex; vertices are 0..NumVertices-1.
type VertexID uint32

// EdgeID identifies an edge; ids are dense and follow insertion order.
type EdgeID uint32

// Edge is a directed weighted edge. Weights are non-negative.
type Edge struct {
	From   VertexID
	To     VertexID
	Weight float64
}

// Graph is an immutable directed weighted graph. Edges keep their insertion
// ids; adjacency is stored in CSR (Compressed Sparse Row) form over edge ids.
type Graph struct {
	NumVertices uint32
	Edges       []Edge   // indexed by EdgeID
	FirstOut    []uint32 // len: NumVertices + 1; FirstOut[v]..FirstOut[v+1] index Adj
	Adj         []EdgeID // outgoing edge ids grouped by source vertex
}

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int {
	return len(g.Edges)
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id EdgeID) Edge {
	return g.Edges[id]
}

// EdgesFrom returns the range of Adj indices for edges originating from v.
func (g *Graph) EdgesFrom(v VertexID) (start, end uint32) {
	return g.FirstOut[v], g.FirstOut[v+1]
}

// OutEdges returns the ids of edges leaving v, in insertion order.
func (g *Graph) OutEdges(v VertexID) []EdgeID {
	start, end := g.EdgesFrom(v)
	return g.Adj[start:end]
}
