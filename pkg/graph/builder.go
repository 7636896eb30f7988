package graph

import (
	"fmt"
	"math"
)

// Builder accumulates edges for a fixed vertex count.
type Builder struct {
	numVertices uint32
	edges       []Edge
}

// NewBuilder creates a builder for a graph with n vertices.
func NewBuilder(n uint32) *Builder {
	return &Builder{numVertices: n}
}

// AddEdge appends an edge and returns its id. It panics when an endpoint is
// out of range or the weight is negative or NaN; both are caller bugs.
func (b *Builder) AddEdge(e Edge) EdgeID {
	if uint32(e.From) >= b.numVertices || uint32(e.To) >= b.numVertices {
		panic(fmt.Sprintf("graph: edge %d->%d out of range (%d vertices)", e.From, e.To, b.numVertices))
	}
	if e.Weight < 0 || math.IsNaN(e.Weight) {
		panic(fmt.Sprintf("graph: edge %d->%d has invalid weight %v", e.From, e.To, e.Weight))
	}
	id := EdgeID(len(b.edges))
	b.edges = append(b.edges, e)
	return id
}

// NumEdges returns the number of edges added so far.
func (b *Builder) NumEdges() int {
	return len(b.edges)
}

// Build freezes the builder into a CSR Graph. Within a vertex, outgoing
// edges stay in insertion order.
func (b *Builder) Build() *Graph {
	n := b.numVertices
	edges := make([]Edge, len(b.edges))
	copy(edges, b.edges)

	// Count edges per source vertex.
	firstOut := make([]uint32, n+1)
	for _, e := range edges {
		firstOut[e.From+1]++
	}
	// Prefix sum.
	for i := uint32(1); i <= n; i++ {
		firstOut[i] += firstOut[i-1]
	}

	// Place edge ids into CSR order. Iterating edges by id keeps the
	// placement stable.
	adj := make([]EdgeID, len(edges))
	pos := make([]uint32, n)
	copy(pos, firstOut[:n])
	for id, e := range edges {
		adj[pos[e.From]] = EdgeID(id)
		pos[e.From]++
	}

	return &Graph{
		NumVertices: n,
		Edges:       edges,
		FirstOut:    firstOut,
		Adj:         adj,
	}
}
