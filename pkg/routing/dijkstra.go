package routing

import (
	"fmt"
	"math"
	"sync"

	"transit_router/pkg/graph"
)

const noEdge = ^graph.EdgeID(0) // sentinel for "no predecessor edge"

// RouteInfo is a shortest path: its total weight and the edges taken, in
// travel order.
type RouteInfo struct {
	Weight float64
	Edges  []graph.EdgeID
}

// QueryState holds per-query state for a single-source Dijkstra run.
type QueryState struct {
	Dist    []float64
	Pred    []graph.EdgeID   // edge used to reach each vertex (noEdge = none)
	Touched []graph.VertexID // vertices touched during this query (for fast reset)
	PQ      MinHeap
}

// NewQueryState creates a new QueryState for a graph with n vertices.
func NewQueryState(n uint32) *QueryState {
	dist := make([]float64, n)
	pred := make([]graph.EdgeID, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		pred[i] = noEdge
	}
	return &QueryState{
		Dist:    dist,
		Pred:    pred,
		Touched: make([]graph.VertexID, 0, 256),
		PQ:      MinHeap{items: make([]PQItem, 0, 64)},
	}
}

// Reset clears only the touched entries for fast reuse.
func (qs *QueryState) Reset() {
	for _, v := range qs.Touched {
		qs.Dist[v] = math.Inf(1)
		qs.Pred[v] = noEdge
	}
	qs.Touched = qs.Touched[:0]
	qs.PQ.Reset()
}

func (qs *QueryState) touch(v graph.VertexID, dist float64, pred graph.EdgeID) {
	if math.IsInf(qs.Dist[v], 1) {
		qs.Touched = append(qs.Touched, v)
	}
	qs.Dist[v] = dist
	qs.Pred[v] = pred
}

// Router answers shortest-path queries over an immutable graph. It is safe
// for concurrent use; each query borrows its own QueryState from a pool.
type Router struct {
	g    *graph.Graph
	pool sync.Pool
}

// NewRouter creates a router over g. The graph must not be modified afterwards.
func NewRouter(g *graph.Graph) *Router {
	r := &Router{g: g}
	r.pool.New = func() any {
		return NewQueryState(g.NumVertices)
	}
	return r
}

// Graph returns the graph the router was built over.
func (r *Router) Graph() *graph.Graph {
	return r.g
}

// BuildRoute finds a shortest path from one vertex to another. It returns
// false when to is unreachable. A query from a vertex to itself is a
// zero-weight route with no edges.
//
// It panics if either vertex is outside the graph.
func (r *Router) BuildRoute(from, to graph.VertexID) (RouteInfo, bool) {
	n := r.g.NumVertices
	if uint32(from) >= n || uint32(to) >= n {
		panic(fmt.Sprintf("routing: vertex out of range: from=%d to=%d (%d vertices)", from, to, n))
	}

	qs := r.pool.Get().(*QueryState)
	defer func() {
		qs.Reset()
		r.pool.Put(qs)
	}()

	qs.touch(from, 0, noEdge)
	qs.PQ.Push(from, 0)

	// Once nothing queued is closer than the target's tentative distance,
	// no remaining edge can improve it.
	for qs.PQ.PeekDist() < qs.Dist[to] {
		item := qs.PQ.Pop()
		u := item.Vertex
		d := item.Dist
		if d > qs.Dist[u] {
			continue // stale entry
		}

		for _, id := range r.g.OutEdges(u) {
			e := r.g.Edges[id]
			newDist := d + e.Weight
			if newDist < qs.Dist[e.To] {
				qs.touch(e.To, newDist, id)
				qs.PQ.Push(e.To, newDist)
			}
		}
	}
	if math.IsInf(qs.Dist[to], 1) {
		return RouteInfo{}, false
	}

	return RouteInfo{
		Weight: qs.Dist[to],
		Edges:  r.reconstruct(qs, from, to),
	}, true
}

// reconstruct walks predecessor edges back from to and returns them in
// travel order.
func (r *Router) reconstruct(qs *QueryState, from, to graph.VertexID) []graph.EdgeID {
	var edges []graph.EdgeID
	for v := to; v != from; {
		id := qs.Pred[v]
		edges = append(edges, id)
		v = r.g.Edges[id].From
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return edges
}
