package routing

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit_router/pkg/graph"
)

// buildTestGraph creates a small directed test graph.
//
//	0 --1--> 1 --2--> 2
//	|                 ^
//	5                 1
//	v                 |
//	3 --1--> 4 -------+
//
// Vertex 5 is isolated.
func buildTestGraph(t testing.TB) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(6)
	b.AddEdge(graph.Edge{From: 0, To: 1, Weight: 1}) // 0
	b.AddEdge(graph.Edge{From: 1, To: 2, Weight: 2}) // 1
	b.AddEdge(graph.Edge{From: 0, To: 3, Weight: 5}) // 2
	b.AddEdge(graph.Edge{From: 3, To: 4, Weight: 1}) // 3
	b.AddEdge(graph.Edge{From: 4, To: 2, Weight: 1}) // 4
	return b.Build()
}

// plainDijkstra runs a quadratic Dijkstra without a heap.
func plainDijkstra(g *graph.Graph, source, target graph.VertexID) float64 {
	dist := make([]float64, g.NumVertices)
	done := make([]bool, g.NumVertices)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0

	for {
		u := -1
		for v := range dist {
			if !done[v] && !math.IsInf(dist[v], 1) && (u < 0 || dist[v] < dist[u]) {
				u = v
			}
		}
		if u < 0 {
			break
		}
		done[u] = true
		for _, id := range g.OutEdges(graph.VertexID(u)) {
			e := g.Edge(id)
			if nd := dist[u] + e.Weight; nd < dist[e.To] {
				dist[e.To] = nd
			}
		}
	}
	return dist[target]
}

// assertValidPath checks that edges form a chain from source to target
// whose weights sum to the reported total.
func assertValidPath(t *testing.T, g *graph.Graph, source, target graph.VertexID, info RouteInfo) {
	t.Helper()
	at := source
	var sum float64
	for _, id := range info.Edges {
		e := g.Edge(id)
		require.Equal(t, at, e.From, "edges must be contiguous")
		at = e.To
		sum += e.Weight
	}
	assert.Equal(t, target, at)
	assert.InDelta(t, info.Weight, sum, 1e-9)
}

func TestBuildRoute(t *testing.T) {
	g := buildTestGraph(t)
	r := NewRouter(g)

	info, ok := r.BuildRoute(0, 2)
	require.True(t, ok)
	assert.Equal(t, 3.0, info.Weight)
	assert.Equal(t, []graph.EdgeID{0, 1}, info.Edges)

	info, ok = r.BuildRoute(3, 2)
	require.True(t, ok)
	assert.Equal(t, 2.0, info.Weight)
	assert.Equal(t, []graph.EdgeID{3, 4}, info.Edges)
}

func TestBuildRouteSameVertex(t *testing.T) {
	r := NewRouter(buildTestGraph(t))
	info, ok := r.BuildRoute(1, 1)
	require.True(t, ok)
	assert.Equal(t, 0.0, info.Weight)
	assert.Empty(t, info.Edges)
}

func TestBuildRouteUnreachable(t *testing.T) {
	r := NewRouter(buildTestGraph(t))

	_, ok := r.BuildRoute(2, 0) // edges are directed
	assert.False(t, ok)
	_, ok = r.BuildRoute(0, 5)
	assert.False(t, ok)

	// State from a failed query must not leak into the next one.
	info, ok := r.BuildRoute(0, 4)
	require.True(t, ok)
	assert.Equal(t, 6.0, info.Weight)
}

func TestBuildRouteOutOfRange(t *testing.T) {
	r := NewRouter(buildTestGraph(t))
	assert.Panics(t, func() { r.BuildRoute(0, 6) })
	assert.Panics(t, func() { r.BuildRoute(100, 0) })
}

func TestBuildRouteZeroWeightEdges(t *testing.T) {
	b := graph.NewBuilder(3)
	b.AddEdge(graph.Edge{From: 0, To: 1, Weight: 0})
	b.AddEdge(graph.Edge{From: 1, To: 0, Weight: 0})
	b.AddEdge(graph.Edge{From: 1, To: 2, Weight: 0})
	g := b.Build()

	info, ok := NewRouter(g).BuildRoute(0, 2)
	require.True(t, ok)
	assert.Equal(t, 0.0, info.Weight)
	assertValidPath(t, g, 0, 2, info)
}

func TestBuildRouteMatchesPlainDijkstra(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	const n = 40
	b := graph.NewBuilder(n)
	for range 150 {
		b.AddEdge(graph.Edge{
			From:   graph.VertexID(rng.IntN(n)),
			To:     graph.VertexID(rng.IntN(n)),
			Weight: float64(rng.IntN(100)) / 4,
		})
	}
	g := b.Build()
	r := NewRouter(g)

	for s := graph.VertexID(0); s < n; s++ {
		for d := graph.VertexID(0); d < n; d++ {
			expected := plainDijkstra(g, s, d)
			info, ok := r.BuildRoute(s, d)
			if math.IsInf(expected, 1) {
				assert.False(t, ok, "s=%d d=%d", s, d)
				continue
			}
			require.True(t, ok, "s=%d d=%d", s, d)
			assert.InDelta(t, expected, info.Weight, 1e-9, "s=%d d=%d", s, d)
			assertValidPath(t, g, s, d, info)
		}
	}
}

func TestBuildRouteDeterministic(t *testing.T) {
	// Two equal-weight paths from 0 to 3.
	b := graph.NewBuilder(4)
	b.AddEdge(graph.Edge{From: 0, To: 2, Weight: 1})
	b.AddEdge(graph.Edge{From: 0, To: 1, Weight: 1})
	b.AddEdge(graph.Edge{From: 2, To: 3, Weight: 1})
	b.AddEdge(graph.Edge{From: 1, To: 3, Weight: 1})
	r := NewRouter(b.Build())

	first, ok := r.BuildRoute(0, 3)
	require.True(t, ok)
	for range 20 {
		again, ok := r.BuildRoute(0, 3)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestBuildRouteConcurrent(t *testing.T) {
	g := buildTestGraph(t)
	r := NewRouter(g)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if i%2 == 0 {
					info, ok := r.BuildRoute(0, 2)
					assert.True(t, ok)
					assert.Equal(t, 3.0, info.Weight)
				} else {
					_, ok := r.BuildRoute(2, 0)
					assert.False(t, ok)
				}
			}
		}()
	}
	wg.Wait()
}

func TestMinHeap(t *testing.T) {
	var h MinHeap

	h.Push(1, 30)
	h.Push(2, 10)
	h.Push(3, 20)
	h.Push(0, 20)

	assert.Equal(t, 10.0, h.PeekDist())
	assert.Equal(t, PQItem{Vertex: 2, Dist: 10}, h.Pop())
	// Equal distances pop in vertex order.
	assert.Equal(t, PQItem{Vertex: 0, Dist: 20}, h.Pop())
	assert.Equal(t, PQItem{Vertex: 3, Dist: 20}, h.Pop())
	assert.Equal(t, PQItem{Vertex: 1, Dist: 30}, h.Pop())
	assert.Equal(t, 0, h.Len())
	assert.True(t, math.IsInf(h.PeekDist(), 1))
}

func BenchmarkBuildRoute(b *testing.B) {
	g := buildTestGraph(b)
	r := NewRouter(g)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.BuildRoute(0, 2)
	}
}
