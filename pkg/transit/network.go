package transit

import (
	"errors"
	"fmt"
	"log"
	"math"

	"transit_router/pkg/catalogue"
	"transit_router/pkg/graph"
)

// ErrNoRoutingSettings is returned when building a network from a catalogue
// without bus velocity and wait time.
var ErrNoRoutingSettings = errors.New("routing settings not set")

// EdgeKind classifies network edges.
type EdgeKind uint8

const (
	// EdgeWait charges the wait time at a stop: Arrived(S) -> Boarding(S).
	EdgeWait EdgeKind = iota
	// EdgeRide is an uninterrupted ride on one bus: Boarding(S) -> Arrived(T).
	EdgeRide
)

// EdgeInfo describes what a network edge means.
type EdgeInfo struct {
	Kind EdgeKind
	Stop catalogue.StopID // wait edges: the stop waited at

	// Ride edges only.
	Bus     catalogue.BusID
	Span    int // number of hops ridden
	From    int // position of the boarding stop in the bus's declared stop list
	To      int // position of the alighting stop in the declared stop list
	Reverse bool
}

// Stats summarizes a built network.
type Stats struct {
	Stops      int `json:"stops"`
	Buses      int `json:"buses"`
	Vertices   int `json:"vertices"`
	Edges      int `json:"edges"`
	WaitEdges  int `json:"wait_edges"`
	RideEdges  int `json:"ride_edges"`
	Components int `json:"components"` // weakly connected groups among served stops

	// LargestComponent is the number of stops in the biggest group.
	LargestComponent int `json:"largest_component"`
}

// Network is the time-weighted transit graph derived from a catalogue.
// It is immutable once built.
type Network struct {
	Graph    *graph.Graph
	Edges    []EdgeInfo // indexed by graph.EdgeID
	Settings catalogue.RoutingSettings

	store *catalogue.Store
	stats Stats
}

// Build derives the transit network from a fully populated catalogue.
//
// For each bus, over its declared stop list s[0..n-1]:
//   - a wait edge for every stop not yet given one;
//   - a ride edge s[i] -> s[j] for every i < j, weighted by the cumulative
//     ride time, except s[0] -> s[n-1] on a round trip whose first and last
//     stops coincide;
//   - on a back-and-forth bus, a ride edge s[i] -> s[k] for every k < i,
//     with hop distances looked up in the direction of travel.
//
// Ride time in minutes is meters / (velocity_kmh * 1000 / 60).
func Build(store *catalogue.Store) (*Network, error) {
	settings, ok := store.RoutingSettings()
	if !ok {
		return nil, ErrNoRoutingSettings
	}
	metersPerMinute := settings.BusVelocity * 1000 / 60

	b := graph.NewBuilder(uint32(2 * store.NumStops()))
	var infos []EdgeInfo
	hasWait := make([]bool, store.NumStops())
	stats := Stats{Stops: store.NumStops(), Buses: len(store.Buses())}

	addEdge := func(from, to Vertex, weight float64, info EdgeInfo) {
		b.AddEdge(graph.Edge{From: from.ID(), To: to.ID(), Weight: weight})
		infos = append(infos, info)
	}

	for _, bus := range store.Buses() {
		stops := bus.Stops
		n := len(stops)
		// Only a closed loop has a (first, last) pair that rides the whole
		// circle back to its start.
		loop := bus.IsRoundtrip && n > 1 && stops[0] == stops[n-1]

		rideTime := func(from, to catalogue.StopID) (float64, error) {
			d, err := store.DistanceBetween(from, to)
			if err != nil {
				return 0, fmt.Errorf("bus %q: %w", bus.Name, err)
			}
			if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
				return 0, fmt.Errorf("bus %q: %w: %v", bus.Name, catalogue.ErrInvalidDistance, d)
			}
			return d / metersPerMinute, nil
		}

		// hop[i] is the ride time from stops[i-1] to stops[i].
		// A two-stop loop rides no hop at all.
		hop := make([]float64, n)
		for i := 1; i < n && !(loop && n == 2); i++ {
			t, err := rideTime(stops[i-1], stops[i])
			if err != nil {
				return nil, err
			}
			hop[i] = t
		}

		// back[i] is the ride time from stops[i] to stops[i-1].
		var back []float64
		if !bus.IsRoundtrip {
			back = make([]float64, n)
			for i := 1; i < n; i++ {
				t, err := rideTime(stops[i], stops[i-1])
				if err != nil {
					return nil, err
				}
				back[i] = t
			}
		}

		for i, stop := range stops {
			if !hasWait[stop] {
				hasWait[stop] = true
				addEdge(Arrived(stop), Boarding(stop), settings.BusWaitTime, EdgeInfo{Kind: EdgeWait, Stop: stop})
				stats.WaitEdges++
			}

			var sum float64
			for j := i + 1; j < n; j++ {
				if loop && i == 0 && j == n-1 {
					break
				}
				sum += hop[j]
				addEdge(Boarding(stop), Arrived(stops[j]), sum, EdgeInfo{
					Kind: EdgeRide, Bus: bus.ID, Span: j - i, From: i, To: j,
				})
				stats.RideEdges++
			}

			if bus.IsRoundtrip {
				continue
			}
			sum = 0
			for k := i - 1; k >= 0; k-- {
				sum += back[k+1]
				addEdge(Boarding(stop), Arrived(stops[k]), sum, EdgeInfo{
					Kind: EdgeRide, Bus: bus.ID, Span: i - k, From: i, To: k, Reverse: true,
				})
				stats.RideEdges++
			}
		}
	}

	g := b.Build()
	stats.Vertices = int(g.NumVertices)
	stats.Edges = g.NumEdges()

	var served []graph.VertexID
	for s, ok := range hasWait {
		if ok {
			served = append(served, Arrived(catalogue.StopID(s)).ID())
		}
	}
	var largest uint32
	stats.Components, largest = graph.ComponentSummary(g, served)
	// Every served stop brings both of its vertices into its component.
	stats.LargestComponent = int(largest) / 2

	log.Printf("Transit network: %d stops, %d buses, %d wait edges, %d ride edges",
		stats.Stops, stats.Buses, stats.WaitEdges, stats.RideEdges)

	return &Network{
		Graph:    g,
		Edges:    infos,
		Settings: settings,
		store:    store,
		stats:    stats,
	}, nil
}

// Stats returns summary counts for the network.
func (n *Network) Stats() Stats {
	return n.stats
}

// Edge returns the graph edge and its meaning.
func (n *Network) Edge(id graph.EdgeID) (graph.Edge, EdgeInfo) {
	return n.Graph.Edge(id), n.Edges[id]
}
