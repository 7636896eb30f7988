package transit

import (
	"errors"
	"fmt"

	"transit_router/pkg/catalogue"
	"transit_router/pkg/geo"
	"transit_router/pkg/routing"
	"transit_router/pkg/spatial"
)

// ErrNoRoute is returned by coordinate queries when the snapped stops are
// not connected.
var ErrNoRoute = errors.New("no route found")

// ItemKind is the type of an itinerary step.
type ItemKind string

const (
	ItemWait ItemKind = "Wait"
	ItemBus  ItemKind = "Bus"
)

// Item is one itinerary step: waiting at a stop or riding a bus.
type Item struct {
	Kind      ItemKind `json:"type"`
	StopName  string   `json:"stop_name,omitempty"`
	BusName   string   `json:"bus,omitempty"`
	SpanCount int      `json:"span_count,omitempty"`
	Time      float64  `json:"time"`
	Stops     []string `json:"stops,omitempty"`
}

// Itinerary is a fastest journey between two stops. Times are in minutes.
type Itinerary struct {
	TotalTime float64 `json:"total_time"`
	Items     []Item  `json:"items"`
}

// PointItinerary is an itinerary between the stops nearest to two points.
type PointItinerary struct {
	From         catalogue.Stop
	To           catalogue.Stop
	FromDistance float64 // meters from the origin point to From
	ToDistance   float64 // meters from the destination point to To
	Itinerary
}

// Router answers fastest-journey queries over a catalogue. It is safe for
// concurrent use once constructed.
type Router struct {
	store   *catalogue.Store
	network *Network
	paths   *routing.Router
	index   *spatial.Index
}

// NewRouter builds the transit network for store and prepares it for
// queries. The store must not be modified afterwards.
func NewRouter(store *catalogue.Store) (*Router, error) {
	network, err := Build(store)
	if err != nil {
		return nil, fmt.Errorf("build transit network: %w", err)
	}
	return &Router{
		store:   store,
		network: network,
		paths:   routing.NewRouter(network.Graph),
		index:   spatial.NewIndex(store.Stops()),
	}, nil
}

// Network returns the underlying transit network.
func (r *Router) Network() *Network {
	return r.network
}

// Index returns the spatial index over the catalogue's stops.
func (r *Router) Index() *spatial.Index {
	return r.index
}

// GetRoute finds the fastest journey between two named stops. The journey
// starts with a wait at the origin and ends on arrival at the destination.
// It returns false for unknown stops and unconnected pairs.
func (r *Router) GetRoute(from, to string) (Itinerary, bool) {
	fromStop, ok := r.store.FindStop(from)
	if !ok {
		return Itinerary{}, false
	}
	toStop, ok := r.store.FindStop(to)
	if !ok {
		return Itinerary{}, false
	}
	return r.route(fromStop.ID, toStop.ID)
}

// GetRouteBetween snaps both points to their nearest stops within maxSnap
// meters and finds the fastest journey between those stops.
func (r *Router) GetRouteBetween(from, to geo.Coordinates, maxSnap float64) (PointItinerary, error) {
	start, err := r.index.Snap(from, maxSnap)
	if err != nil {
		return PointItinerary{}, fmt.Errorf("snap origin: %w", err)
	}
	end, err := r.index.Snap(to, maxSnap)
	if err != nil {
		return PointItinerary{}, fmt.Errorf("snap destination: %w", err)
	}

	it, ok := r.route(start.Stop.ID, end.Stop.ID)
	if !ok {
		return PointItinerary{}, fmt.Errorf("%w: %q -> %q", ErrNoRoute, start.Stop.Name, end.Stop.Name)
	}
	return PointItinerary{
		From:         start.Stop,
		To:           end.Stop,
		FromDistance: start.Dist,
		ToDistance:   end.Dist,
		Itinerary:    it,
	}, nil
}

func (r *Router) route(from, to catalogue.StopID) (Itinerary, bool) {
	info, ok := r.paths.BuildRoute(Arrived(from).ID(), Arrived(to).ID())
	if !ok {
		return Itinerary{}, false
	}
	return Itinerary{
		TotalTime: info.Weight,
		Items:     r.network.decode(info.Edges),
	}, true
}
