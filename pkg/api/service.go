package api

import (
	"transit_router/pkg/catalogue"
	"transit_router/pkg/geo"
	"transit_router/pkg/spatial"
	"transit_router/pkg/transit"
)

// Querier is the read-only query surface the handlers need.
type Querier interface {
	GetRoute(from, to string) (transit.Itinerary, bool)
	GetRouteBetween(from, to geo.Coordinates) (transit.PointItinerary, error)
	FindBus(name string) (catalogue.Bus, []string, bool)
	GetBusInfo(name string) (catalogue.BusInfo, error)
	FindStop(name string) (catalogue.Stop, bool)
	GetBusesForStop(name string) ([]string, error)
	Nearby(c geo.Coordinates, radius float64, limit int) []spatial.Match
	Stats() transit.Stats
}

// Service implements Querier over a catalogue and its transit router.
type Service struct {
	store   *catalogue.Store
	router  *transit.Router
	maxSnap float64
}

// NewService creates a Service. maxSnap bounds coordinate snapping in meters.
func NewService(store *catalogue.Store, router *transit.Router, maxSnap float64) *Service {
	return &Service{store: store, router: router, maxSnap: maxSnap}
}

func (s *Service) GetRoute(from, to string) (transit.Itinerary, bool) {
	return s.router.GetRoute(from, to)
}

func (s *Service) GetRouteBetween(from, to geo.Coordinates) (transit.PointItinerary, error) {
	return s.router.GetRouteBetween(from, to, s.maxSnap)
}

// FindBus returns a bus along with the names of its declared stops.
func (s *Service) FindBus(name string) (catalogue.Bus, []string, bool) {
	bus, ok := s.store.FindBus(name)
	if !ok {
		return catalogue.Bus{}, nil, false
	}
	names := make([]string, len(bus.Stops))
	for i, id := range bus.Stops {
		names[i] = s.store.Stop(id).Name
	}
	return bus, names, true
}

func (s *Service) GetBusInfo(name string) (catalogue.BusInfo, error) {
	return s.store.GetBusInfo(name)
}

func (s *Service) FindStop(name string) (catalogue.Stop, bool) {
	return s.store.FindStop(name)
}

func (s *Service) GetBusesForStop(name string) ([]string, error) {
	return s.store.GetBusesForStop(name)
}

func (s *Service) Nearby(c geo.Coordinates, radius float64, limit int) []spatial.Match {
	return s.router.Index().Nearby(c, radius, limit)
}

func (s *Service) Stats() transit.Stats {
	return s.router.Network().Stats()
}
