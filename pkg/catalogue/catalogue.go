package catalogue

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"transit_router/pkg/geo"
)

var (
	// ErrUnknownStop is returned when a stop name is not in the catalogue.
	ErrUnknownStop = errors.New("unknown stop")
	// ErrUnknownBus is returned when a bus name is not in the catalogue.
	ErrUnknownBus = errors.New("unknown bus")
	// ErrDuplicateStop is returned when a stop name is added twice.
	ErrDuplicateStop = errors.New("duplicate stop")
	// ErrDuplicateBus is returned when a bus name is added twice.
	ErrDuplicateBus = errors.New("duplicate bus")
	// ErrNoDistance is returned when no road distance is recorded between
	// two stops in either direction.
	ErrNoDistance = errors.New("no distance between stops")
	// ErrInvalidDistance is returned for negative, NaN or infinite road distances.
	ErrInvalidDistance = errors.New("invalid road distance")
	// ErrInvalidSettings is returned for non-positive velocity or wait time.
	ErrInvalidSettings = errors.New("invalid routing settings")
)

// StopID is a dense index into the catalogue's stop list, in insertion order.
type StopID uint32

// BusID is a dense index into the catalogue's bus list, in insertion order.
type BusID uint32

// Stop is a named location.
type Stop struct {
	ID          StopID
	Name        string
	Coordinates geo.Coordinates
}

// Bus is a named route over catalogue stops.
//
// Stops holds the declared stop list. A round trip bus declares its loop
// explicitly (first stop == last stop). A back-and-forth bus declares one
// direction only; Effective expands it.
type Bus struct {
	ID          BusID
	Name        string
	Stops       []StopID
	IsRoundtrip bool
}

// Effective returns the stop sequence the bus actually traverses: the
// declared list for round trips, [A,B,C,B,A] for a back-and-forth [A,B,C].
func (b Bus) Effective() []StopID {
	if b.IsRoundtrip || len(b.Stops) == 0 {
		out := make([]StopID, len(b.Stops))
		copy(out, b.Stops)
		return out
	}
	out := make([]StopID, 0, 2*len(b.Stops)-1)
	out = append(out, b.Stops...)
	for i := len(b.Stops) - 2; i >= 0; i-- {
		out = append(out, b.Stops[i])
	}
	return out
}

// BusInfo holds route statistics for a bus.
type BusInfo struct {
	StopCount       int
	UniqueStopCount int
	RouteLength     float64 // road meters along the effective route
	Curvature       float64 // RouteLength / great-circle length
}

// RoutingSettings holds global routing parameters.
type RoutingSettings struct {
	BusVelocity float64 // km/h
	BusWaitTime float64 // minutes
}

// Validate checks that both settings are positive.
func (s RoutingSettings) Validate() error {
	if !(s.BusVelocity > 0) {
		return fmt.Errorf("%w: bus velocity must be positive, got %v", ErrInvalidSettings, s.BusVelocity)
	}
	if !(s.BusWaitTime > 0) {
		return fmt.Errorf("%w: bus wait time must be positive, got %v", ErrInvalidSettings, s.BusWaitTime)
	}
	return nil
}

type stopPair struct {
	from, to StopID
}

// Distance is a recorded road distance between two stops.
type Distance struct {
	From   StopID
	To     StopID
	Meters float64
}

// Store owns stops, buses and road distances.
//
// Entities are append-only. A Store is not safe for concurrent writes; once
// populated it may be read from multiple goroutines.
type Store struct {
	stops     []Stop
	buses     []Bus
	stopIndex map[string]StopID
	busIndex  map[string]BusID
	distances map[stopPair]float64

	// bus ids per stop, in insertion order, without duplicates
	stopBuses map[StopID][]BusID

	settings    RoutingSettings
	hasSettings bool
}

// NewStore creates an empty catalogue.
func NewStore() *Store {
	return &Store{
		stopIndex: map[string]StopID{},
		busIndex:  map[string]BusID{},
		distances: map[stopPair]float64{},
		stopBuses: map[StopID][]BusID{},
	}
}

// AddStop inserts a new stop.
func (s *Store) AddStop(name string, coords geo.Coordinates) (StopID, error) {
	if _, ok := s.stopIndex[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateStop, name)
	}
	id := StopID(len(s.stops))
	s.stops = append(s.stops, Stop{ID: id, Name: name, Coordinates: coords})
	s.stopIndex[name] = id
	return id, nil
}

// AddDistance records the road distance in meters from one stop to another.
// An existing entry for the same ordered pair is overwritten.
func (s *Store) AddDistance(from, to string, meters float64) error {
	if meters < 0 || math.IsNaN(meters) || math.IsInf(meters, 0) {
		return fmt.Errorf("%w: %q -> %q: %v", ErrInvalidDistance, from, to, meters)
	}
	fromID, ok := s.stopIndex[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStop, from)
	}
	toID, ok := s.stopIndex[to]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStop, to)
	}
	s.distances[stopPair{fromID, toID}] = meters
	return nil
}

// GetDistance returns the road distance from a to b, falling back to the
// distance recorded from b to a.
func (s *Store) GetDistance(a, b string) (float64, error) {
	aID, ok := s.stopIndex[a]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStop, a)
	}
	bID, ok := s.stopIndex[b]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStop, b)
	}
	return s.DistanceBetween(aID, bID)
}

// DistanceBetween is GetDistance keyed by stop ids.
func (s *Store) DistanceBetween(a, b StopID) (float64, error) {
	if d, ok := s.distances[stopPair{a, b}]; ok {
		return d, nil
	}
	if d, ok := s.distances[stopPair{b, a}]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q -> %q", ErrNoDistance, s.stopName(a), s.stopName(b))
}

// Distances returns every recorded distance ordered by (From, To).
func (s *Store) Distances() []Distance {
	out := make([]Distance, 0, len(s.distances))
	for pair, meters := range s.distances {
		out = append(out, Distance{From: pair.from, To: pair.to, Meters: meters})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// AddBus stores a bus over already known stops.
func (s *Store) AddBus(name string, stopNames []string, isRoundtrip bool) (BusID, error) {
	if _, ok := s.busIndex[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateBus, name)
	}

	stops := make([]StopID, len(stopNames))
	for i, stopName := range stopNames {
		id, ok := s.stopIndex[stopName]
		if !ok {
			return 0, fmt.Errorf("bus %q: %w: %q", name, ErrUnknownStop, stopName)
		}
		stops[i] = id
	}

	id := BusID(len(s.buses))
	s.buses = append(s.buses, Bus{ID: id, Name: name, Stops: stops, IsRoundtrip: isRoundtrip})
	s.busIndex[name] = id

	seen := map[StopID]bool{}
	for _, stop := range stops {
		if seen[stop] {
			continue
		}
		seen[stop] = true
		s.stopBuses[stop] = append(s.stopBuses[stop], id)
	}

	return id, nil
}

// AddSpeedAndWait sets the global bus velocity (km/h) and wait time (minutes).
func (s *Store) AddSpeedAndWait(velocity, wait float64) error {
	return s.SetRoutingSettings(RoutingSettings{BusVelocity: velocity, BusWaitTime: wait})
}

// SetRoutingSettings validates and stores routing settings.
func (s *Store) SetRoutingSettings(settings RoutingSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.settings = settings
	s.hasSettings = true
	return nil
}

// RoutingSettings returns the routing settings, if set.
func (s *Store) RoutingSettings() (RoutingSettings, bool) {
	return s.settings, s.hasSettings
}

// FindStop looks up a stop by name.
func (s *Store) FindStop(name string) (Stop, bool) {
	id, ok := s.stopIndex[name]
	if !ok {
		return Stop{}, false
	}
	return s.stops[id], true
}

// FindBus looks up a bus by name.
func (s *Store) FindBus(name string) (Bus, bool) {
	id, ok := s.busIndex[name]
	if !ok {
		return Bus{}, false
	}
	return s.buses[id], true
}

// Stop returns the stop with the given id. It panics if id is out of range.
func (s *Store) Stop(id StopID) Stop {
	return s.stops[id]
}

// Bus returns the bus with the given id. It panics if id is out of range.
func (s *Store) Bus(id BusID) Bus {
	return s.buses[id]
}

// Stops returns all stops in insertion order. The slice must not be modified.
func (s *Store) Stops() []Stop {
	return s.stops
}

// Buses returns all buses in insertion order. The slice must not be modified.
func (s *Store) Buses() []Bus {
	return s.buses
}

// NumStops returns the number of stops.
func (s *Store) NumStops() int {
	return len(s.stops)
}

// GetBusesForStop returns the sorted names of buses visiting a stop. A known
// stop without buses yields an empty, non-nil slice.
func (s *Store) GetBusesForStop(name string) ([]string, error) {
	id, ok := s.stopIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStop, name)
	}
	names := make([]string, 0, len(s.stopBuses[id]))
	for _, bus := range s.stopBuses[id] {
		names = append(names, s.buses[bus].Name)
	}
	sort.Strings(names)
	return names, nil
}

// GetBusInfo computes route statistics over the bus's effective route.
// Road length uses the directed distance lookup per hop; a hop without a
// recorded distance fails with ErrNoDistance.
func (s *Store) GetBusInfo(name string) (BusInfo, error) {
	id, ok := s.busIndex[name]
	if !ok {
		return BusInfo{}, fmt.Errorf("%w: %q", ErrUnknownBus, name)
	}
	route := s.buses[id].Effective()

	unique := map[StopID]struct{}{}
	points := make([]geo.Coordinates, len(route))
	var roadLength float64
	for i, stop := range route {
		unique[stop] = struct{}{}
		points[i] = s.stops[stop].Coordinates
		if i == 0 {
			continue
		}
		d, err := s.DistanceBetween(route[i-1], stop)
		if err != nil {
			return BusInfo{}, fmt.Errorf("bus %q: %w", name, err)
		}
		roadLength += d
	}

	info := BusInfo{
		StopCount:       len(route),
		UniqueStopCount: len(unique),
		RouteLength:     roadLength,
	}
	if geoLength := geo.PathLength(points); geoLength > 0 {
		info.Curvature = roadLength / geoLength
	}
	return info, nil
}

func (s *Store) stopName(id StopID) string {
	if int(id) < len(s.stops) {
		return s.stops[id].Name
	}
	return fmt.Sprintf("#%d", id)
}
