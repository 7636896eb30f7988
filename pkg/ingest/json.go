package ingest

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/pkg/errors"

	"transit_router/pkg/catalogue"
	"transit_router/pkg/geo"
	"transit_router/pkg/requests"
)

// ErrMalformed is returned for input that fails structural checks.
var ErrMalformed = errors.New("malformed input")

// Document is a JSON request document: catalogue contents, routing
// settings and the statistics requests to answer.
type Document struct {
	BaseRequests    []BaseRequest      `json:"base_requests"`
	RoutingSettings *RoutingSettings   `json:"routing_settings,omitempty"`
	RenderSettings  json.RawMessage    `json:"render_settings,omitempty"`
	StatRequests    []requests.Request `json:"stat_requests"`
}

// BaseRequest describes a stop or a bus.
type BaseRequest struct {
	Type string `json:"type"` // "Stop" or "Bus"
	Name string `json:"name"`

	// Stop fields.
	Latitude      float64            `json:"latitude,omitempty"`
	Longitude     float64            `json:"longitude,omitempty"`
	RoadDistances map[string]float64 `json:"road_distances,omitempty"`

	// Bus fields.
	Stops       []string `json:"stops,omitempty"`
	IsRoundtrip bool     `json:"is_roundtrip,omitempty"`
}

// RoutingSettings holds bus velocity (km/h) and wait time (minutes).
type RoutingSettings struct {
	BusVelocity float64 `json:"bus_velocity"`
	BusWaitTime float64 `json:"bus_wait_time"`
}

// FromStore renders a catalogue as a request document without stat
// requests. Applying the result to an empty store reproduces the catalogue.
func FromStore(store *catalogue.Store) *Document {
	doc := &Document{StatRequests: []requests.Request{}}

	roads := make([]map[string]float64, store.NumStops())
	for _, d := range store.Distances() {
		if roads[d.From] == nil {
			roads[d.From] = map[string]float64{}
		}
		roads[d.From][store.Stop(d.To).Name] = d.Meters
	}
	for _, stop := range store.Stops() {
		doc.BaseRequests = append(doc.BaseRequests, BaseRequest{
			Type:          "Stop",
			Name:          stop.Name,
			Latitude:      stop.Coordinates.Lat,
			Longitude:     stop.Coordinates.Lng,
			RoadDistances: roads[stop.ID],
		})
	}

	for _, bus := range store.Buses() {
		names := make([]string, len(bus.Stops))
		for i, id := range bus.Stops {
			names[i] = store.Stop(id).Name
		}
		doc.BaseRequests = append(doc.BaseRequests, BaseRequest{
			Type:        "Bus",
			Name:        bus.Name,
			Stops:       names,
			IsRoundtrip: bus.IsRoundtrip,
		})
	}

	if settings, ok := store.RoutingSettings(); ok {
		doc.RoutingSettings = &RoutingSettings{BusVelocity: settings.BusVelocity, BusWaitTime: settings.BusWaitTime}
	}
	return doc
}

// Encode writes the document as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(d), "encoding request document")
}

// DecodeDocument reads a JSON request document.
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding request document")
	}
	return &doc, nil
}

// Apply loads the document's stops, distances, buses and routing settings
// into store. Stops are added first so that distances and buses may refer
// to stops declared later in the document.
func (d *Document) Apply(store *catalogue.Store) error {
	for i, req := range d.BaseRequests {
		switch req.Type {
		case "Stop", "Bus":
		default:
			return errors.Wrapf(ErrMalformed, "base_requests[%d]: unknown type %q", i, req.Type)
		}
		if req.Name == "" {
			return errors.Wrapf(ErrMalformed, "base_requests[%d]: empty name", i)
		}
	}

	for _, req := range d.BaseRequests {
		if req.Type != "Stop" {
			continue
		}
		coords := geo.Coordinates{Lat: req.Latitude, Lng: req.Longitude}
		if !coords.Valid() {
			return errors.Wrapf(ErrMalformed, "stop %q: invalid coordinates %v", req.Name, coords)
		}
		if _, err := store.AddStop(req.Name, coords); err != nil {
			return errors.Wrap(err, "adding stop")
		}
	}

	for _, req := range d.BaseRequests {
		if req.Type != "Stop" {
			continue
		}
		// Map order is random; sort for reproducible error reporting.
		to := make([]string, 0, len(req.RoadDistances))
		for name := range req.RoadDistances {
			to = append(to, name)
		}
		sort.Strings(to)
		for _, name := range to {
			meters := req.RoadDistances[name]
			if meters < 0 {
				return errors.Wrapf(ErrMalformed, "stop %q: negative distance to %q", req.Name, name)
			}
			if err := store.AddDistance(req.Name, name, meters); err != nil {
				return errors.Wrapf(err, "stop %q road_distances", req.Name)
			}
		}
	}

	for _, req := range d.BaseRequests {
		if req.Type != "Bus" {
			continue
		}
		if _, err := store.AddBus(req.Name, req.Stops, req.IsRoundtrip); err != nil {
			return errors.Wrap(err, "adding bus")
		}
	}

	if d.RoutingSettings != nil {
		if err := store.AddSpeedAndWait(d.RoutingSettings.BusVelocity, d.RoutingSettings.BusWaitTime); err != nil {
			return errors.Wrap(err, "routing_settings")
		}
	}
	return nil
}
