// Package requests answers statistics requests against a catalogue and its
// transit router, producing responses in the request document's JSON shape.
package requests

import (
	"transit_router/pkg/catalogue"
	"transit_router/pkg/transit"
)

// Request types.
const (
	TypeBus   = "Bus"
	TypeStop  = "Stop"
	TypeRoute = "Route"
	TypeMap   = "Map"
)

// Error messages carried in responses.
const (
	MsgNotFound    = "not found"
	MsgUnsupported = "unsupported request type"
)

// Request is a single statistics request.
type Request struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"` // Bus and Stop
	From string `json:"from,omitempty"` // Route
	To   string `json:"to,omitempty"`   // Route
}

// Response answers one request. Exactly one group of fields is set,
// depending on the request type, or ErrorMessage.
type Response struct {
	RequestID    int     `json:"request_id"`
	ErrorMessage *string `json:"error_message,omitempty"`

	// Bus.
	Curvature       *float64 `json:"curvature,omitempty"`
	RouteLength     *float64 `json:"route_length,omitempty"`
	StopCount       *int     `json:"stop_count,omitempty"`
	UniqueStopCount *int     `json:"unique_stop_count,omitempty"`

	// Stop. A pointer so that a stop without buses still renders "buses": [].
	Buses *[]string `json:"buses,omitempty"`

	// Route.
	TotalTime *float64        `json:"total_time,omitempty"`
	Items     *[]transit.Item `json:"items,omitempty"`
}

// RouteFinder finds itineraries between named stops.
type RouteFinder interface {
	GetRoute(from, to string) (transit.Itinerary, bool)
}

// Handler evaluates requests.
type Handler struct {
	store  *catalogue.Store
	router RouteFinder
}

// NewHandler creates a handler. router may be nil, in which case Route
// requests answer "not found".
func NewHandler(store *catalogue.Store, router RouteFinder) *Handler {
	return &Handler{store: store, router: router}
}

// Evaluate answers the requests in order.
func (h *Handler) Evaluate(reqs []Request) []Response {
	out := make([]Response, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, h.Answer(req))
	}
	return out
}

// Answer answers a single request.
func (h *Handler) Answer(req Request) Response {
	switch req.Type {
	case TypeBus:
		return h.bus(req)
	case TypeStop:
		return h.stop(req)
	case TypeRoute:
		return h.route(req)
	default:
		return errorResponse(req.ID, MsgUnsupported)
	}
}

func (h *Handler) bus(req Request) Response {
	info, err := h.store.GetBusInfo(req.Name)
	if err != nil {
		return errorResponse(req.ID, MsgNotFound)
	}
	return Response{
		RequestID:       req.ID,
		Curvature:       &info.Curvature,
		RouteLength:     &info.RouteLength,
		StopCount:       &info.StopCount,
		UniqueStopCount: &info.UniqueStopCount,
	}
}

func (h *Handler) stop(req Request) Response {
	buses, err := h.store.GetBusesForStop(req.Name)
	if err != nil {
		return errorResponse(req.ID, MsgNotFound)
	}
	buses = nonNil(buses)
	return Response{RequestID: req.ID, Buses: &buses}
}

func (h *Handler) route(req Request) Response {
	if h.router == nil {
		return errorResponse(req.ID, MsgNotFound)
	}
	it, ok := h.router.GetRoute(req.From, req.To)
	if !ok {
		return errorResponse(req.ID, MsgNotFound)
	}
	items := nonNil(it.Items)
	return Response{RequestID: req.ID, TotalTime: &it.TotalTime, Items: &items}
}

func errorResponse(id int, msg string) Response {
	return Response{RequestID: id, ErrorMessage: &msg}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
