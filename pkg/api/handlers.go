package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"transit_router/pkg/catalogue"
	"transit_router/pkg/geo"
	"transit_router/pkg/spatial"
	"transit_router/pkg/transit"
)

const (
	maxBodyBytes       = 4096
	defaultNearbyLimit = 10
	maxNearbyLimit     = 100
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	q             Querier
	validate      *validator.Validate
	defaultRadius float64
}

// NewHandlers creates handlers over q. defaultRadius is the nearby-stops
// search radius in meters when the request gives none.
func NewHandlers(q Querier, defaultRadius float64) *Handlers {
	return &Handlers{
		q:             q,
		validate:      validator.New(),
		defaultRadius: defaultRadius,
	}
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Parse request.
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "")
		return
	}

	byName := req.From != "" || req.To != ""
	byCoords := req.Start != nil || req.End != nil
	switch {
	case byName && byCoords:
		writeError(w, r, http.StatusBadRequest, "invalid_request", "")
	case byName:
		h.routeByName(w, r, req)
	case byCoords:
		h.routeByCoords(w, r, req)
	default:
		writeError(w, r, http.StatusBadRequest, "invalid_request", "")
	}
}

func (h *Handlers) routeByName(w http.ResponseWriter, r *http.Request, req RouteRequest) {
	if req.From == "" {
		writeError(w, r, http.StatusBadRequest, "missing_stop", "from")
		return
	}
	if req.To == "" {
		writeError(w, r, http.StatusBadRequest, "missing_stop", "to")
		return
	}
	if _, ok := h.q.FindStop(req.From); !ok {
		writeError(w, r, http.StatusNotFound, "stop_not_found", "from")
		return
	}
	if _, ok := h.q.FindStop(req.To); !ok {
		writeError(w, r, http.StatusNotFound, "stop_not_found", "to")
		return
	}
	if ctxDone(w, r) {
		return
	}

	it, ok := h.q.GetRoute(req.From, req.To)
	if !ok {
		writeError(w, r, http.StatusNotFound, "no_route_found", "")
		return
	}
	writeJSON(w, http.StatusOK, routeResponse(req.From, req.To, it))
}

func (h *Handlers) routeByCoords(w http.ResponseWriter, r *http.Request, req RouteRequest) {
	// Validate coordinates.
	if req.Start == nil || h.validate.Struct(req.Start) != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if req.End == nil || h.validate.Struct(req.End) != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}
	if ctxDone(w, r) {
		return
	}

	pi, err := h.q.GetRouteBetween(
		geo.Coordinates{Lat: req.Start.Lat, Lng: req.Start.Lng},
		geo.Coordinates{Lat: req.End.Lat, Lng: req.End.Lng},
	)
	if err != nil {
		if errors.Is(err, spatial.ErrPointTooFar) || errors.Is(err, spatial.ErrEmptyIndex) {
			writeError(w, r, http.StatusUnprocessableEntity, "point_too_far_from_stop", "")
			return
		}
		if errors.Is(err, transit.ErrNoRoute) {
			writeError(w, r, http.StatusNotFound, "no_route_found", "")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "")
		return
	}

	resp := routeResponse(pi.From.Name, pi.To.Name, pi.Itinerary)
	resp.FromDistanceMeters = &pi.FromDistance
	resp.ToDistanceMeters = &pi.ToDistance
	writeJSON(w, http.StatusOK, resp)
}

func routeResponse(from, to string, it transit.Itinerary) RouteResponse {
	items := it.Items
	if items == nil {
		items = []transit.Item{}
	}
	return RouteResponse{From: from, To: to, TotalTime: it.TotalTime, Items: items}
}

// HandleBus handles GET /api/v1/buses/{name}.
func (h *Handlers) HandleBus(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	bus, stops, ok := h.q.FindBus(name)
	if !ok {
		writeError(w, r, http.StatusNotFound, "bus_not_found", "")
		return
	}
	info, err := h.q.GetBusInfo(name)
	if err != nil {
		if errors.Is(err, catalogue.ErrNoDistance) {
			writeError(w, r, http.StatusUnprocessableEntity, "missing_distance", "")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, BusResponse{
		Name:            bus.Name,
		IsRoundtrip:     bus.IsRoundtrip,
		Stops:           stops,
		StopCount:       info.StopCount,
		UniqueStopCount: info.UniqueStopCount,
		RouteLength:     info.RouteLength,
		Curvature:       info.Curvature,
	})
}

// HandleStop handles GET /api/v1/stops/{name}.
func (h *Handlers) HandleStop(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	stop, ok := h.q.FindStop(name)
	if !ok {
		writeError(w, r, http.StatusNotFound, "stop_not_found", "")
		return
	}
	buses, err := h.q.GetBusesForStop(name)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if buses == nil {
		buses = []string{}
	}
	writeJSON(w, http.StatusOK, StopResponse{
		Name:  stop.Name,
		Lat:   stop.Coordinates.Lat,
		Lng:   stop.Coordinates.Lng,
		Buses: buses,
	})
}

// HandleNearby handles GET /api/v1/stops/nearby?lat=..&lng=..[&radius=..][&limit=..].
func (h *Handlers) HandleNearby(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var ll LatLngJSON
	var err error
	if ll.Lat, err = strconv.ParseFloat(query.Get("lat"), 64); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_coordinates", "lat")
		return
	}
	if ll.Lng, err = strconv.ParseFloat(query.Get("lng"), 64); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_coordinates", "lng")
		return
	}
	if h.validate.Struct(ll) != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_coordinates", "")
		return
	}

	radius := h.defaultRadius
	if v := query.Get("radius"); v != "" {
		radius, err = strconv.ParseFloat(v, 64)
		if err != nil || !(radius > 0) {
			writeError(w, r, http.StatusBadRequest, "invalid_parameter", "radius")
			return
		}
	}
	limit := defaultNearbyLimit
	if v := query.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > maxNearbyLimit {
			writeError(w, r, http.StatusBadRequest, "invalid_parameter", "limit")
			return
		}
	}

	matches := h.q.Nearby(geo.Coordinates{Lat: ll.Lat, Lng: ll.Lng}, radius, limit)
	resp := NearbyResponse{Stops: make([]NearbyStopJSON, len(matches))}
	for i, m := range matches {
		resp.Stops[i] = NearbyStopJSON{
			Name:           m.Stop.Name,
			Lat:            m.Stop.Coordinates.Lat,
			Lng:            m.Stop.Coordinates.Lng,
			DistanceMeters: m.Dist,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.q.Stats())
}

// pathParam returns a decoded chi URL parameter. chi matches against the
// raw path when the request carries escaped slashes.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// ctxDone reports a request whose deadline already passed.
func ctxDone(w http.ResponseWriter, r *http.Request) bool {
	err := r.Context().Err()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, r, http.StatusServiceUnavailable, "request_timeout", "")
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field, RequestID: RequestIDFrom(r.Context())})
}
