package api

import "transit_router/pkg/transit"

// RouteRequest is the JSON body for POST /api/v1/route. Either both stop
// names or both coordinates must be given.
type RouteRequest struct {
	From  string      `json:"from,omitempty"`
	To    string      `json:"to,omitempty"`
	Start *LatLngJSON `json:"start,omitempty"`
	End   *LatLngJSON `json:"end,omitempty"`
}

// LatLngJSON represents a lat/lng pair in JSON.
type LatLngJSON struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	From               string         `json:"from"`
	To                 string         `json:"to"`
	FromDistanceMeters *float64       `json:"from_distance_meters,omitempty"` // coordinate queries only
	ToDistanceMeters   *float64       `json:"to_distance_meters,omitempty"`
	TotalTime          float64        `json:"total_time"`
	Items              []transit.Item `json:"items"`
}

// BusResponse is the JSON response for GET /api/v1/buses/{name}.
type BusResponse struct {
	Name            string   `json:"name"`
	IsRoundtrip     bool     `json:"is_roundtrip"`
	Stops           []string `json:"stops"`
	StopCount       int      `json:"stop_count"`
	UniqueStopCount int      `json:"unique_stop_count"`
	RouteLength     float64  `json:"route_length"`
	Curvature       float64  `json:"curvature"`
}

// StopResponse is the JSON response for GET /api/v1/stops/{name}.
type StopResponse struct {
	Name  string   `json:"name"`
	Lat   float64  `json:"lat"`
	Lng   float64  `json:"lng"`
	Buses []string `json:"buses"`
}

// NearbyStopJSON is one entry of a nearby-stops response.
type NearbyStopJSON struct {
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	DistanceMeters float64 `json:"distance_meters"`
}

// NearbyResponse is the JSON response for GET /api/v1/stops/nearby.
type NearbyResponse struct {
	Stops []NearbyStopJSON `json:"stops"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse = transit.Stats

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
