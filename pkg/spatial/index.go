package spatial

import (
	"errors"
	"math"
	"sort"

	"github.com/tidwall/rtree"

	"transit_router/pkg/catalogue"
	"transit_router/pkg/geo"
)

// DefaultMaxSnapMeters bounds how far a query point may be from the stop it
// snaps to.
const DefaultMaxSnapMeters = 500.0

var (
	// ErrPointTooFar is returned when the query point is too far from any stop.
	ErrPointTooFar = errors.New("point too far from any stop")
	// ErrEmptyIndex is returned when snapping against an index with no stops.
	ErrEmptyIndex = errors.New("spatial index is empty")
)

// Match is a stop found near a query point.
type Match struct {
	Stop catalogue.Stop
	Dist float64 // meters from the query point
}

// Index provides nearest-stop lookups using an R-tree keyed by [lng, lat].
// It is read-only after construction and safe for concurrent use.
type Index struct {
	tree  rtree.RTreeG[catalogue.StopID]
	stops []catalogue.Stop // indexed by StopID
}

// NewIndex builds an index over the given stops. Stops with invalid
// coordinates are skipped.
func NewIndex(stops []catalogue.Stop) *Index {
	ix := &Index{stops: make([]catalogue.Stop, len(stops))}
	copy(ix.stops, stops)
	for _, s := range stops {
		if !s.Coordinates.Valid() {
			continue
		}
		p := point(s.Coordinates)
		ix.tree.Insert(p, p, s.ID)
	}
	return ix
}

// Len returns the number of indexed stops.
func (ix *Index) Len() int {
	return ix.tree.Len()
}

// Nearby returns stops within radius meters of c, nearest first. Ties are
// broken by stop id. A limit <= 0 means no limit.
func (ix *Index) Nearby(c geo.Coordinates, radius float64, limit int) []Match {
	if !(radius >= 0) {
		return nil
	}
	min, max := window(c, radius)
	var matches []Match
	ix.tree.Search(min, max, func(_, _ [2]float64, id catalogue.StopID) bool {
		stop := ix.stops[id]
		if d := geo.Distance(c, stop.Coordinates); d <= radius {
			matches = append(matches, Match{Stop: stop, Dist: d})
		}
		return true
	})
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Dist != matches[j].Dist {
			return matches[i].Dist < matches[j].Dist
		}
		return matches[i].Stop.ID < matches[j].Stop.ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Snap returns the stop nearest to c, failing with ErrPointTooFar when it is
// more than maxDist meters away.
func (ix *Index) Snap(c geo.Coordinates, maxDist float64) (Match, error) {
	if ix.tree.Len() == 0 {
		return Match{}, ErrEmptyIndex
	}
	matches := ix.Nearby(c, maxDist, 1)
	if len(matches) == 0 {
		return Match{}, ErrPointTooFar
	}
	return matches[0], nil
}

// Within returns the stops inside the box spanned by two corners, in stop id
// order.
func (ix *Index) Within(a, b geo.Coordinates) []catalogue.Stop {
	min := [2]float64{math.Min(a.Lng, b.Lng), math.Min(a.Lat, b.Lat)}
	max := [2]float64{math.Max(a.Lng, b.Lng), math.Max(a.Lat, b.Lat)}
	var out []catalogue.Stop
	ix.tree.Search(min, max, func(_, _ [2]float64, id catalogue.StopID) bool {
		out = append(out, ix.stops[id])
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func point(c geo.Coordinates) [2]float64 {
	return [2]float64{c.Lng, c.Lat}
}

// window returns the [lng, lat] box holding every point within radius
// meters of c. The longitude span widens with latitude and covers the whole
// circle once the radius reaches a pole.
func window(c geo.Coordinates, radius float64) (min, max [2]float64) {
	dLat := geo.MetersToDegrees(radius)
	dLng := 180.0
	sinAngle := math.Sin(dLat * math.Pi / 180)
	if cosLat := math.Cos(c.Lat * math.Pi / 180); dLat < 90 && sinAngle < cosLat {
		dLng = math.Asin(sinAngle/cosLat) * 180 / math.Pi
	}
	if dLng >= 180 {
		return [2]float64{-180, c.Lat - dLat}, [2]float64{180, c.Lat + dLat}
	}
	return [2]float64{c.Lng - dLng, c.Lat - dLat}, [2]float64{c.Lng + dLng, c.Lat + dLat}
}
