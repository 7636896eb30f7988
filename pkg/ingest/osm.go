package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"

	"transit_router/pkg/catalogue"
	"transit_router/pkg/geo"
)

// Format is an OSM file encoding.
type Format int

const (
	FormatPBF Format = iota
	FormatXML
)

// FormatFromPath guesses the encoding from a file name: .osm and .xml are
// XML, everything else is PBF.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".osm", ".xml":
		return FormatXML
	}
	return FormatPBF
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only stops inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// OSMOptions configures the OSM importer.
type OSMOptions struct {
	Format Format
	BBox   BBox // if non-zero, drop stops outside this bounding box
}

// OSMStop is a bus stop node.
type OSMStop struct {
	NodeID osm.NodeID
	Name   string
	Coords geo.Coordinates
}

// OSMRoute is a bus route relation reduced to its stop sequence.
type OSMRoute struct {
	RelationID  osm.RelationID
	Name        string
	Stops       []osm.NodeID
	IsRoundtrip bool
}

// OSMResult holds the stops and routes extracted from an OSM file.
type OSMResult struct {
	Stops  []OSMStop
	Routes []OSMRoute
}

// isBusStop reports whether a node is tagged as a place to board a bus.
func isBusStop(tags osm.Tags) bool {
	if tags.Find("highway") == "bus_stop" {
		return true
	}
	switch tags.Find("public_transport") {
	case "platform", "stop_position":
		return tags.Find("bus") != "no"
	}
	return false
}

// isBusRoute reports whether a relation is a bus route.
func isBusRoute(tags osm.Tags) bool {
	return tags.Find("type") == "route" && tags.Find("route") == "bus"
}

// routeMembers picks the stop nodes of a route relation. Members with a
// stop role win over platforms, so that a stop mapped both ways is not
// visited twice.
func routeMembers(members osm.Members) []osm.NodeID {
	var stops, platforms, other []osm.NodeID
	for _, m := range members {
		if m.Type != osm.TypeNode {
			continue
		}
		id := osm.NodeID(m.Ref)
		switch {
		case strings.HasPrefix(m.Role, "stop"):
			stops = append(stops, id)
		case strings.HasPrefix(m.Role, "platform"):
			platforms = append(platforms, id)
		case m.Role == "":
			other = append(other, id)
		}
	}
	switch {
	case len(stops) > 0:
		return stops
	case len(platforms) > 0:
		return platforms
	}
	return other
}

func newScanner(ctx context.Context, r io.Reader, format Format, nodes bool) osm.Scanner {
	if format == FormatXML {
		return osmxml.New(ctx, r)
	}
	s := osmpbf.New(ctx, r, 1)
	s.SkipWays = true
	s.SkipNodes = !nodes
	s.SkipRelations = nodes
	return s
}

// ParseOSM extracts bus stops and bus routes from an OSM file.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func ParseOSM(ctx context.Context, rs io.ReadSeeker, opts OSMOptions) (*OSMResult, error) {
	useBBox := !opts.BBox.IsZero()

	// Pass 1: Scan relations to collect bus routes and referenced nodes.
	type rawRoute struct {
		id        osm.RelationID
		name      string
		nodes     []osm.NodeID
		roundtrip bool
	}
	var routes []rawRoute
	referenced := make(map[osm.NodeID]struct{})

	scanner := newScanner(ctx, rs, opts.Format, false)
	for scanner.Scan() {
		rel, ok := scanner.Object().(*osm.Relation)
		if !ok || !isBusRoute(rel.Tags) {
			continue
		}
		name := rel.Tags.Find("ref")
		if name == "" {
			name = rel.Tags.Find("name")
		}
		if name == "" {
			name = fmt.Sprintf("relation/%d", rel.ID)
		}
		nodes := routeMembers(rel.Members)
		for _, id := range nodes {
			referenced[id] = struct{}{}
		}
		routes = append(routes, rawRoute{
			id:        rel.ID,
			name:      name,
			nodes:     nodes,
			roundtrip: rel.Tags.Find("roundtrip") == "yes",
		})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, errors.Wrap(err, "pass 1 (relations)")
	}
	scanner.Close()

	log.Printf("Pass 1 complete: %d bus routes, %d referenced nodes", len(routes), len(referenced))

	// Pass 2: Scan nodes for stop names and coordinates.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "seek for pass 2")
	}

	result := &OSMResult{}
	kept := make(map[osm.NodeID]struct{})
	names := make(map[string]struct{})
	var bboxFiltered int

	scanner = newScanner(ctx, rs, opts.Format, true)
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		_, needed := referenced[n.ID]
		name := n.Tags.Find("name")
		if !needed && (name == "" || !isBusStop(n.Tags)) {
			continue
		}
		if useBBox && !opts.BBox.Contains(n.Lat, n.Lon) {
			bboxFiltered++
			continue
		}
		if name == "" {
			name = fmt.Sprintf("node/%d", n.ID)
		}
		// Stop names must be unique; OSM names are not.
		if _, dup := names[name]; dup {
			name = fmt.Sprintf("%s (node/%d)", name, n.ID)
		}
		names[name] = struct{}{}
		kept[n.ID] = struct{}{}
		result.Stops = append(result.Stops, OSMStop{
			NodeID: n.ID,
			Name:   name,
			Coords: geo.Coordinates{Lat: n.Lat, Lng: n.Lon},
		})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, errors.Wrap(err, "pass 2 (nodes)")
	}
	scanner.Close()

	log.Printf("Pass 2 complete: %d stops collected", len(result.Stops))
	if bboxFiltered > 0 {
		log.Printf("Filtered %d stops outside bounding box", bboxFiltered)
	}

	// Reduce routes to stops that survived, dropping repeats.
	busNames := make(map[string]struct{})
	var skippedRoutes int
	for _, r := range routes {
		var seq []osm.NodeID
		for _, id := range r.nodes {
			if _, ok := kept[id]; !ok {
				continue
			}
			if len(seq) > 0 && seq[len(seq)-1] == id {
				continue
			}
			seq = append(seq, id)
		}
		if len(seq) < 2 {
			skippedRoutes++
			continue
		}
		roundtrip := r.roundtrip || seq[0] == seq[len(seq)-1]
		if roundtrip && seq[0] != seq[len(seq)-1] {
			seq = append(seq, seq[0])
		}
		name := r.name
		if _, dup := busNames[name]; dup {
			name = fmt.Sprintf("%s (relation/%d)", name, r.id)
		}
		busNames[name] = struct{}{}
		result.Routes = append(result.Routes, OSMRoute{
			RelationID:  r.id,
			Name:        name,
			Stops:       seq,
			IsRoundtrip: roundtrip,
		})
	}
	if skippedRoutes > 0 {
		log.Printf("Warning: skipped %d routes with fewer than 2 known stops", skippedRoutes)
	}

	return result, nil
}

// Apply loads the extracted stops and routes into store. Road distances are
// not mapped in OSM, so each consecutive pair of stops on a route gets its
// great-circle distance, rounded to whole meters, in both directions unless
// already recorded.
func (res *OSMResult) Apply(store *catalogue.Store) error {
	names := make(map[osm.NodeID]string, len(res.Stops))
	coords := make(map[osm.NodeID]geo.Coordinates, len(res.Stops))
	for _, s := range res.Stops {
		if _, err := store.AddStop(s.Name, s.Coords); err != nil {
			return errors.Wrapf(err, "node %d", s.NodeID)
		}
		names[s.NodeID] = s.Name
		coords[s.NodeID] = s.Coords
	}

	recorded := make(map[[2]osm.NodeID]struct{})
	var distances int
	for _, r := range res.Routes {
		stopNames := make([]string, len(r.Stops))
		for i, id := range r.Stops {
			name, ok := names[id]
			if !ok {
				return errors.Wrapf(ErrMalformed, "relation %d: node %d is not a stop", r.RelationID, id)
			}
			stopNames[i] = name
			if i == 0 {
				continue
			}
			prev := r.Stops[i-1]
			meters := math.Round(geo.Distance(coords[prev], coords[id]))
			for _, pair := range [][2]osm.NodeID{{prev, id}, {id, prev}} {
				if _, ok := recorded[pair]; ok {
					continue
				}
				recorded[pair] = struct{}{}
				if err := store.AddDistance(names[pair[0]], names[pair[1]], meters); err != nil {
					return errors.Wrapf(err, "relation %d", r.RelationID)
				}
				distances++
			}
		}
		if _, err := store.AddBus(r.Name, stopNames, r.IsRoundtrip); err != nil {
			return errors.Wrapf(err, "relation %d", r.RelationID)
		}
	}

	log.Printf("Imported %d stops, %d buses, %d distances", len(res.Stops), len(res.Routes), distances)
	return nil
}
