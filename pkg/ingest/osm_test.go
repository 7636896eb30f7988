package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit_router/pkg/catalogue"
)

const testOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="1.300" lon="103.800">
    <tag k="highway" v="bus_stop"/><tag k="name" v="Alpha"/>
  </node>
  <node id="2" lat="1.301" lon="103.800">
    <tag k="highway" v="bus_stop"/><tag k="name" v="Bravo"/>
  </node>
  <node id="3" lat="1.302" lon="103.800">
    <tag k="public_transport" v="platform"/><tag k="name" v="Charlie"/>
  </node>
  <node id="4" lat="1.303" lon="103.800">
    <tag k="highway" v="bus_stop"/><tag k="name" v="Alpha"/>
  </node>
  <node id="5" lat="1.304" lon="103.800"/>
  <node id="6" lat="5.000" lon="5.000">
    <tag k="highway" v="bus_stop"/><tag k="name" v="Outside"/>
  </node>
  <node id="7" lat="1.305" lon="103.800">
    <tag k="amenity" v="bench"/><tag k="name" v="Bench"/>
  </node>
  <relation id="100">
    <member type="node" ref="1" role="stop"/>
    <member type="node" ref="1" role="stop"/>
    <member type="node" ref="2" role="stop"/>
    <member type="node" ref="3" role="stop"/>
    <member type="node" ref="2" role="platform"/>
    <member type="way" ref="900" role=""/>
    <tag k="type" v="route"/><tag k="route" v="bus"/><tag k="ref" v="10"/>
  </relation>
  <relation id="101">
    <member type="node" ref="3" role="platform"/>
    <member type="node" ref="5" role="platform"/>
    <tag k="type" v="route"/><tag k="route" v="bus"/><tag k="ref" v="10"/>
    <tag k="roundtrip" v="yes"/>
  </relation>
  <relation id="102">
    <member type="node" ref="1" role="stop"/>
    <member type="node" ref="6" role="stop"/>
    <tag k="type" v="route"/><tag k="route" v="bus"/><tag k="name" v="Far away"/>
  </relation>
  <relation id="103">
    <member type="node" ref="1" role="stop"/>
    <member type="node" ref="2" role="stop"/>
    <tag k="type" v="route"/><tag k="route" v="tram"/>
  </relation>
</osm>`

func parseTestOSM(t *testing.T) *OSMResult {
	t.Helper()
	res, err := ParseOSM(context.Background(), strings.NewReader(testOSM), OSMOptions{
		Format: FormatXML,
		BBox:   BBox{MinLat: 1, MaxLat: 2, MinLng: 103, MaxLng: 104},
	})
	require.NoError(t, err)
	return res
}

func TestParseOSM(t *testing.T) {
	res := parseTestOSM(t)

	var names []string
	for _, s := range res.Stops {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie", "Alpha (node/4)", "node/5"}, names)

	require.Len(t, res.Routes, 2, "tram and out-of-box routes dropped")

	r := res.Routes[0]
	assert.Equal(t, "10", r.Name)
	assert.Equal(t, []osm.NodeID{1, 2, 3}, r.Stops)
	assert.False(t, r.IsRoundtrip)

	r = res.Routes[1]
	assert.Equal(t, "10 (relation/101)", r.Name)
	assert.Equal(t, []osm.NodeID{3, 5, 3}, r.Stops, "round trip closed")
	assert.True(t, r.IsRoundtrip)
}

func TestOSMApply(t *testing.T) {
	res := parseTestOSM(t)
	s := catalogue.NewStore()
	require.NoError(t, res.Apply(s))

	assert.Equal(t, 5, s.NumStops())
	bus, ok := s.FindBus("10")
	require.True(t, ok)
	assert.Len(t, bus.Stops, 3)

	// 0.001 degrees of latitude is about 111 m.
	d, err := s.GetDistance("Alpha", "Bravo")
	require.NoError(t, err)
	assert.Equal(t, 111.0, d)
	d, err = s.GetDistance("Bravo", "Alpha")
	require.NoError(t, err)
	assert.Equal(t, 111.0, d)

	info, err := s.GetBusInfo("10")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, info.Curvature, 0.01)
}

func TestIsBusStop(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{"highway bus_stop", osm.Tags{{Key: "highway", Value: "bus_stop"}}, true},
		{"platform", osm.Tags{{Key: "public_transport", Value: "platform"}}, true},
		{"stop position", osm.Tags{{Key: "public_transport", Value: "stop_position"}}, true},
		{"tram platform", osm.Tags{{Key: "public_transport", Value: "platform"}, {Key: "bus", Value: "no"}}, false},
		{"station", osm.Tags{{Key: "public_transport", Value: "station"}}, false},
		{"untagged", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBusStop(tt.tags))
		})
	}
}

func TestRouteMembers(t *testing.T) {
	members := osm.Members{
		{Type: osm.TypeNode, Ref: 2, Role: "platform"},
		{Type: osm.TypeNode, Ref: 1, Role: "stop_entry_only"},
		{Type: osm.TypeWay, Ref: 9},
	}
	assert.Equal(t, []osm.NodeID{1}, routeMembers(members))
	assert.Equal(t, []osm.NodeID{2}, routeMembers(members[:1]))
	assert.Empty(t, routeMembers(members[2:]))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatXML, FormatFromPath("city.osm"))
	assert.Equal(t, FormatXML, FormatFromPath("CITY.XML"))
	assert.Equal(t, FormatPBF, FormatFromPath("city.osm.pbf"))
}
