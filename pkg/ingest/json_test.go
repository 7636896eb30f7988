package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit_router/pkg/catalogue"
	"transit_router/pkg/requests"
)

const testDocument = `{
  "base_requests": [
    {"type": "Bus", "name": "114", "stops": ["Morskoy", "Riviera"], "is_roundtrip": false},
    {"type": "Stop", "name": "Riviera", "latitude": 43.587795, "longitude": 39.716901,
     "road_distances": {"Morskoy": 850}},
    {"type": "Stop", "name": "Morskoy", "latitude": 43.581969, "longitude": 39.719848,
     "road_distances": {"Riviera": 720}}
  ],
  "routing_settings": {"bus_velocity": 40, "bus_wait_time": 6},
  "render_settings": {"width": 200},
  "stat_requests": [
    {"id": 1, "type": "Stop", "name": "Riviera"},
    {"id": 2, "type": "Bus", "name": "114"},
    {"id": 3, "type": "Route", "from": "Morskoy", "to": "Riviera"}
  ]
}`

func TestDecodeAndApply(t *testing.T) {
	doc, err := DecodeDocument(strings.NewReader(testDocument))
	require.NoError(t, err)
	require.Len(t, doc.BaseRequests, 3)
	assert.Equal(t, []requests.Request{
		{ID: 1, Type: "Stop", Name: "Riviera"},
		{ID: 2, Type: "Bus", Name: "114"},
		{ID: 3, Type: "Route", From: "Morskoy", To: "Riviera"},
	}, doc.StatRequests)
	assert.NotEmpty(t, doc.RenderSettings)

	s := catalogue.NewStore()
	require.NoError(t, doc.Apply(s))

	// The bus is declared before its stops.
	bus, ok := s.FindBus("114")
	require.True(t, ok)
	assert.Len(t, bus.Stops, 2)

	d, err := s.GetDistance("Morskoy", "Riviera")
	require.NoError(t, err)
	assert.Equal(t, 720.0, d)
	d, err = s.GetDistance("Riviera", "Morskoy")
	require.NoError(t, err)
	assert.Equal(t, 850.0, d)

	settings, ok := s.RoutingSettings()
	require.True(t, ok)
	assert.Equal(t, catalogue.RoutingSettings{BusVelocity: 40, BusWaitTime: 6}, settings)
}

func TestApplyWithoutSettings(t *testing.T) {
	doc := &Document{BaseRequests: []BaseRequest{{Type: "Stop", Name: "A"}}}
	s := catalogue.NewStore()
	require.NoError(t, doc.Apply(s))
	_, ok := s.RoutingSettings()
	assert.False(t, ok)
}

func TestApplyErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  Document
		want error
	}{
		{
			name: "unknown type",
			doc:  Document{BaseRequests: []BaseRequest{{Type: "Tram", Name: "T"}}},
			want: ErrMalformed,
		},
		{
			name: "empty name",
			doc:  Document{BaseRequests: []BaseRequest{{Type: "Stop"}}},
			want: ErrMalformed,
		},
		{
			name: "bad coordinates",
			doc:  Document{BaseRequests: []BaseRequest{{Type: "Stop", Name: "A", Latitude: 91}}},
			want: ErrMalformed,
		},
		{
			name: "negative distance",
			doc: Document{BaseRequests: []BaseRequest{
				{Type: "Stop", Name: "A", RoadDistances: map[string]float64{"A": -1}},
			}},
			want: ErrMalformed,
		},
		{
			name: "distance to unknown stop",
			doc: Document{BaseRequests: []BaseRequest{
				{Type: "Stop", Name: "A", RoadDistances: map[string]float64{"B": 10}},
			}},
			want: catalogue.ErrUnknownStop,
		},
		{
			name: "bus over unknown stop",
			doc: Document{BaseRequests: []BaseRequest{
				{Type: "Stop", Name: "A"},
				{Type: "Bus", Name: "1", Stops: []string{"A", "B"}},
			}},
			want: catalogue.ErrUnknownStop,
		},
		{
			name: "duplicate stop",
			doc: Document{BaseRequests: []BaseRequest{
				{Type: "Stop", Name: "A"},
				{Type: "Stop", Name: "A"},
			}},
			want: catalogue.ErrDuplicateStop,
		},
		{
			name: "invalid settings",
			doc: Document{
				BaseRequests:    []BaseRequest{{Type: "Stop", Name: "A"}},
				RoutingSettings: &RoutingSettings{BusVelocity: 0, BusWaitTime: 6},
			},
			want: catalogue.ErrInvalidSettings,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.doc.Apply(catalogue.NewStore())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDecodeDocumentInvalid(t *testing.T) {
	_, err := DecodeDocument(strings.NewReader(`{"base_requests": [`))
	assert.Error(t, err)
}

func TestFromStoreRoundTrip(t *testing.T) {
	doc, err := DecodeDocument(strings.NewReader(testDocument))
	require.NoError(t, err)
	orig := catalogue.NewStore()
	require.NoError(t, doc.Apply(orig))

	var buf strings.Builder
	require.NoError(t, FromStore(orig).Encode(&buf))

	again, err := DecodeDocument(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Empty(t, again.StatRequests)
	copied := catalogue.NewStore()
	require.NoError(t, again.Apply(copied))

	assert.Equal(t, orig.Stops(), copied.Stops())
	assert.Equal(t, orig.Buses(), copied.Buses())
	assert.Equal(t, orig.Distances(), copied.Distances())
	s1, _ := orig.RoutingSettings()
	s2, ok := copied.RoutingSettings()
	require.True(t, ok)
	assert.Equal(t, s1, s2)
}
