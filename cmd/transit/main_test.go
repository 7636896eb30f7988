package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit_router/pkg/catalogue"
	"transit_router/pkg/config"
	"transit_router/pkg/ingest"
)

const queryDocument = `{
  "base_requests": [
    {"type": "Bus", "name": "114", "stops": ["Morskoy", "Riviera"], "is_roundtrip": false},
    {"type": "Stop", "name": "Riviera", "latitude": 43.587795, "longitude": 39.716901,
     "road_distances": {"Morskoy": 850}},
    {"type": "Stop", "name": "Morskoy", "latitude": 43.581969, "longitude": 39.719848,
     "road_distances": {"Riviera": 720}}
  ],
  "routing_settings": {"bus_velocity": 40, "bus_wait_time": 6},
  "stat_requests": [
    {"id": 1, "type": "Stop", "name": "Riviera"},
    {"id": 2, "type": "Bus", "name": "114"},
    {"id": 3, "type": "Route", "from": "Morskoy", "to": "Riviera"},
    {"id": 4, "type": "Route", "from": "Morskoy", "to": "Nowhere"}
  ]
}`

func TestRunQuery(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runQuery(strings.NewReader(queryDocument), &out))

	var answers []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &answers))
	require.Len(t, answers, 4)

	assert.Equal(t, []any{"114"}, answers[0]["buses"])

	assert.Equal(t, 1570.0, answers[1]["route_length"])
	assert.Equal(t, 3.0, answers[1]["stop_count"])
	assert.Equal(t, 2.0, answers[1]["unique_stop_count"])

	assert.InDelta(t, 6+720.0/(40000.0/60), answers[2]["total_time"], 1e-9)
	items, ok := answers[2]["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "Wait", items[0].(map[string]any)["type"])
	assert.Equal(t, "Bus", items[1].(map[string]any)["type"])

	assert.Equal(t, "not found", answers[3]["error_message"])
}

func TestRunQueryMalformed(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, runQuery(strings.NewReader("{"), &out))
	assert.Error(t, runQuery(strings.NewReader(`{"base_requests": [{"type": "Train", "name": "x"}]}`), &out))
	assert.Empty(t, out.String())
}

func TestRunQueryDefaultSettings(t *testing.T) {
	doc := strings.Replace(queryDocument, `"routing_settings": {"bus_velocity": 40, "bus_wait_time": 6},`, "", 1)
	saved := cfg
	t.Cleanup(func() { cfg = saved })

	// Without a loaded config there are no usable defaults.
	cfg = config.AppConfig{}
	var out bytes.Buffer
	err := runQuery(strings.NewReader(doc), &out)
	assert.ErrorIs(t, err, catalogue.ErrInvalidSettings)
	assert.Empty(t, out.String())

	cfg = config.Default()
	require.NoError(t, runQuery(strings.NewReader(doc), &out))
	var answers []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &answers))
	require.Len(t, answers, 4)
	assert.InDelta(t, 6+720.0/(40000.0/60), answers[2]["total_time"], 1e-9)
}

func TestParseBBox(t *testing.T) {
	bbox, err := parseBBox("1.15,103.6,1.48,104.1")
	require.NoError(t, err)
	assert.Equal(t, ingest.BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}, bbox)

	bbox, err = parseBBox("")
	require.NoError(t, err)
	assert.True(t, bbox.IsZero())

	_, err = parseBBox("1,2,3")
	assert.Error(t, err)
	_, err = parseBBox("2,0,1,1")
	assert.Error(t, err)
}
