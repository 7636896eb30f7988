package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  request_timeout: 5s
  max_concurrent: 4
  cors_origins: ["https://example.com"]
routing:
  bus_velocity: 30
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout, "default kept")
	assert.Equal(t, 4, cfg.Server.MaxConcurrent)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 30.0, cfg.Routing.BusVelocity)
	assert.Equal(t, 6.0, cfg.Routing.BusWaitTime, "default kept")
	assert.Equal(t, 500.0, cfg.Snap.MaxDistanceMeters)
}

func TestLoadRejectsInvalid(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
	}{
		{"zero velocity", "routing:\n  bus_velocity: 0\n"},
		{"negative wait", "routing:\n  bus_wait_time: -1\n"},
		{"empty addr", "server:\n  addr: \"\"\n"},
		{"negative concurrency", "server:\n  max_concurrent: -2\n"},
		{"zero snap", "snap:\n  max_distance_meters: 0\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			var verrs validator.ValidationErrors
			assert.ErrorAs(t, err, &verrs)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map"))
	assert.Error(t, err)
}
