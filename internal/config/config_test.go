package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL.Std())
	assert.Equal(t, 100*24*time.Hour, cfg.JWT.RefreshTTL.Std())
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
port: 8080
env: production
database:
  host: db.internal
  name: chirp_prod
jwt:
  access_secret: a
  refresh_secret: b
  access_ttl: 5m
  refresh_ttl: 720h
`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL.Std())
	assert.Equal(t, 720*time.Hour, cfg.JWT.RefreshTTL.Std())
	assert.Contains(t, cfg.Database.DSNValue(), "db.internal")
	assert.Contains(t, cfg.Database.DSNValue(), "chirp_prod")
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("nonsense_key: 1\n"))
	assert.Error(t, err)
}

func TestParseRejectsInvalidPort(t *testing.T) {
	_, err := Parse([]byte("port: 70000\n"))
	assert.Error(t, err)
}

func TestParseRejectsInvalidDuration(t *testing.T) {
	_, err := Parse([]byte("jwt:\n  access_ttl: nope\n"))
	assert.Error(t, err)
}
