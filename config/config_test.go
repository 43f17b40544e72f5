package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nielssp/nsecore/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.Trace)
	assert.Equal(t, 8, cfg.InitialCapacity)
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadOverlaysYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nsecore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\ntrace: true\ninitial_capacity: 64\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.Trace)
	assert.Equal(t, 64, cfg.InitialCapacity)
}

func TestLoadFloorsInitialCapacity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nsecore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("initial_capacity: 1\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.InitialCapacity)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
