package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/KaramelBytes/schemalock-cli/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "feature_metadata.json", c.MetadataPath)
	assert.True(t, c.Persist)
	assert.False(t, c.DropPart)
	assert.Equal(t, "price", c.TargetColumn)
	assert.Equal(t, "part", c.PartColumn)
	assert.Equal(t, []string{}, c.Blocklist)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, 5, c.SampleRows)
	assert.Equal(t, 100000, c.MaxRows)
	assert.Equal(t, 250, c.WatchSettleMs)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, c.Set("drop_part", "true"))
	require.NoError(t, c.Set("blocklist", "VIN, owner_id,,"))
	require.NoError(t, c.Set("metadata_path", "out/schema.json"))
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.True(t, got.DropPart)
	assert.Equal(t, []string{"VIN", "owner_id"}, got.Blocklist)
	assert.Equal(t, "out/schema.json", got.MetadataPath)
	assert.Equal(t, "price", got.TargetColumn)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_column: cost\nmax_rows: 10\n"), 0o644))
	t.Setenv("SCHEMALOCK_MAX_ROWS", "42")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cost", c.TargetColumn)
	assert.Equal(t, 42, c.MaxRows)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("persist: [unterminated\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "read config")
}

func TestSetValidation(t *testing.T) {
	c := &Global{}
	tests := []struct{ key, val string }{
		{"persist", "maybe"},
		{"sample_rows", "-1"},
		{"max_rows", "lots"},
		{"watch_settle_ms", "0"},
		{"log_level", "loud"},
		{"log_format", "xml"},
		{"metadata_path", " "},
		{"nope", "x"},
	}
	for _, tt := range tests {
		err := c.Set(tt.key, tt.val)
		assert.True(t, apperr.Is(err, apperr.ErrInvalidValue), tt.key)
	}
}

func TestGetRoundTrip(t *testing.T) {
	c := &Global{}
	for _, kv := range [][2]string{
		{"metadata_path", "m.json"},
		{"persist", "false"},
		{"drop_part", "true"},
		{"target_column", "cost"},
		{"part_column", "segment"},
		{"blocklist", "a,b"},
		{"log_level", "debug"},
		{"log_format", "json"},
		{"sample_rows", "3"},
		{"max_rows", "99"},
		{"watch_settle_ms", "100"},
	} {
		require.NoError(t, c.Set(kv[0], kv[1]))
		got, err := c.Get(kv[0])
		require.NoError(t, err)
		assert.Equal(t, kv[1], got)
	}
	assert.Len(t, Keys, 11)
	_, err := c.Get("nope")
	assert.Error(t, err)
}
