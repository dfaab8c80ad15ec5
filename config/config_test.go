package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "report.csv", cfg.ReportPath)
	assert.Equal(t, "locations.kml", cfg.MapPath)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imageinv.yaml")
	body := `
source: /evidence/batch1
concurrency: 8
log:
  level: debug
archive:
  enabled: true
  endpoint: minio.local:9000
  bucket: evidence
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/evidence/batch1", cfg.Source)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "evidence", cfg.Archive.Bucket)
	// Untouched keys keep their defaults.
	assert.Equal(t, "report.csv", cfg.ReportPath)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("IMAGEINV_SOURCE", "/mnt/sdcard")
	t.Setenv("IMAGEINV_CONCURRENCY", "2")
	t.Setenv("MINIO_BUCKET_NAME", "case-42")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/mnt/sdcard", cfg.Source)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, "case-42", cfg.Archive.Bucket)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
