package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Chunker.Size)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, "chroma", cfg.Index.Type)
	assert.Equal(t, "module_materials", cfg.Index.Collection)
	assert.Equal(t, "faculty_uploads", cfg.UploadDir)
	assert.Equal(t, "lumeni.db", cfg.Store.Path)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("index:\n  type: memory\nchunker:\n  size: 500\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Index.Type)
	assert.Equal(t, 500, cfg.Chunker.Size)
	// unset fields fall back to defaults
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, "module_materials", cfg.Index.Collection)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LUMENI_INDEX_URL", "http://chroma.internal:9000")
	t.Setenv("LUMENI_INDEX_COLLECTION", "staging_materials")
	t.Setenv("LUMENI_UPLOAD_DIR", "/srv/uploads")
	t.Setenv("LUMENI_DB", "/srv/lumeni.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://chroma.internal:9000", cfg.Index.URL)
	assert.Equal(t, "staging_materials", cfg.Index.Collection)
	assert.Equal(t, "/srv/uploads", cfg.UploadDir)
	assert.Equal(t, "/srv/lumeni.db", cfg.Store.Path)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Index.Type = "memory"
	cfg.Chunker.Size = 800

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", loaded.Index.Type)
	assert.Equal(t, 800, loaded.Chunker.Size)
	assert.Equal(t, cfg.UploadDir, loaded.UploadDir)
}
