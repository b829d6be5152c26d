package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate_Missing(t *testing.T) {
	cfg, err := LoadOrCreate(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Version, cfg.Version)
	assert.Empty(t, cfg.Profiles)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := New()
	cfg.SetProfile(&Profile{Name: "dev", Server: "http://localhost:8080"})
	cfg.SetProfile(&Profile{Name: "prod", Server: "https://graph.example.com", Token: "secret"})
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", loaded.CurrentProfile)
	assert.Equal(t, []string{"dev", "prod"}, loaded.ListProfiles())

	prod, err := loaded.GetProfile("prod")
	require.NoError(t, err)
	assert.Equal(t, "secret", prod.Token)
}

func TestGetProfile(t *testing.T) {
	cfg := New()

	_, err := cfg.GetProfile("")
	assert.Error(t, err)

	cfg.SetProfile(&Profile{Name: "dev", Server: DefaultServer})
	profile, err := cfg.GetProfile("")
	require.NoError(t, err)
	assert.Equal(t, "dev", profile.Name)

	_, err = cfg.GetProfile("staging")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: [unclosed"), 0600))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = LoadOrCreate(path)
	assert.Error(t, err)
}
