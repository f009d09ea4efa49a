package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "default", cfg.CurrentProfile)
	assert.NotNil(t, cfg.Profiles)
	assert.Empty(t, cfg.Profiles)
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.CurrentProfile)
	assert.Empty(t, cfg.Profiles)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: [\n"), 0600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveProfile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kpi.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, cfg.SaveProfile("prod", "https://kpi.example.com", "tok-123"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", loaded.CurrentProfile)

	p, err := loaded.GetProfile("")
	require.NoError(t, err)
	assert.Equal(t, "https://kpi.example.com", p.URL)
	assert.Equal(t, "tok-123", p.AccessToken)
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Profiles["blank"] = &Profile{AccessToken: "t"}
	cfg.Profiles["prod"] = &Profile{URL: "https://kpi.example.com"}

	assert.Equal(t, DefaultURL, cfg.Resolve("missing").URL)
	assert.Equal(t, DefaultURL, cfg.Resolve("blank").URL)
	assert.Equal(t, "t", cfg.Resolve("blank").AccessToken)
	assert.Equal(t, "https://kpi.example.com", cfg.Resolve("prod").URL)
}

func TestRemoveProfile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "kpi.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.SaveProfile("dev", DefaultURL, ""))

	require.NoError(t, cfg.RemoveProfile("dev"))
	assert.Empty(t, cfg.CurrentProfile)
	assert.Error(t, cfg.RemoveProfile("dev"))
}
