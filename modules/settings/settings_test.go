package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("BINDERY_LOCALE", "de-DE")
	t.Setenv("BINDERY_OUTPUT_DEVICE", "null")
	t.Setenv("BINDERY_ADMIN_ADDRESS", "127.0.0.1:9090")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "de-DE", s.Locale)
	assert.Equal(t, "null", s.OutputDevice)
	assert.Equal(t, "127.0.0.1:9090", s.AdminAddress)
	assert.Empty(t, s.LibraryPath)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BINDERY_LOCALE", "")
	os.Unsetenv("BINDERY_LOCALE")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "en-US", s.Locale)
}

func TestYAMLStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	store := NewYAMLStore(&Settings{PreferencesPath: path})

	p, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), p)

	p.Volume = 35
	p.Folders = []string{"/music"}
	require.NoError(t, store.Save(p))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "volume: 35")

	fresh := NewYAMLStore(&Settings{PreferencesPath: path})
	got, err := fresh.Load()
	require.NoError(t, err)
	assert.Equal(t, 35, got.Volume)
	assert.Equal(t, []string{"/music"}, got.Folders)

	got.Folders[0] = "/changed"
	again, err := fresh.Load()
	require.NoError(t, err)
	assert.Equal(t, "/music", again.Folders[0])
}

func TestYAMLStore_InMemory(t *testing.T) {
	store := NewYAMLStore(&Settings{})
	require.NoError(t, store.Save(Preferences{Volume: 10, Locale: "de"}))

	p, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 10, p.Volume)
	assert.Equal(t, "de", p.Locale)

	assert.Error(t, store.Save(Preferences{Volume: 101}))
}

func TestYAMLStore_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("volume: [loud"), 0o644))

	_, err := NewYAMLStore(&Settings{PreferencesPath: path}).Load()
	assert.Error(t, err)
}
