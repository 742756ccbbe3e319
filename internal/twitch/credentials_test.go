package twitch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twitch.json")
	store := NewFileStore(path)

	creds := &Credentials{
		ClientID:        "cid",
		ClientSecret:    "cs",
		AccessToken:     "tok",
		WebhookCallback: "https://example.com/webhooks/",
		WebhookSecret:   "hunter2hunter2",
	}
	require.NoError(t, store.Save(creds))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, creds, loaded)
}

func TestFileStore_SavePrettyPrints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twitch.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(&Credentials{ClientID: "cid", ClientSecret: "cs"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"client_id\"")
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	_, err := store.Load()
	assert.Error(t, err)
}

func TestFileStore_LoadRejectsIncompleteCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twitch.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"access_token": "tok"}`), 0o600))

	_, err := NewFileStore(path).Load()
	assert.ErrorContains(t, err, "client_id")
}
