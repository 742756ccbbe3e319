package twitch

import (
	"encoding/json"
	"fmt"
	"os"
)

// Credentials is the app credential set shared with Twitch. It is read once
// at startup and written back whenever the app token is refreshed.
type Credentials struct {
	ClientID        string `json:"client_id"`
	ClientSecret    string `json:"client_secret"`
	AccessToken     string `json:"access_token"`
	WebhookCallback string `json:"webhook_callback"`
	WebhookSecret   string `json:"webhook_secret"`
}

// CredentialStore persists the credential set between runs.
type CredentialStore interface {
	Load() (*Credentials, error)
	Save(*Credentials) error
}

// FileStore keeps credentials in a pretty-printed JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("credentials file %s is missing client_id or client_secret", s.path)
	}

	return &creds, nil
}

func (s *FileStore) Save(creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}
