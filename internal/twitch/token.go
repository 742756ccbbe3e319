package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/sync/singleflight"
)

// TokenManager owns the app access token. It validates the current token
// against Twitch and exchanges client credentials for a fresh one when the
// platform rejects it. Concurrent refreshes collapse into a single exchange.
type TokenManager struct {
	client *Client
	store  CredentialStore

	mu    sync.RWMutex
	creds Credentials

	refreshGroup singleflight.Group
}

// NewTokenManager loads credentials from the store and returns a manager
// owning them.
func NewTokenManager(client *Client, store CredentialStore) (*TokenManager, error) {
	creds, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	return &TokenManager{
		client: client,
		store:  store,
		creds:  *creds,
	}, nil
}

func (tm *TokenManager) AccessToken() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.creds.AccessToken
}

func (tm *TokenManager) ClientID() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.creds.ClientID
}

func (tm *TokenManager) WebhookCallback() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.creds.WebhookCallback
}

func (tm *TokenManager) WebhookSecret() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.creds.WebhookSecret
}

// Check validates the current token against Twitch. It returns true when the
// platform accepts it. A 401 triggers a refresh before returning false; the
// caller must re-validate to see the new token. Transport failures return an
// error with no side effects.
func (tm *TokenManager) Check(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tm.client.endpoints.ID+"/oauth2/validate", nil)
	if err != nil {
		return false, fmt.Errorf("failed to build validate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tm.AccessToken())

	resp, err := tm.client.http.Do(req)
	if err != nil {
		tm.client.count("oauth_validate", "transport_error")
		return false, fmt.Errorf("token validation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 400 {
		tm.client.count("oauth_validate", "ok")
		return true, nil
	}

	tm.client.count("oauth_validate", "rejected")
	if resp.StatusCode == http.StatusUnauthorized {
		slog.Info("twitch app token expired, refreshing")
		if err := tm.Refresh(ctx); err != nil {
			slog.Error("twitch app token refresh failed", "error", err)
		}
		return false, nil
	}

	return false, &APIError{StatusCode: resp.StatusCode}
}

// Refresh exchanges client credentials for a new app token, stores it in
// memory and persists the whole credential set. Concurrent callers share one
// exchange. On failure the existing token is left untouched.
func (tm *TokenManager) Refresh(ctx context.Context) error {
	_, err, _ := tm.refreshGroup.Do("refresh", func() (any, error) {
		return nil, tm.refresh(ctx)
	})
	return err
}

func (tm *TokenManager) refresh(ctx context.Context) error {
	tm.mu.RLock()
	exchange := tm.client.endpoints.ID + "/oauth2/token" +
		"?client_id=" + url.QueryEscape(tm.creds.ClientID) +
		"&client_secret=" + url.QueryEscape(tm.creds.ClientSecret) +
		"&grant_type=client_credentials"
	tm.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, exchange, nil)
	if err != nil {
		return fmt.Errorf("failed to build token request: %w", err)
	}

	_, body, err := tm.client.do(req, "oauth_token")
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("token exchange rejected: %w", err)
		}
		return fmt.Errorf("token exchange failed: %w", err)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("token response contained no access token")
	}

	tm.mu.Lock()
	tm.creds.AccessToken = result.AccessToken
	snapshot := tm.creds
	tm.mu.Unlock()

	if err := tm.store.Save(&snapshot); err != nil {
		return fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	slog.Info("refreshed twitch app token")
	return nil
}
