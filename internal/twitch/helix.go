package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Vod is a recorded broadcast as returned by the helix videos endpoint.
type Vod struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	CreatedAt    string `json:"created_at"`
	PublishedAt  string `json:"published_at"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	ViewCount    int    `json:"view_count"`
	Language     string `json:"language"`
	Type         string `json:"type"`
	Duration     string `json:"duration"`
}

// Game is a category as returned by the helix games endpoint.
type Game struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BoxArtURL string `json:"box_art_url"`
}

// API performs single-shot Twitch lookups: one request, value or error, no
// retry except where noted.
type API struct {
	client *Client
	creds  appCredentials
}

func NewAPI(client *Client, creds appCredentials) *API {
	return &API{client: client, creds: creds}
}

func (a *API) getJSON(ctx context.Context, u, surface string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", surface, err)
	}

	body, err := a.client.helixGet(req, a.creds, surface)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", surface, err)
	}
	return nil
}

// LatestVOD returns the most recent VOD for a user, or nil when the user has
// none. The platform orders the list by time; the first element wins.
func (a *API) LatestVOD(ctx context.Context, userID string) (*Vod, error) {
	var result struct {
		Data []Vod `json:"data"`
	}
	u := a.client.endpoints.Helix + "/videos?user_id=" + url.QueryEscape(userID)
	if err := a.getJSON(ctx, u, "helix_videos", &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, nil
	}
	return &result.Data[0], nil
}

// VODByID returns a single VOD, or nil when the platform knows no such id.
func (a *API) VODByID(ctx context.Context, vodID string) (*Vod, error) {
	var result struct {
		Data []Vod `json:"data"`
	}
	u := a.client.endpoints.Helix + "/videos?id=" + url.QueryEscape(vodID)
	if err := a.getJSON(ctx, u, "helix_videos", &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, nil
	}
	return &result.Data[0], nil
}

// GameByID returns category metadata, or nil for an unknown id.
func (a *API) GameByID(ctx context.Context, gameID string) (*Game, error) {
	var result struct {
		Data []Game `json:"data"`
	}
	u := a.client.endpoints.Helix + "/games?id=" + url.QueryEscape(gameID)
	if err := a.getJSON(ctx, u, "helix_games", &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, nil
	}
	return &result.Data[0], nil
}

// IsLive reports whether the channel currently has a running stream: a
// non-empty stream list means live.
func (a *API) IsLive(ctx context.Context, userID string) (bool, error) {
	var result struct {
		Data []json.RawMessage `json:"data"`
	}
	u := a.client.endpoints.Helix + "/streams?user_id=" + url.QueryEscape(userID)
	if err := a.getJSON(ctx, u, "helix_streams", &result); err != nil {
		return false, err
	}
	return len(result.Data) > 0, nil
}
