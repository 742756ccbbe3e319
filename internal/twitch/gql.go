package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Persisted query hashes the Twitch web player uses. Opaque and
// platform-versioned; never computed locally.
const (
	playbackAccessTokenHash = "0828119ded1c13477966434e15800ff57ddacf13ba1911c129dc2200705b0712"
	videoMomentsHash        = "0094e99aab3438c7a220c0b1897d144be01954f8b4765b884d330d0c0893dbde"
	contentMetadataHash     = "2dbf505ee929438369e68e72319d1106bb3c142e295332fac157c90638968586"
)

type gqlRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Extensions    gqlExtensions  `json:"extensions"`
}

type gqlExtensions struct {
	PersistedQuery persistedQuery `json:"persistedQuery"`
}

type persistedQuery struct {
	Version    int    `json:"version"`
	SHA256Hash string `json:"sha256Hash"`
}

// gql issues a persisted-query GraphQL call with the web client id and
// decodes the "data" object into out.
func (c *Client) gql(ctx context.Context, operation string, variables map[string]any, hash string, out any) error {
	payload, err := json.Marshal(gqlRequest{
		OperationName: operation,
		Variables:     variables,
		Extensions: gqlExtensions{
			PersistedQuery: persistedQuery{Version: 1, SHA256Hash: hash},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode gql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.GQL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build gql request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Client-Id", webClientID)
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")

	_, body, err := c.do(req, "gql")
	if err != nil {
		return err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode gql response: %w", err)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode gql data for %s: %w", operation, err)
	}

	return nil
}

// Moment is a chapter marker on a VOD.
type Moment struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Description          string `json:"description"`
	PositionMilliseconds int    `json:"positionMilliseconds"`
	DurationMilliseconds int    `json:"durationMilliseconds"`
}

// Moments returns a VOD's chapter list. A VOD without moments (or an unknown
// VOD) yields an empty list, mirroring the platform's null video object.
func (a *API) Moments(ctx context.Context, vodID string) ([]Moment, error) {
	var data struct {
		Video *struct {
			Moments struct {
				Edges []struct {
					Node Moment `json:"node"`
				} `json:"edges"`
			} `json:"moments"`
		} `json:"video"`
	}

	variables := map[string]any{"videoId": vodID}
	if err := a.client.gql(ctx, "VideoPreviewCard__VideoMoments", variables, videoMomentsHash, &data); err != nil {
		return nil, err
	}
	if data.Video == nil {
		return nil, nil
	}

	moments := make([]Moment, 0, len(data.Video.Moments.Edges))
	for _, edge := range data.Video.Moments.Edges {
		moments = append(moments, edge.Node)
	}
	return moments, nil
}

// VideoMetadata is the content metadata Twitch reports for a VOD.
type VideoMetadata struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Game  *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"game"`
	BroadcastType string `json:"broadcastType"`
}

// ContentMetadata returns a VOD's content metadata, or nil for an unknown VOD.
func (a *API) ContentMetadata(ctx context.Context, vodID string) (*VideoMetadata, error) {
	var data struct {
		Video *VideoMetadata `json:"video"`
	}

	variables := map[string]any{
		"isCollectionContent": false,
		"isLiveContent":       false,
		"isVODContent":        true,
		"collectionID":        "",
		"login":               "",
		"vodID":               vodID,
	}
	if err := a.client.gql(ctx, "NielsenContentMetadata", variables, contentMetadataHash, &data); err != nil {
		return nil, err
	}
	return data.Video, nil
}
