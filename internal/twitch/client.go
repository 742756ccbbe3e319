package twitch

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rawrpantsu/archive/internal/metrics"
)

// webClientID is the client id the Twitch web player ships with. The GQL and
// v5 surfaces only answer to it; it is not our app's client id.
const webClientID = "kimne78kx3ncx6brgo4mv6wki5h1ko"

// Endpoints groups the Twitch API base URLs. Tests point them at mock servers.
type Endpoints struct {
	ID    string // OAuth surface (validate, token exchange)
	Helix string // REST API
	V5    string // legacy v5 API (comments)
	GQL   string // GraphQL endpoint
	Usher string // CDN playlist server
}

// DefaultEndpoints returns the production Twitch endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		ID:    "https://id.twitch.tv",
		Helix: "https://api.twitch.tv/helix",
		V5:    "https://api.twitch.tv/v5",
		GQL:   "https://gql.twitch.tv/gql",
		Usher: "https://usher.ttvnw.net",
	}
}

// APIError is a platform rejection: a response arrived with status >= 400.
// The absence of an APIError in a failed call means the transport failed
// before any response was received.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitch rejected request with status %d: %s", e.StatusCode, e.Body)
}

// Client performs HTTP calls against the Twitch API surfaces.
type Client struct {
	http      *http.Client
	endpoints Endpoints
	metrics   *metrics.TwitchMetrics
}

// NewClient creates a Client with the given request timeout. The metrics
// argument may be nil.
func NewClient(endpoints Endpoints, timeout time.Duration, m *metrics.TwitchMetrics) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		endpoints: endpoints,
		metrics:   m,
	}
}

func (c *Client) count(surface, outcome string) {
	if c.metrics != nil {
		c.metrics.Requests.WithLabelValues(surface, outcome).Inc()
	}
}

// do executes a request and reads the full body. Platform rejections are
// logged with the response body and returned as *APIError; transport
// failures are returned wrapped.
func (c *Client) do(req *http.Request, surface string) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.count(surface, "transport_error")
		return 0, nil, fmt.Errorf("%s request failed: %w", surface, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.count(surface, "transport_error")
		return resp.StatusCode, nil, fmt.Errorf("%s response read failed: %w", surface, err)
	}

	if resp.StatusCode >= 400 {
		c.count(surface, "rejected")
		slog.Error("twitch rejected request",
			"surface", surface, "status", resp.StatusCode, "body", string(body))
		return resp.StatusCode, body, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	c.count(surface, "ok")
	return resp.StatusCode, body, nil
}

// appCredentials is the credential surface the API lookups need.
type appCredentials interface {
	AccessToken() string
	ClientID() string
}

// helixGet issues an authenticated GET against the helix surface.
func (c *Client) helixGet(req *http.Request, creds appCredentials, surface string) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken())
	req.Header.Set("Client-Id", creds.ClientID())
	_, body, err := c.do(req, surface)
	return body, err
}
