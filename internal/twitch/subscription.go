package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// leaseSeconds is the webhook lease requested from Twitch: 10 days, the
// platform maximum.
const leaseSeconds = 864000

// streamTopicURL is the canonical topic for a channel's live-stream status.
// It is an identifier on the hub, not a URL we fetch, so it stays pinned to
// production even when the API endpoints are overridden.
const streamTopicURL = "https://api.twitch.tv/helix/streams?user_id="

// Subscription is a webhook subscription as reported by the platform.
type Subscription struct {
	Topic     string `json:"topic"`
	Callback  string `json:"callback"`
	ExpiresAt string `json:"expires_at"`
}

type hubRequest struct {
	Callback     string `json:"hub.callback"`
	Mode         string `json:"hub.mode"`
	Topic        string `json:"hub.topic"`
	LeaseSeconds int    `json:"hub.lease_seconds,omitempty"`
	Secret       string `json:"hub.secret,omitempty"`
}

// subscriptionCredentials is the credential surface the manager needs.
type subscriptionCredentials interface {
	AccessToken() string
	ClientID() string
	WebhookCallback() string
	WebhookSecret() string
}

// SubscriptionManager manages live-stream webhook subscriptions on the
// Twitch hub. It keeps no local state: the platform is always re-queried for
// the current subscription list.
type SubscriptionManager struct {
	client *Client
	creds  subscriptionCredentials
}

func NewSubscriptionManager(client *Client, creds subscriptionCredentials) *SubscriptionManager {
	return &SubscriptionManager{client: client, creds: creds}
}

// Subscribe asks the hub to notify our callback when the given channel goes
// live. Twitch confirms asynchronously against the callback; a nil return
// only means the request was accepted.
func (sm *SubscriptionManager) Subscribe(ctx context.Context, userID string) error {
	err := sm.hub(ctx, hubRequest{
		Callback:     sm.creds.WebhookCallback() + "stream/" + userID,
		Mode:         "subscribe",
		Topic:        streamTopicURL + userID,
		LeaseSeconds: leaseSeconds,
		Secret:       sm.creds.WebhookSecret(),
	})
	if err != nil {
		return err
	}
	slog.Info("trying to subscribe", "user_id", userID)
	return nil
}

// Unsubscribe asks the hub to stop notifying for the given channel. No lease
// or secret accompanies an unsubscribe.
func (sm *SubscriptionManager) Unsubscribe(ctx context.Context, userID string) error {
	err := sm.hub(ctx, hubRequest{
		Callback: sm.creds.WebhookCallback() + "stream/" + userID,
		Mode:     "unsubscribe",
		Topic:    streamTopicURL + userID,
	})
	if err != nil {
		return err
	}
	slog.Info("unsubscribe", "user_id", userID)
	return nil
}

func (sm *SubscriptionManager) hub(ctx context.Context, hub hubRequest) error {
	payload, err := json.Marshal(hub)
	if err != nil {
		return fmt.Errorf("failed to encode hub request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sm.client.endpoints.Helix+"/webhooks/hub", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build hub request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sm.creds.AccessToken())
	req.Header.Set("Client-Id", sm.creds.ClientID())

	_, _, err = sm.client.do(req, "webhook_hub")
	return err
}

// Pager returns a fresh pager over the current webhook subscriptions. The
// pager pulls one page per Next call and is not restartable: once a page
// arrives without a cursor, More reports false.
func (sm *SubscriptionManager) Pager() *SubscriptionPager {
	return &SubscriptionPager{sm: sm}
}

// SubscriptionPager walks the hub's subscription list one cursor step at a
// time, strictly sequentially.
type SubscriptionPager struct {
	sm      *SubscriptionManager
	cursor  string
	started bool
	done    bool
}

// More reports whether another page may remain.
func (p *SubscriptionPager) More() bool {
	return !p.done
}

// Next fetches the next page of up to 100 subscriptions. An error exhausts
// the pager: a partial walk cannot be resumed.
func (p *SubscriptionPager) Next(ctx context.Context) ([]Subscription, error) {
	if p.done {
		return nil, nil
	}

	u := p.sm.client.endpoints.Helix + "/webhooks/subscriptions?first=100"
	if p.started {
		u += "&after=" + p.cursor
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		p.done = true
		return nil, fmt.Errorf("failed to build subscriptions request: %w", err)
	}

	body, err := p.sm.client.helixGet(req, p.sm.creds, "webhook_subscriptions")
	if err != nil {
		p.done = true
		return nil, err
	}

	var page struct {
		Data       []Subscription `json:"data"`
		Pagination struct {
			Cursor string `json:"cursor"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		p.done = true
		return nil, fmt.Errorf("failed to decode subscriptions page: %w", err)
	}

	p.started = true
	p.cursor = page.Pagination.Cursor
	if p.cursor == "" {
		p.done = true
	}

	return page.Data, nil
}

// ListSubscriptions drains the pager into one ordered sequence. Any page
// failing aborts the whole call; no partial list is returned.
func (sm *SubscriptionManager) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	pager := sm.Pager()

	var subs []Subscription
	for pager.More() {
		page, err := pager.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list webhook subscriptions: %w", err)
		}
		subs = append(subs, page...)
	}

	return subs, nil
}
