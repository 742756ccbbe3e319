package twitch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/grafov/m3u8"
)

// Playback is the resolved playback chain for a VOD: the signed grant, the
// deterministically chosen variant, and that variant's playlist body. Each
// value is ephemeral; nothing here is cached.
type Playback struct {
	Token           string
	Signature       string
	VariantURI      string
	VariantManifest string
}

// PlaybackResolver turns a VOD id into a ready-to-play variant playlist
// through a fixed four-step chain: signed grant, master manifest, variant
// selection, variant fetch. Any step failing aborts the remainder.
type PlaybackResolver struct {
	client *Client
}

func NewPlaybackResolver(client *Client) *PlaybackResolver {
	return &PlaybackResolver{client: client}
}

// Resolve runs the full chain. It returns either the complete chain or an
// error; no partial result escapes.
func (r *PlaybackResolver) Resolve(ctx context.Context, vodID string) (*Playback, error) {
	token, sig, err := r.playbackAccessToken(ctx, vodID)
	if err != nil {
		return nil, err
	}

	master, err := r.masterManifest(ctx, vodID, token, sig)
	if err != nil {
		return nil, err
	}

	variantURI, err := selectVariant(master)
	if err != nil {
		return nil, err
	}

	variant, err := r.variantManifest(ctx, variantURI)
	if err != nil {
		return nil, err
	}

	return &Playback{
		Token:           token,
		Signature:       sig,
		VariantURI:      variantURI,
		VariantManifest: variant,
	}, nil
}

// playbackAccessToken obtains the signed grant the CDN demands, via the web
// player's persisted PlaybackAccessToken query.
func (r *PlaybackResolver) playbackAccessToken(ctx context.Context, vodID string) (token, signature string, err error) {
	var data struct {
		VideoPlaybackAccessToken *struct {
			Value     string `json:"value"`
			Signature string `json:"signature"`
		} `json:"videoPlaybackAccessToken"`
	}

	variables := map[string]any{
		"isLive":        false,
		"login":         "",
		"isVod":         true,
		"vodID":         vodID,
		"platform":      "web",
		"playerBackend": "mediaplayer",
		"playerType":    "site",
	}
	if err := r.client.gql(ctx, "PlaybackAccessToken", variables, playbackAccessTokenHash, &data); err != nil {
		return "", "", err
	}
	if data.VideoPlaybackAccessToken == nil {
		return "", "", fmt.Errorf("no playback access token for vod %s", vodID)
	}

	return data.VideoPlaybackAccessToken.Value, data.VideoPlaybackAccessToken.Signature, nil
}

// masterManifest fetches the master playlist from the CDN using the grant as
// query parameters.
func (r *PlaybackResolver) masterManifest(ctx context.Context, vodID, token, sig string) (string, error) {
	u := fmt.Sprintf("%s/vod/%s.m3u8?allow_source=true&player=twitchweb&playlist_include_framerate=true&allow_spectre=true&nauthsig=%s&nauth=%s",
		r.client.endpoints.Usher, vodID, sig, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build manifest request: %w", err)
	}

	_, body, err := r.client.do(req, "usher_manifest")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// selectVariant parses a master playlist and returns the first listed
// variant's URI. First is the contract, not best: no quality negotiation.
func selectVariant(manifest string) (string, error) {
	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(manifest), true)
	if err != nil {
		return "", fmt.Errorf("failed to parse master playlist: %w", err)
	}

	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok || listType != m3u8.MASTER {
		return "", fmt.Errorf("manifest is not a master playlist")
	}
	if len(master.Variants) == 0 || master.Variants[0] == nil {
		return "", fmt.Errorf("master playlist lists no variants")
	}

	return master.Variants[0].URI, nil
}

// variantManifest fetches the chosen variant's playlist body.
func (r *PlaybackResolver) variantManifest(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build variant request: %w", err)
	}

	_, body, err := r.client.do(req, "variant_manifest")
	if err != nil {
		return "", err
	}
	return string(body), nil
}
