package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// Comment is a chat replay message on a VOD.
type Comment struct {
	ID                   string  `json:"_id"`
	ContentOffsetSeconds float64 `json:"content_offset_seconds"`
	Commenter            struct {
		DisplayName string `json:"display_name"`
	} `json:"commenter"`
	Message struct {
		Body string `json:"body"`
	} `json:"message"`
}

// CommentPage is one page of chat replay plus the cursor to the next.
type CommentPage struct {
	Comments []Comment `json:"comments"`
	Next     string    `json:"_next"`
}

// CommentsAt fetches chat replay starting at a time offset into the VOD.
func (a *API) CommentsAt(ctx context.Context, vodID string, offsetSeconds int) (*CommentPage, error) {
	u := a.client.endpoints.V5 + "/videos/" + vodID + "/comments?content_offset_seconds=" + strconv.Itoa(offsetSeconds)
	return a.fetchComments(ctx, u)
}

// CommentsAfter fetches the page of chat replay following a cursor. Cursor
// walks cover whole VODs and hit transient v5 errors often enough that this
// call retries server-side failures; client-side rejections abort immediately.
func (a *API) CommentsAfter(ctx context.Context, vodID, cursor string) (*CommentPage, error) {
	u := a.client.endpoints.V5 + "/videos/" + vodID + "/comments?cursor=" + cursor

	var page *CommentPage
	err := retry.Do(
		func() error {
			var err error
			page, err = a.fetchComments(ctx, u)
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (a *API) fetchComments(ctx context.Context, u string) (*CommentPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build comments request: %w", err)
	}
	// The v5 comments surface answers to the web player's client id only.
	req.Header.Set("Client-Id", webClientID)

	_, body, err := a.client.do(req, "v5_comments")
	if err != nil {
		return nil, err
	}

	var page CommentPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode comments response: %w", err)
	}
	return &page, nil
}
