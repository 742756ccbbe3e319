// Package vods holds the archived-broadcast collection: the domain type and
// the CRUD boundary the cache layer wraps.
package vods

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means no vod exists under the requested id.
var ErrNotFound = errors.New("vod not found")

// Vod is an archived broadcast tracked by the backend.
type Vod struct {
	ID           uuid.UUID `json:"id"`
	TwitchID     string    `json:"twitch_id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Game         string    `json:"game"`
	Duration     string    `json:"duration"`
	ThumbnailURL string    `json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Query filters and pages Find results.
type Query struct {
	UserID string
	Limit  int
	Offset int
}

// Service is the CRUD boundary for the vods collection. Find and Get are the
// cacheable reads; the mutating verbs invalidate.
type Service interface {
	Find(ctx context.Context, q Query) ([]Vod, error)
	Get(ctx context.Context, id uuid.UUID) (*Vod, error)
	Create(ctx context.Context, v *Vod) (*Vod, error)
	Update(ctx context.Context, id uuid.UUID, v *Vod) (*Vod, error)
	Patch(ctx context.Context, id uuid.UUID, fields map[string]any) (*Vod, error)
	Remove(ctx context.Context, id uuid.UUID) error
}
