package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rawrpantsu/archive/internal/metrics"
	"github.com/rawrpantsu/archive/internal/vods"
)

// groupPrefix namespaces every cached vods response so a single prefix
// delete purges the whole collection.
const groupPrefix = "vods:"

// DefaultTTL bounds how long a cached response may be served.
const DefaultTTL = 24 * time.Hour

type providerKey struct{}

// WithExternalProvider marks a context as originating from an external-facing
// channel. Only such requests go through the cache; server-to-server calls
// read the collection directly.
func WithExternalProvider(ctx context.Context) context.Context {
	return context.WithValue(ctx, providerKey{}, true)
}

func isExternal(ctx context.Context) bool {
	external, _ := ctx.Value(providerKey{}).(bool)
	return external
}

// fingerprint identifies a cacheable read by route and canonicalized query
// parameters.
func fingerprint(route string, params url.Values) string {
	sum := sha256.Sum256([]byte(route + "?" + params.Encode()))
	return groupPrefix + hex.EncodeToString(sum[:])
}

var _ vods.Service = (*CachedService)(nil)

// CachedService wraps a vods.Service with read-through caching and
// write-invalidated purging. Reads from external requests are served from
// the store when warm and populate it on a miss; every mutation purges the
// whole collection group, so a write always wins over a stale read.
type CachedService struct {
	inner   vods.Service
	store   Store
	ttl     time.Duration
	metrics *metrics.CacheMetrics
}

// NewCachedService wraps inner. The metrics argument may be nil.
func NewCachedService(inner vods.Service, store Store, ttl time.Duration, m *metrics.CacheMetrics) *CachedService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedService{inner: inner, store: store, ttl: ttl, metrics: m}
}

func queryValues(q vods.Query) url.Values {
	params := url.Values{}
	if q.UserID != "" {
		params.Set("user_id", q.UserID)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	return params
}

// lookup returns the cached payload for key, or false on any miss. Store
// errors degrade to a miss so the underlying service still answers.
func (s *CachedService) lookup(ctx context.Context, key string, out any) bool {
	data, ok, err := s.store.Get(ctx, key)
	if err != nil {
		slog.Warn("cache get failed, falling through", "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Warn("failed to decode cached vods response, falling through", "error", err)
		return false
	}
	if s.metrics != nil {
		s.metrics.Hits.Inc()
	}
	return true
}

// populate stores a response best-effort; a failure never fails the read.
func (s *CachedService) populate(ctx context.Context, key string, value any) {
	if s.metrics != nil {
		s.metrics.Misses.Inc()
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
		slog.Warn("failed to populate vods cache", "error", err)
	}
}

// purge invalidates every cached entry for the collection.
func (s *CachedService) purge(ctx context.Context) {
	if err := s.store.DeleteByPrefix(ctx, groupPrefix); err != nil {
		slog.Error("vods cache purge failed", "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.Purges.Inc()
	}
}

func (s *CachedService) Find(ctx context.Context, q vods.Query) ([]vods.Vod, error) {
	if !isExternal(ctx) {
		return s.inner.Find(ctx, q)
	}

	key := fingerprint("/vods", queryValues(q))

	var cached []vods.Vod
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	result, err := s.inner.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	s.populate(ctx, key, result)
	return result, nil
}

func (s *CachedService) Get(ctx context.Context, id uuid.UUID) (*vods.Vod, error) {
	if !isExternal(ctx) {
		return s.inner.Get(ctx, id)
	}

	key := fingerprint("/vods/"+id.String(), url.Values{})

	var cached vods.Vod
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.populate(ctx, key, result)
	return result, nil
}

func (s *CachedService) Create(ctx context.Context, v *vods.Vod) (*vods.Vod, error) {
	created, err := s.inner.Create(ctx, v)
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return created, nil
}

func (s *CachedService) Update(ctx context.Context, id uuid.UUID, v *vods.Vod) (*vods.Vod, error) {
	updated, err := s.inner.Update(ctx, id, v)
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return updated, nil
}

func (s *CachedService) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) (*vods.Vod, error) {
	patched, err := s.inner.Patch(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return patched, nil
}

func (s *CachedService) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.inner.Remove(ctx, id); err != nil {
		return err
	}
	s.purge(ctx)
	return nil
}
