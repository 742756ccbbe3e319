package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawrpantsu/archive/internal/vods"
)

// countingService records calls so tests can tell cached answers from fresh
// ones.
type countingService struct {
	finds   int
	gets    int
	creates int
	removes int

	vod *vods.Vod
	err error
}

func (s *countingService) Find(ctx context.Context, q vods.Query) ([]vods.Vod, error) {
	s.finds++
	if s.err != nil {
		return nil, s.err
	}
	if s.vod == nil {
		return []vods.Vod{}, nil
	}
	return []vods.Vod{*s.vod}, nil
}

func (s *countingService) Get(ctx context.Context, id uuid.UUID) (*vods.Vod, error) {
	s.gets++
	if s.err != nil {
		return nil, s.err
	}
	return s.vod, nil
}

func (s *countingService) Create(ctx context.Context, v *vods.Vod) (*vods.Vod, error) {
	s.creates++
	return v, nil
}

func (s *countingService) Update(ctx context.Context, id uuid.UUID, v *vods.Vod) (*vods.Vod, error) {
	return v, nil
}

func (s *countingService) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) (*vods.Vod, error) {
	return s.vod, nil
}

func (s *countingService) Remove(ctx context.Context, id uuid.UUID) error {
	s.removes++
	return nil
}

func newCachedService(clock clockwork.Clock) (*CachedService, *countingService) {
	inner := &countingService{
		vod: &vods.Vod{ID: uuid.New(), TwitchID: "335921245", UserID: "141981764", Title: "late night"},
	}
	return NewCachedService(inner, NewMemoryStore(clock), DefaultTTL, nil), inner
}

func TestFind_ExternalReadsServedFromCache(t *testing.T) {
	service, inner := newCachedService(clockwork.NewFakeClock())
	ctx := WithExternalProvider(context.Background())
	query := vods.Query{UserID: "141981764"}

	first, err := service.Find(ctx, query)
	require.NoError(t, err)
	second, err := service.Find(ctx, query)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.finds)
	assert.Equal(t, first, second)
}

func TestFind_InternalReadsBypassCache(t *testing.T) {
	service, inner := newCachedService(clockwork.NewFakeClock())
	ctx := context.Background()
	query := vods.Query{UserID: "141981764"}

	_, err := service.Find(ctx, query)
	require.NoError(t, err)
	_, err = service.Find(ctx, query)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.finds)
}

func TestFind_DistinctQueriesCachedSeparately(t *testing.T) {
	service, inner := newCachedService(clockwork.NewFakeClock())
	ctx := WithExternalProvider(context.Background())

	_, err := service.Find(ctx, vods.Query{UserID: "141981764"})
	require.NoError(t, err)
	_, err = service.Find(ctx, vods.Query{UserID: "141981764", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.finds)
}

func TestFind_CachedEntryExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	service, inner := newCachedService(clock)
	ctx := WithExternalProvider(context.Background())
	query := vods.Query{UserID: "141981764"}

	_, err := service.Find(ctx, query)
	require.NoError(t, err)

	clock.Advance(DefaultTTL + time.Minute)

	_, err = service.Find(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.finds)
}

func TestGet_ExternalReadsServedFromCache(t *testing.T) {
	service, inner := newCachedService(clockwork.NewFakeClock())
	ctx := WithExternalProvider(context.Background())
	id := inner.vod.ID

	first, err := service.Get(ctx, id)
	require.NoError(t, err)
	second, err := service.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.gets)
	assert.Equal(t, first, second)
}

func TestGet_ErrorsNotCached(t *testing.T) {
	service, inner := newCachedService(clockwork.NewFakeClock())
	inner.err = vods.ErrNotFound
	ctx := WithExternalProvider(context.Background())
	id := uuid.New()

	_, err := service.Get(ctx, id)
	require.ErrorIs(t, err, vods.ErrNotFound)
	_, err = service.Get(ctx, id)
	require.ErrorIs(t, err, vods.ErrNotFound)

	assert.Equal(t, 2, inner.gets)
}

func TestMutationsPurgeCachedReads(t *testing.T) {
	service, inner := newCachedService(clockwork.NewFakeClock())
	external := WithExternalProvider(context.Background())
	query := vods.Query{UserID: "141981764"}

	_, err := service.Find(external, query)
	require.NoError(t, err)

	// A mutation on a plain internal context still purges.
	_, err = service.Create(context.Background(), &vods.Vod{TwitchID: "999", UserID: "141981764"})
	require.NoError(t, err)

	_, err = service.Find(external, query)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.finds)
}

func TestRemovePurgesCachedReads(t *testing.T) {
	service, inner := newCachedService(clockwork.NewFakeClock())
	external := WithExternalProvider(context.Background())
	id := inner.vod.ID

	_, err := service.Get(external, id)
	require.NoError(t, err)

	require.NoError(t, service.Remove(context.Background(), id))

	_, err = service.Get(external, id)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.gets)
}

func TestFingerprint_CanonicalizesParameterOrder(t *testing.T) {
	a := queryValues(vods.Query{UserID: "141981764", Limit: 10, Offset: 20})
	b := queryValues(vods.Query{Offset: 20, Limit: 10, UserID: "141981764"})
	assert.Equal(t, fingerprint("/vods", a), fingerprint("/vods", b))
}
