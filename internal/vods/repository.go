package vods

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultFindLimit = 100

var _ Service = (*Repository)(nil)

// Repository is the PostgreSQL-backed vods service.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const vodColumns = "id, twitch_id, user_id, title, game, duration, thumbnail_url, created_at, updated_at"

func scanVod(row pgx.Row) (*Vod, error) {
	var v Vod
	err := row.Scan(&v.ID, &v.TwitchID, &v.UserID, &v.Title, &v.Game, &v.Duration, &v.ThumbnailURL, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repository) Find(ctx context.Context, q Query) ([]Vod, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}

	var (
		rows pgx.Rows
		err  error
	)
	if q.UserID != "" {
		rows, err = r.pool.Query(ctx,
			"SELECT "+vodColumns+" FROM vods WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
			q.UserID, limit, q.Offset)
	} else {
		rows, err = r.pool.Query(ctx,
			"SELECT "+vodColumns+" FROM vods ORDER BY created_at DESC LIMIT $1 OFFSET $2",
			limit, q.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vods: %w", err)
	}
	defer rows.Close()

	vods := []Vod{}
	for rows.Next() {
		v, err := scanVod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vod: %w", err)
		}
		vods = append(vods, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vods: %w", err)
	}

	return vods, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Vod, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+vodColumns+" FROM vods WHERE id = $1", id)
	v, err := scanVod(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vod: %w", err)
	}
	return v, nil
}

func (r *Repository) Create(ctx context.Context, v *Vod) (*Vod, error) {
	id := v.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO vods (id, twitch_id, user_id, title, game, duration, thumbnail_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+vodColumns,
		id, v.TwitchID, v.UserID, v.Title, v.Game, v.Duration, v.ThumbnailURL)

	created, err := scanVod(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create vod: %w", err)
	}
	return created, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, v *Vod) (*Vod, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE vods
		 SET twitch_id = $2, user_id = $3, title = $4, game = $5, duration = $6, thumbnail_url = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING `+vodColumns,
		id, v.TwitchID, v.UserID, v.Title, v.Game, v.Duration, v.ThumbnailURL)

	updated, err := scanVod(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update vod: %w", err)
	}
	return updated, nil
}

// patchable is the set of columns Patch may touch.
var patchable = map[string]bool{
	"twitch_id":     true,
	"user_id":       true,
	"title":         true,
	"game":          true,
	"duration":      true,
	"thumbnail_url": true,
}

// patchStatement builds the SET clause and arguments for a partial update.
// Argument $1 is reserved for the row id.
func patchStatement(fields map[string]any) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("no fields to patch")
	}

	assignments := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields))
	i := 2
	for _, column := range []string{"twitch_id", "user_id", "title", "game", "duration", "thumbnail_url"} {
		value, ok := fields[column]
		if !ok {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, i))
		args = append(args, value)
		i++
	}

	for column := range fields {
		if !patchable[column] {
			return "", nil, fmt.Errorf("field %q is not patchable", column)
		}
	}

	assignments = append(assignments, "updated_at = now()")
	return strings.Join(assignments, ", "), args, nil
}

func (r *Repository) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) (*Vod, error) {
	setClause, args, err := patchStatement(fields)
	if err != nil {
		return nil, err
	}

	query := "UPDATE vods SET " + setClause + " WHERE id = $1 RETURNING " + vodColumns
	row := r.pool.QueryRow(ctx, query, append([]any{id}, args...)...)

	patched, err := scanVod(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to patch vod: %w", err)
	}
	return patched, nil
}

func (r *Repository) Remove(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM vods WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to remove vod: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
