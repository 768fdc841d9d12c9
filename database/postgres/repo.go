// Package postgres implements the file metadata repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/database/internal"
)

const uniqueViolation = "23505"

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables filegate.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.FileMeta}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *Repo) Save(ctx context.Context, meta filegate.FileMeta) (filegate.FileMeta, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (object_key, filename, content_type, size_bytes, user_id, thumbnail_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.table())

	err := r.pool.QueryRow(ctx, query,
		meta.Key, meta.Filename, meta.ContentType, meta.Size, meta.UserID, meta.ThumbnailKey, meta.CreatedAt,
	).Scan(&meta.ID, &meta.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return filegate.FileMeta{}, fmt.Errorf("save %s: %w", meta.Key, filegate.ErrConflict)
		}
		return filegate.FileMeta{}, fmt.Errorf("save: %w", err)
	}

	meta.CreatedAt = meta.CreatedAt.UTC()
	return meta, nil
}

func (r *Repo) FindByKey(ctx context.Context, key string) (filegate.FileMeta, error) {
	query := fmt.Sprintf(`
		SELECT id, object_key, filename, content_type, size_bytes, user_id, thumbnail_key, created_at
		FROM %s
		WHERE object_key = $1
	`, r.table())

	m, err := scanFileMeta(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return filegate.FileMeta{}, filegate.ErrNotFound
		}
		return filegate.FileMeta{}, fmt.Errorf("find by key: %w", err)
	}

	return m, nil
}

func (r *Repo) FindByUserID(ctx context.Context, userID string, q filegate.PageQuery) (filegate.Page, error) {
	if err := q.Validate(); err != nil {
		return filegate.Page{}, fmt.Errorf("find by user id: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = $1`, r.table())

	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return filegate.Page{}, fmt.Errorf("find by user id: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, object_key, filename, content_type, size_bytes, user_id, thumbnail_key, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, r.table())

	items, err := r.query(ctx, query, userID, q.Size, q.Offset())
	if err != nil {
		return filegate.Page{}, fmt.Errorf("find by user id: %w", err)
	}

	return filegate.NewPage(items, q, total), nil
}

func (r *Repo) DeleteByKey(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE object_key = $1`, r.table())

	if _, err := r.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete by key: %w", err)
	}

	return nil
}

// Scan walks every record in ascending id order.
func (r *Repo) Scan(ctx context.Context, q filegate.ScanQuery) (filegate.ScanResult, error) {
	after, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return filegate.ScanResult{}, fmt.Errorf("scan: %w: %w", filegate.ErrInvalidInput, err)
	}

	limit := internal.ScanLimit(q.Limit)

	query := fmt.Sprintf(`
		SELECT id, object_key, filename, content_type, size_bytes, user_id, thumbnail_key, created_at
		FROM %s
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, r.table())

	items, err := r.query(ctx, query, after, limit+1)
	if err != nil {
		return filegate.ScanResult{}, fmt.Errorf("scan: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		items = items[:limit]
		nextCursor = internal.EncodeCursor(items[limit-1].ID)
	}

	return filegate.ScanResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *Repo) query(ctx context.Context, query string, args ...any) ([]filegate.FileMeta, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []filegate.FileMeta{}
	for rows.Next() {
		m, err := scanFileMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return items, nil
}

func scanFileMeta(row pgx.Row) (filegate.FileMeta, error) {
	var m filegate.FileMeta
	err := row.Scan(&m.ID, &m.Key, &m.Filename, &m.ContentType, &m.Size, &m.UserID, &m.ThumbnailKey, &m.CreatedAt)
	if err != nil {
		return filegate.FileMeta{}, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}
