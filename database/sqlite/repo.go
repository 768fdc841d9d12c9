// Package sqlite implements the file metadata repository using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/database/internal"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const selectColumns = `id, object_key, filename, content_type, size_bytes, user_id, thumbnail_key, created_at`

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) table() string {
	return quoteIdentifier(r.tableName)
}

func (r *repo) Save(ctx context.Context, meta filegate.FileMeta) (filegate.FileMeta, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (object_key, filename, content_type, size_bytes, user_id, thumbnail_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, r.table())

	createdAt := meta.CreatedAt.UTC()

	result, err := r.db.ExecContext(ctx, query,
		meta.Key, meta.Filename, meta.ContentType, meta.Size, meta.UserID, meta.ThumbnailKey,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return filegate.FileMeta{}, fmt.Errorf("save %s: %w", meta.Key, filegate.ErrConflict)
		}
		return filegate.FileMeta{}, fmt.Errorf("save: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return filegate.FileMeta{}, fmt.Errorf("save: last insert id: %w", err)
	}

	meta.ID = id
	meta.CreatedAt = createdAt
	return meta, nil
}

func (r *repo) FindByKey(ctx context.Context, key string) (filegate.FileMeta, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE object_key = ?`, selectColumns, r.table())

	m, err := scanFileMeta(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return filegate.FileMeta{}, filegate.ErrNotFound
		}
		return filegate.FileMeta{}, fmt.Errorf("find by key: %w", err)
	}

	return m, nil
}

func (r *repo) FindByUserID(ctx context.Context, userID string, q filegate.PageQuery) (filegate.Page, error) {
	if err := q.Validate(); err != nil {
		return filegate.Page{}, fmt.Errorf("find by user id: %w", err)
	}

	countQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT COUNT(*) FROM %s WHERE user_id = ?`, r.table())

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return filegate.Page{}, fmt.Errorf("find by user id: count: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?`, selectColumns, r.table())

	items, err := r.query(ctx, query, userID, q.Size, q.Offset())
	if err != nil {
		return filegate.Page{}, fmt.Errorf("find by user id: %w", err)
	}

	return filegate.NewPage(items, q, total), nil
}

func (r *repo) DeleteByKey(ctx context.Context, key string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE object_key = ?`, r.table())

	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete by key: %w", err)
	}

	return nil
}

func (r *repo) Scan(ctx context.Context, q filegate.ScanQuery) (filegate.ScanResult, error) {
	after, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return filegate.ScanResult{}, fmt.Errorf("scan: %w: %w", filegate.ErrInvalidInput, err)
	}

	limit := internal.ScanLimit(q.Limit)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s
		WHERE id > ?
		ORDER BY id
		LIMIT ?`, selectColumns, r.table())

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

func (r *repo) query(ctx context.Context, query string, args ...any) ([]filegate.FileMeta, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFileMeta(row rowScanner) (filegate.FileMeta, error) {
	var m filegate.FileMeta
	var thumbnail sql.NullString
	var createdAt string

	err := row.Scan(&m.ID, &m.Key, &m.Filename, &m.ContentType, &m.Size, &m.UserID, &thumbnail, &createdAt)
	if err != nil {
		return filegate.FileMeta{}, err
	}

	if thumbnail.Valid {
		m.ThumbnailKey = &thumbnail.String
	}

	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return filegate.FileMeta{}, fmt.Errorf("parse created_at: %w", err)
	}

	return m, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqliteErr.Error(), "UNIQUE")
	default:
		return false
	}
}
