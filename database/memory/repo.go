// Package memory implements the file metadata repository in process memory
// on top of go-memdb. Records are lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"slices"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/database/internal"
)

var (
	_ filegate.MetaDataRepo    = &Repo{}
	_ filegate.MetaDataScanner = &Repo{}
)

func newSchema(table string) *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			table: {
				Name: table,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					"key": {
						Name:    "key",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
					"user": {
						Name:    "user",
						Indexer: &memdb.StringFieldIndex{Field: "UserID"},
					},
				},
			},
		},
	}
}

type Repo struct {
	db    *memdb.MemDB
	table string
	// nextID is only touched inside write transactions, which memdb serialises.
	nextID int64
}

// NewRepo creates an empty repository storing records under tables.FileMeta.
func NewRepo(tables filegate.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	db, err := memdb.NewMemDB(newSchema(tables.FileMeta))
	if err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, table: tables.FileMeta}, nil
}

func (r *Repo) Save(ctx context.Context, meta filegate.FileMeta) (filegate.FileMeta, error) {
	if err := ctx.Err(); err != nil {
		return filegate.FileMeta{}, fmt.Errorf("save: %w", err)
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(r.table, "key", meta.Key)
	if err != nil {
		return filegate.FileMeta{}, fmt.Errorf("save: %w", err)
	}
	if existing != nil {
		return filegate.FileMeta{}, fmt.Errorf("save %s: %w", meta.Key, filegate.ErrConflict)
	}

	r.nextID++
	meta.ID = r.nextID
	meta.CreatedAt = meta.CreatedAt.UTC()
	if meta.ThumbnailKey != nil {
		thumb := *meta.ThumbnailKey
		meta.ThumbnailKey = &thumb
	}

	stored := meta
	if err := txn.Insert(r.table, &stored); err != nil {
		return filegate.FileMeta{}, fmt.Errorf("save: %w", err)
	}
	txn.Commit()

	return meta, nil
}

func (r *Repo) FindByKey(ctx context.Context, key string) (filegate.FileMeta, error) {
	if err := ctx.Err(); err != nil {
		return filegate.FileMeta{}, fmt.Errorf("find by key: %w", err)
	}

	txn := r.db.Txn(false)
	res, err := txn.First(r.table, "key", key)
	if err != nil {
		return filegate.FileMeta{}, fmt.Errorf("find by key: %w", err)
	}
	if res == nil {
		return filegate.FileMeta{}, filegate.ErrNotFound
	}

	return clone(res.(*filegate.FileMeta)), nil
}

func (r *Repo) FindByUserID(ctx context.Context, userID string, q filegate.PageQuery) (filegate.Page, error) {
	if err := ctx.Err(); err != nil {
		return filegate.Page{}, fmt.Errorf("find by user id: %w", err)
	}

	if err := q.Validate(); err != nil {
		return filegate.Page{}, fmt.Errorf("find by user id: %w", err)
	}

	txn := r.db.Txn(false)
	it, err := txn.Get(r.table, "user", userID)
	if err != nil {
		return filegate.Page{}, fmt.Errorf("find by user id: %w", err)
	}

	all := collect(it)
	slices.SortFunc(all, func(a, b filegate.FileMeta) int {
		return compareID(b.ID, a.ID)
	})

	total := int64(len(all))
	offset := q.Offset()
	if offset >= total {
		return filegate.NewPage(nil, q, total), nil
	}

	end := min(offset+int64(q.Size), total)
	return filegate.NewPage(all[offset:end], q, total), nil
}

func (r *Repo) DeleteByKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete by key: %w", err)
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(r.table, "key", key)
	if err != nil {
		return fmt.Errorf("delete by key: %w", err)
	}
	if existing == nil {
		return nil
	}

	if err := txn.Delete(r.table, existing); err != nil {
		return fmt.Errorf("delete by key: %w", err)
	}
	txn.Commit()

	return nil
}

func (r *Repo) Scan(ctx context.Context, q filegate.ScanQuery) (filegate.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return filegate.ScanResult{}, fmt.Errorf("scan: %w", err)
	}

	after, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return filegate.ScanResult{}, fmt.Errorf("scan: %w: %w", filegate.ErrInvalidInput, err)
	}

	limit := internal.ScanLimit(q.Limit)

	txn := r.db.Txn(false)
	it, err := txn.Get(r.table, "id")
	if err != nil {
		return filegate.ScanResult{}, fmt.Errorf("scan: %w", err)
	}

	items := slices.DeleteFunc(collect(it), func(m filegate.FileMeta) bool {
		return m.ID <= after
	})
	slices.SortFunc(items, func(a, b filegate.FileMeta) int {
		return compareID(a.ID, b.ID)
	})

	var nextCursor string
	if len(items) > limit {
		items = items[:limit]
		nextCursor = internal.EncodeCursor(items[limit-1].ID)
	}

	return filegate.ScanResult{Items: items, NextCursor: nextCursor}, nil
}

func collect(it memdb.ResultIterator) []filegate.FileMeta {
	items := []filegate.FileMeta{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		items = append(items, clone(obj.(*filegate.FileMeta)))
	}
	return items
}

// clone copies m so callers cannot mutate stored records.
func clone(m *filegate.FileMeta) filegate.FileMeta {
	out := *m
	if m.ThumbnailKey != nil {
		thumb := *m.ThumbnailKey
		out.ThumbnailKey = &thumb
	}
	return out
}

func compareID(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
