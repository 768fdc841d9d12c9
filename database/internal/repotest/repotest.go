// Package repotest runs the behavioural tests every metadata backend must pass.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sagarc03/filegate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, migrated repository and its cleanup function.
type Factory func(t *testing.T) (filegate.MetaDataRepo, func())

// NewMeta builds a valid record for userID with a key derived from name.
func NewMeta(userID, name string) filegate.FileMeta {
	return filegate.FileMeta{
		Key:         userID + "/1700000000000_" + name,
		Filename:    name,
		ContentType: "application/octet-stream",
		Size:        42,
		UserID:      userID,
		CreatedAt:   time.Date(2024, 1, 15, 10, 30, 0, 123456000, time.UTC),
	}
}

// Run executes the full repository suite against the backend built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("Save", func(t *testing.T) { testSave(t, newRepo) })
	t.Run("FindByKey", func(t *testing.T) { testFindByKey(t, newRepo) })
	t.Run("FindByUserID", func(t *testing.T) { testFindByUserID(t, newRepo) })
	t.Run("DeleteByKey", func(t *testing.T) { testDeleteByKey(t, newRepo) })
	t.Run("Scan", func(t *testing.T) { testScan(t, newRepo) })
}

func testSave(t *testing.T, newRepo Factory) {
	t.Run("success - assigns increasing ids", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()
		ctx := context.Background()

		first, err := repo.Save(ctx, NewMeta("u1", "a.txt"))
		require.NoError(t, err)
		second, err := repo.Save(ctx, NewMeta("u1", "b.txt"))
		require.NoError(t, err)

		assert.Positive(t, first.ID)
		assert.Greater(t, second.ID, first.ID)
		assert.Equal(t, "u1/1700000000000_a.txt", first.Key)
		assert.True(t, NewMeta("u1", "a.txt").CreatedAt.Equal(first.CreatedAt))
	})

	t.Run("success - stores thumbnail key", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()
		ctx := context.Background()

		thumb := "u1/thumbs/a.png"
		meta := NewMeta("u1", "a.png")
		meta.ThumbnailKey = &thumb

		_, err := repo.Save(ctx, meta)
		require.NoError(t, err)

		got, err := repo.FindByKey(ctx, meta.Key)
		require.NoError(t, err)
		require.NotNil(t, got.ThumbnailKey)
		assert.Equal(t, thumb, *got.ThumbnailKey)
	})

	t.Run("error - duplicate key conflicts", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()
		ctx := context.Background()

		meta := NewMeta("u1", "dup.txt")
		_, err := repo.Save(ctx, meta)
		require.NoError(t, err)

		_, err = repo.Save(ctx, meta)
		assert.ErrorIs(t, err, filegate.ErrConflict)

		page, err := repo.FindByUserID(ctx, "u1", filegate.PageQuery{Size: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.TotalElements, "conflict must not insert a row")
	})

	t.Run("error - concurrent saves of one key, one wins", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()
		ctx := context.Background()

		const workers = 20
		meta := NewMeta("u1", "race.txt")

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			saved     int
			conflicts int
			others    []error
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Save(ctx, meta)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					saved++
				case errors.Is(err, filegate.ErrConflict):
					conflicts++
				default:
					others = append(others, err)
				}
			}()
		}
		wg.Wait()

		assert.Empty(t, others)
		assert.Equal(t, 1, saved)
		assert.Equal(t, workers-1, conflicts)

		page, err := repo.FindByUserID(ctx, "u1", filegate.PageQuery{Size: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.TotalElements)
	})
}

func testFindByKey(t *testing.T, newRepo Factory) {
	t.Run("success - returns stored record", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()
		ctx := context.Background()

		saved, err := repo.Save(ctx, NewMeta("u1", "report.pdf"))
		require.NoError(t, err)

		got, err := repo.FindByKey(ctx, saved.Key)
		require.NoError(t, err)

		assert.Equal(t, saved.ID, got.ID)
		assert.Equal(t, saved.Key, got.Key)
		assert.Equal(t, "report.pdf", got.Filename)
		assert.Equal(t, "application/octet-stream", got.ContentType)
		assert.Equal(t, int64(42), got.Size)
		assert.Equal(t, "u1", got.UserID)
		assert.Nil(t, got.ThumbnailKey)
		assert.True(t, saved.CreatedAt.Equal(got.CreatedAt), "created at: want %v got %v", saved.CreatedAt, got.CreatedAt)
	})

	t.Run("error - not found", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()

		_, err := repo.FindByKey(context.Background(), "u1/missing")
		assert.ErrorIs(t, err, filegate.ErrNotFound)
	})
}

func testFindByUserID(t *testing.T, newRepo Factory) {
	t.Run("success - pages newest first", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()
		ctx := context.Background()

		for i := range 5 {
			_, err := repo.Save(ctx, NewMeta("u1", fmt.Sprintf("f%d.txt", i)))
			require.NoError(t, err)
		}
		_, err := repo.Save(ctx, NewMeta("u2", "other.txt"))
		require.NoError(t, err)

		first, err := repo.FindByUserID(ctx, "u1", filegate.PageQuery{Page: 0, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), first.TotalElements)
		assert.Equal(t, 3, first.TotalPages)
		assert.Equal(t, 0, first.Page)
		assert.Equal(t, 2, first.Size)
		require.Len(t, first.Items, 2)
		assert.Equal(t, "f4.txt", first.Items[0].Filename)
		assert.Equal(t, "f3.txt", first.Items[1].Filename)

		last, err := repo.FindByUserID(ctx, "u1", filegate.PageQuery{Page: 2, Size: 2})
		require.NoError(t, err)
		require.Len(t, last.Items, 1)
		assert.Equal(t, "f0.txt", last.Items[0].Filename)

		seen := map[int64]bool{}
		for page := range 3 {
			p, err := repo.FindByUserID(ctx, "u1", filegate.PageQuery{Page: page, Size: 2})
			require.NoError(t, err)
			for _, item := range p.Items {
				assert.Equal(t, "u1", item.UserID)
				assert.False(t, seen[item.ID], "id %d listed twice", item.ID)
				seen[item.ID] = true
			}
		}
		assert.Len(t, seen, 5)
	})

	t.Run("success - page beyond end is empty", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()
		ctx := context.Background()

		_, err := repo.Save(ctx, NewMeta("u1", "a.txt"))
		require.NoError(t, err)

		page, err := repo.FindByUserID(ctx, "u1", filegate.PageQuery{Page: 9, Size: 20})
		require.NoError(t, err)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
		assert.Equal(t, int64(1), page.TotalElements)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("success - unknown user", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()

		page, err := repo.FindByUserID(context.Background(), "nobody", filegate.PageQuery{Size: 20})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, int64(0), page.TotalElements)
		assert.Equal(t, 0, page.TotalPages)
	})
}

func testDeleteByKey(t *testing.T, newRepo Factory) {
	t.Run("success - removes record", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()
		ctx := context.Background()

		saved, err := repo.Save(ctx, NewMeta("u1", "gone.txt"))
		require.NoError(t, err)

		require.NoError(t, repo.DeleteByKey(ctx, saved.Key))

		_, err = repo.FindByKey(ctx, saved.Key)
		assert.ErrorIs(t, err, filegate.ErrNotFound)
	})

	t.Run("success - missing key is not an error", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()

		assert.NoError(t, repo.DeleteByKey(context.Background(), "u1/never-existed"))
	})

	t.Run("success - key can be reused after delete", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()
		ctx := context.Background()

		meta := NewMeta("u1", "again.txt")
		_, err := repo.Save(ctx, meta)
		require.NoError(t, err)
		require.NoError(t, repo.DeleteByKey(ctx, meta.Key))

		_, err = repo.Save(ctx, meta)
		assert.NoError(t, err)
	})
}

func testScan(t *testing.T, newRepo Factory) {
	t.Run("success - walks all owners in id order", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()
		ctx := context.Background()

		scanner, ok := repo.(filegate.MetaDataScanner)
		require.True(t, ok, "repo must implement MetaDataScanner")

		var want []int64
		for i := range 5 {
			saved, err := repo.Save(ctx, NewMeta(fmt.Sprintf("u%d", i%2), fmt.Sprintf("s%d.txt", i)))
			require.NoError(t, err)
			want = append(want, saved.ID)
		}

		var got []int64
		cursor := ""
		pages := 0
		for {
			res, err := scanner.Scan(ctx, filegate.ScanQuery{Cursor: cursor, Limit: 2})
			require.NoError(t, err)
			pages++
			for _, item := range res.Items {
				got = append(got, item.ID)
			}
			if res.NextCursor == "" {
				break
			}
			cursor = res.NextCursor
		}

		assert.Equal(t, want, got)
		assert.Equal(t, 3, pages)
	})

	t.Run("success - empty table", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()

		scanner, ok := repo.(filegate.MetaDataScanner)
		require.True(t, ok, "repo must implement MetaDataScanner")

		res, err := scanner.Scan(context.Background(), filegate.ScanQuery{Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Empty(t, res.NextCursor)
	})

	t.Run("error - invalid cursor", func(t *testing.T) {
		repo, cleanup := newRepo(t)
		defer cleanup()

		scanner, ok := repo.(filegate.MetaDataScanner)
		require.True(t, ok, "repo must implement MetaDataScanner")

		_, err := scanner.Scan(context.Background(), filegate.ScanQuery{Cursor: "!!!", Limit: 10})
		assert.ErrorIs(t, err, filegate.ErrInvalidInput)
	})
}
