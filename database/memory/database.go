package memory

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sagarc03/filegate"
)

var errClosed = errors.New("memory database is closed")

type database struct {
	repo   *Repo
	closed atomic.Bool
}

// Connect creates a fresh in-memory database. There is no DSN.
func Connect(_ context.Context, tables filegate.Tables) (*database, error) {
	repo, err := NewRepo(tables)
	if err != nil {
		return nil, err
	}
	return &database{repo: repo}, nil
}

func (d *database) Ping(_ context.Context) error {
	if d.closed.Load() {
		return errClosed
	}
	return nil
}

// Migrate is a no-op: the schema is created with the database.
func (d *database) Migrate(_ context.Context) error {
	return d.Ping(context.Background())
}

func (d *database) Validate(ctx context.Context) error {
	return d.Ping(ctx)
}

func (d *database) GetRepo() filegate.MetaDataRepo {
	return d.repo
}

func (d *database) Close() error {
	d.closed.Store(true)
	return nil
}
