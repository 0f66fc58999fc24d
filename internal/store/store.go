// Package store provides the record store behind the catalog: an in-memory
// implementation for the CLI and tests, and a Postgres implementation for
// the daemon.
package store

import (
	"context"
	"errors"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("infrastructure not found")
	// ErrExists is returned when adding a record whose id is taken.
	ErrExists = errors.New("infrastructure already exists")
)

// Store persists infrastructure records. Errors are returned as-is to the
// caller; implementations do not retry.
type Store interface {
	List(ctx context.Context) ([]infra.Infrastructure, error)
	Get(ctx context.Context, id string) (infra.Infrastructure, error)
	Add(ctx context.Context, rec infra.Infrastructure) error
	Update(ctx context.Context, rec infra.Infrastructure) error
	Delete(ctx context.Context, id string) error
}
