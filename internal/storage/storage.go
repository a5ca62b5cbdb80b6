// Package storage defines the Storage interface — the contract any
// database backend must satisfy to work with this application.
//
// Handlers depend only on this interface, never on a concrete driver.
// Swapping the backing store means implementing these methods and
// changing one line in main.go; handler tests pass a fake instead of
// a real database.
package storage

import (
	"context"
	"errors"

	"github.com/escolalab/estudantes-api/internal/types"
)

// ErrEstudanteNotFound is the sentinel returned by GetEstudanteByID when
// no row matches the given id. Handlers check it with errors.Is to
// decide between a 404 and a generic server error.
var ErrEstudanteNotFound = errors.New("estudante not found")

// Storage is the database contract. Every method takes a context so the
// caller controls cancellation; implementations apply their own bounded
// timeout when the caller set none.
type Storage interface {
	// ListEstudantes returns every student record, in store-native order.
	// Returns an empty slice (not nil) when there are no rows.
	ListEstudantes(ctx context.Context) ([]types.Estudante, error)

	// GetEstudanteByID fetches a single record by primary key.
	// Returns ErrEstudanteNotFound when no row matches.
	GetEstudanteByID(ctx context.Context, id int64) (types.Estudante, error)

	// CreateEstudante inserts a new record and returns the store-assigned
	// primary-key id.
	CreateEstudante(ctx context.Context, e types.Estudante) (int64, error)

	// UpdateEstudanteByID overwrites every mutable field of the record with
	// the given id and returns the number of rows affected.
	UpdateEstudanteByID(ctx context.Context, id int64, e types.Estudante) (int64, error)

	// DeleteEstudanteByID removes the record with the given id and returns
	// the number of rows affected. Deleting an absent id is not an error.
	DeleteEstudanteByID(ctx context.Context, id int64) (int64, error)

	// Close releases the connection pool. Called once at shutdown.
	Close() error
}
