package fixture

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the requested record does not exist.
var ErrNotFound = errors.New("fixture: record not found")

// ErrDuplicateID is returned by Insert when a record with the same ID exists.
var ErrDuplicateID = errors.New("fixture: record with that ID already exists")

// Store is the destination of seed operations. Implementations must be safe
// for concurrent use.
type Store interface {
	// Insert validates and stores rec, generating an ID if rec.ID is empty.
	// Returns [ErrDuplicateID] if the ID is taken.
	Insert(ctx context.Context, rec Record) (Record, error)

	// Get retrieves a record by ID. Returns [ErrNotFound] when absent.
	Get(ctx context.Context, id string) (Record, error)

	// List returns the records matching opts, ordered by ID.
	List(ctx context.Context, opts ListOptions) ([]Record, error)

	// Count returns the number of records of kind, or of all records when
	// kind is empty.
	Count(ctx context.Context, kind string) (int, error)

	// Truncate removes every record.
	Truncate(ctx context.Context) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// InsertAll inserts recs one at a time and returns the number inserted
// before the first error.
func InsertAll(ctx context.Context, store Store, recs []Record) (int, error) {
	n := 0
	for _, rec := range recs {
		if _, err := store.Insert(ctx, rec); err != nil {
			return n, fmt.Errorf("fixture: insert record %d (%s %q): %w", n, rec.Kind, rec.Name, err)
		}
		n++
	}
	return n, nil
}
