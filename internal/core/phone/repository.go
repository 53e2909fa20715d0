package phone

import (
	"context"
	"errors"
)

// ErrDuplicateKey is returned by Create when a record for the key already exists.
var ErrDuplicateKey = errors.New("phone record already exists")

// Repository defines the durable store of resolved phone records.
// Records are never updated or deleted through this interface.
type Repository interface {
	// FindByKey retrieves a record by its key.
	// Returns nil if not found.
	FindByKey(ctx context.Context, key Key) (*Record, error)

	// Create persists a new record and returns it with ID and timestamps populated.
	// Returns ErrDuplicateKey if the key is already taken.
	Create(ctx context.Context, key Key, fields Fields) (*Record, error)
}
