// Package storage defines the Storage interface, the contract every
// Record Store backend must satisfy to serve the users API.
//
// Handlers depend only on this interface. Backends live in the
// sub-packages (mongo, sqlite, memory) and are chosen at startup from
// the storage.driver config value.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/users-api/internal/types"
)

// ErrNotFound is returned (possibly wrapped) by every id-keyed
// operation when the id does not resolve to a stored user. Ids the
// backend cannot even parse are reported the same way.
var ErrNotFound = errors.New("user not found")

// Storage is the Record Store contract. All operations act on a single
// document and rely on the backend for per-document atomicity.
type Storage interface {
	// ListUsers returns every stored user. Returns an empty slice, not
	// nil, when the collection is empty. Order is unspecified.
	ListUsers(ctx context.Context) ([]types.User, error)

	// GetUserByID fetches one user by its opaque id.
	GetUserByID(ctx context.Context, id string) (types.User, error)

	// CreateUser inserts a new user and returns it with its assigned id.
	CreateUser(ctx context.Context, fields types.UserFields) (types.User, error)

	// InsertUsers inserts several users in one call.
	InsertUsers(ctx context.Context, fields []types.UserFields) ([]types.User, error)

	// ReplaceUserByID overwrites all mutable fields of an existing user
	// and returns the stored result.
	ReplaceUserByID(ctx context.Context, id string, fields types.UserFields) (types.User, error)

	// DeleteUserByID removes a user and returns its state prior to
	// removal.
	DeleteUserByID(ctx context.Context, id string) (types.User, error)

	// DeleteAllUsers empties the collection and reports how many users
	// were removed.
	DeleteAllUsers(ctx context.Context) (int64, error)

	// Close releases the backend's connections.
	Close(ctx context.Context) error
}
