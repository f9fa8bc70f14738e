// Package memory provides an in-process implementation of
// storage.Storage. Data lives only as long as the process does; it is
// used by tests and by the "memory" storage driver.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
)

// Memory is a thread-safe map of users keyed by UUID string.
type Memory struct {
	mu    sync.RWMutex
	users map[string]types.User
}

// New returns an empty store.
func New() *Memory {
	return &Memory{users: make(map[string]types.User)}
}

func (m *Memory) ListUsers(ctx context.Context) ([]types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]types.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, types.User{ID: u.ID, UserFields: clone(u.UserFields)})
	}
	return users, nil
}

func (m *Memory) GetUserByID(ctx context.Context, id string) (types.User, error) {
	key, err := parseID(id)
	if err != nil {
		return types.User{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[key]
	if !ok {
		return types.User{}, fmt.Errorf("GetUserByID %s: %w", id, storage.ErrNotFound)
	}
	return types.User{ID: u.ID, UserFields: clone(u.UserFields)}, nil
}

func (m *Memory) CreateUser(ctx context.Context, fields types.UserFields) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertLocked(fields), nil
}

func (m *Memory) InsertUsers(ctx context.Context, fields []types.UserFields) ([]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]types.User, 0, len(fields))
	for _, f := range fields {
		users = append(users, m.insertLocked(f))
	}
	return users, nil
}

func (m *Memory) ReplaceUserByID(ctx context.Context, id string, fields types.UserFields) (types.User, error) {
	key, err := parseID(id)
	if err != nil {
		return types.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[key]; !ok {
		return types.User{}, fmt.Errorf("ReplaceUserByID %s: %w", id, storage.ErrNotFound)
	}
	m.users[key] = types.User{ID: key, UserFields: clone(fields)}
	return types.User{ID: key, UserFields: clone(fields)}, nil
}

func (m *Memory) DeleteUserByID(ctx context.Context, id string) (types.User, error) {
	key, err := parseID(id)
	if err != nil {
		return types.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[key]
	if !ok {
		return types.User{}, fmt.Errorf("DeleteUserByID %s: %w", id, storage.ErrNotFound)
	}
	delete(m.users, key)
	return u, nil
}

func (m *Memory) DeleteAllUsers(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.users))
	m.users = make(map[string]types.User)
	return n, nil
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}

// insertLocked must be called with mu held for writing.
func (m *Memory) insertLocked(fields types.UserFields) types.User {
	id := uuid.NewString()
	m.users[id] = types.User{ID: id, UserFields: clone(fields)}
	return types.User{ID: id, UserFields: clone(fields)}
}

// parseID rejects anything but the canonical lowercase UUID form this
// store hands out. Other spellings of the same UUID are not ids.
func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return "", fmt.Errorf("invalid id %q: %w", id, storage.ErrNotFound)
	}
	return id, nil
}

// clone copies the pointed-to values so stored state never shares
// pointers with a caller.
func clone(f types.UserFields) types.UserFields {
	var out types.UserFields
	if f.Age != nil {
		age := *f.Age
		out.Age = &age
	}
	if f.Gender != nil {
		gender := *f.Gender
		out.Gender = &gender
	}
	if f.Email != nil {
		email := *f.Email
		out.Email = &email
	}
	return out
}
