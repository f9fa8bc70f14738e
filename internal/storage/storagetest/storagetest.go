// Package storagetest holds a behavioural test suite that every
// storage.Storage backend must pass.
package storagetest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Seed is the three-user fixture used across the test suites.
func Seed() []types.UserFields {
	return []types.UserFields{
		{Age: Ptr(37.0), Gender: Ptr("male"), Email: Ptr("lee1983@gmail.com")},
		{Age: Ptr(76.0), Gender: Ptr("female"), Email: Ptr("kate1982@gmail.com")},
		{Age: Ptr(16.0), Gender: Ptr("male"), Email: Ptr("darian2000@gmail.com")},
	}
}

// Run exercises s. The store is emptied before each subtest, so s may
// be shared across them. missingID must be well-formed for the backend
// but never assigned.
func Run(t *testing.T, s storage.Storage, missingID string) {
	ctx := context.Background()

	reset := func(t *testing.T) []types.User {
		t.Helper()
		_, err := s.DeleteAllUsers(ctx)
		require.NoError(t, err)
		users, err := s.InsertUsers(ctx, Seed())
		require.NoError(t, err)
		require.Len(t, users, 3)
		return users
	}

	t.Run("list returns every user", func(t *testing.T) {
		reset(t)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 3)
	})

	t.Run("list on empty store is empty not nil", func(t *testing.T) {
		_, err := s.DeleteAllUsers(ctx)
		require.NoError(t, err)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	})

	t.Run("get by id", func(t *testing.T) {
		seeded := reset(t)

		u, err := s.GetUserByID(ctx, seeded[0].ID)
		require.NoError(t, err)
		assert.Equal(t, seeded[0], u)
	})

	t.Run("ids are unique", func(t *testing.T) {
		seeded := reset(t)

		seen := map[string]bool{}
		for _, u := range seeded {
			assert.NotEmpty(t, u.ID)
			assert.False(t, seen[u.ID], "duplicate id %s", u.ID)
			seen[u.ID] = true
		}
	})

	t.Run("unknown and malformed ids are not found", func(t *testing.T) {
		reset(t)

		for _, id := range []string{missingID, "non-existing", "", "123"} {
			_, err := s.GetUserByID(ctx, id)
			assert.ErrorIs(t, err, storage.ErrNotFound, "get %q", id)

			_, err = s.ReplaceUserByID(ctx, id, types.UserFields{Age: Ptr(1.0)})
			assert.ErrorIs(t, err, storage.ErrNotFound, "replace %q", id)

			_, err = s.DeleteUserByID(ctx, id)
			assert.ErrorIs(t, err, storage.ErrNotFound, "delete %q", id)
		}

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 3)
	})

	t.Run("ids resolve only as returned", func(t *testing.T) {
		seeded := reset(t)

		id := seeded[0].ID
		for _, variant := range []string{strings.ToUpper(id), " " + id, id + " "} {
			if variant == id {
				continue
			}
			_, err := s.GetUserByID(ctx, variant)
			assert.ErrorIs(t, err, storage.ErrNotFound, "get %q", variant)
		}
	})

	t.Run("create with absent fields", func(t *testing.T) {
		reset(t)

		u, err := s.CreateUser(ctx, types.UserFields{})
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		assert.Nil(t, u.Age)
		assert.Nil(t, u.Gender)
		assert.Nil(t, u.Email)

		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u, got)
	})

	t.Run("create with fields", func(t *testing.T) {
		reset(t)

		fields := types.UserFields{Age: Ptr(21.0), Gender: Ptr("male"), Email: Ptr("adamtherandom@gmail.com")}
		u, err := s.CreateUser(ctx, fields)
		require.NoError(t, err)
		assert.Equal(t, fields, u.UserFields)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 4)
	})

	t.Run("replace overwrites every field", func(t *testing.T) {
		seeded := reset(t)

		fields := types.UserFields{Age: Ptr(21.0), Email: Ptr("example21male@gmail.com")}
		u, err := s.ReplaceUserByID(ctx, seeded[0].ID, fields)
		require.NoError(t, err)
		assert.Equal(t, seeded[0].ID, u.ID)
		assert.Equal(t, fields, u.UserFields)

		got, err := s.GetUserByID(ctx, seeded[0].ID)
		require.NoError(t, err)
		assert.Equal(t, u, got)
		assert.Nil(t, got.Gender)
	})

	t.Run("delete returns prior state once", func(t *testing.T) {
		seeded := reset(t)

		u, err := s.DeleteUserByID(ctx, seeded[0].ID)
		require.NoError(t, err)
		assert.Equal(t, seeded[0], u)

		_, err = s.GetUserByID(ctx, seeded[0].ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.DeleteUserByID(ctx, seeded[0].ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("delete all reports count", func(t *testing.T) {
		reset(t)

		n, err := s.DeleteAllUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = s.DeleteAllUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("insert none", func(t *testing.T) {
		reset(t)

		users, err := s.InsertUsers(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, users)
	})
}
