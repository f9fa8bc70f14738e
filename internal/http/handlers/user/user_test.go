package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/users-api/internal/storage/memory"
	"github.com/aanand-mishra/users-api/internal/types"
)

// brokenStore fails every call with a non-sentinel error.
type brokenStore struct{}

var errBroken = errors.New("connection reset")

func (brokenStore) ListUsers(context.Context) ([]types.User, error) { return nil, errBroken }
func (brokenStore) GetUserByID(context.Context, string) (types.User, error) {
	return types.User{}, errBroken
}
func (brokenStore) CreateUser(context.Context, types.UserFields) (types.User, error) {
	return types.User{}, errBroken
}
func (brokenStore) InsertUsers(context.Context, []types.UserFields) ([]types.User, error) {
	return nil, errBroken
}
func (brokenStore) ReplaceUserByID(context.Context, string, types.UserFields) (types.User, error) {
	return types.User{}, errBroken
}
func (brokenStore) DeleteUserByID(context.Context, string) (types.User, error) {
	return types.User{}, errBroken
}
func (brokenStore) DeleteAllUsers(context.Context) (int64, error) { return 0, errBroken }
func (brokenStore) Close(context.Context) error                  { return nil }

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBackendErrorsOnIDRoutesAreNotFound(t *testing.T) {
	s := brokenStore{}

	tests := []struct {
		name    string
		method  string
		handler http.HandlerFunc
	}{
		{"get", http.MethodGet, GetByID(s)},
		{"update", http.MethodPut, Update(s)},
		{"delete", http.MethodDelete, Delete(s)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/user/abc", strings.NewReader(`{"age": 1}`))
			req.SetPathValue("id", "abc")
			rec := httptest.NewRecorder()

			tt.handler(rec, req)

			assert.Equal(t, http.StatusNotFound, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "User with id abc not found", body["message"])
			assert.NotContains(t, body, "user")
		})
	}
}

func TestBackendErrorsWithoutIDAreServerErrors(t *testing.T) {
	s := brokenStore{}

	for name, h := range map[string]http.HandlerFunc{"list": List(s), "create": New(s)} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			h(rec, req)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, errBroken.Error(), body["error"])
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("coerces age to a number", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(memory.New())(rec, httptest.NewRequest(http.MethodPost, "/user?age=-3.5", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		user := decode(t, rec)["user"].(map[string]any)
		assert.Equal(t, -3.5, user["age"])
		assert.Nil(t, user["gender"])
		assert.Nil(t, user["email"])
	})

	t.Run("empty age is absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(memory.New())(rec, httptest.NewRequest(http.MethodPost, "/user?age=&gender=", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		user := decode(t, rec)["user"].(map[string]any)
		assert.Nil(t, user["age"])
		assert.Equal(t, "", user["gender"])
	})

	t.Run("accepts any gender and email", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(memory.New())(rec, httptest.NewRequest(http.MethodPost, "/user?gender=robot&email=not-an-email", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		user := decode(t, rec)["user"].(map[string]any)
		assert.Equal(t, "robot", user["gender"])
		assert.Equal(t, "not-an-email", user["email"])
	})

	t.Run("reads loose number forms", func(t *testing.T) {
		for query, want := range map[string]float64{
			"age=1e3":    1000,
			"age=%2021":  21,
			"age=0x10":   16,
			"age=0b11":   3,
			"age=+7":     7,
			"age=21.25":  21.25,
			"age=-0.5e1": -5,
		} {
			rec := httptest.NewRecorder()
			New(memory.New())(rec, httptest.NewRequest(http.MethodPost, "/user?"+query, nil))

			require.Equal(t, http.StatusOK, rec.Code, query)
			user := decode(t, rec)["user"].(map[string]any)
			assert.Equal(t, want, user["age"], query)
		}
	})

	t.Run("rejects non-numeric age", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(memory.New())(rec, httptest.NewRequest(http.MethodPost, "/user?age=21y", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "field Age must be a number", decode(t, rec)["error"])
	})

	t.Run("rejects NaN and infinities", func(t *testing.T) {
		for _, age := range []string{"NaN", "Inf", "-infinity", "1e400", "0x", "1_000"} {
			rec := httptest.NewRecorder()
			New(memory.New())(rec, httptest.NewRequest(http.MethodPost, "/user?age="+age, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code, age)
		}
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed body is a bad request", func(t *testing.T) {
		s := memory.New()
		u, err := s.CreateUser(ctx, types.UserFields{})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/user/"+u.ID, strings.NewReader(`{"age":`))
		req.SetPathValue("id", u.ID)
		rec := httptest.NewRecorder()
		Update(s)(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "error", decode(t, rec)["status"])
	})

	t.Run("unknown id wins over a bad body", func(t *testing.T) {
		for _, body := range []string{`{"age":`, `{"age":"twenty"}`, `[1,2]`, `{"age":"21"}`} {
			req := httptest.NewRequest(http.MethodPut, "/user/non-valid", strings.NewReader(body))
			req.SetPathValue("id", "non-valid")
			rec := httptest.NewRecorder()
			Update(memory.New())(rec, req)

			assert.Equal(t, http.StatusNotFound, rec.Code, body)
			got := decode(t, rec)
			assert.Equal(t, "User with id non-valid not found", got["message"], body)
			assert.NotContains(t, got, "user", body)
		}
	})

	t.Run("coerces body values", func(t *testing.T) {
		s := memory.New()
		u, err := s.CreateUser(ctx, types.UserFields{})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/user/"+u.ID,
			strings.NewReader(`{"age":" 21 ","gender":"male","email":42}`))
		req.SetPathValue("id", u.ID)
		rec := httptest.NewRecorder()
		Update(s)(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		user := decode(t, rec)["user"].(map[string]any)
		assert.Equal(t, 21.0, user["age"])
		assert.Equal(t, "male", user["gender"])
		assert.Equal(t, "42", user["email"])
	})

	t.Run("non-numeric string age on a known id", func(t *testing.T) {
		s := memory.New()
		u, err := s.CreateUser(ctx, types.UserFields{})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/user/"+u.ID, strings.NewReader(`{"age":"twenty"}`))
		req.SetPathValue("id", u.ID)
		rec := httptest.NewRecorder()
		Update(s)(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "field Age must be a number", decode(t, rec)["error"])
	})

	t.Run("empty body clears every field", func(t *testing.T) {
		s := memory.New()
		gender := "female"
		u, err := s.CreateUser(ctx, types.UserFields{Gender: &gender})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/user/"+u.ID, nil)
		req.SetPathValue("id", u.ID)
		rec := httptest.NewRecorder()
		Update(s)(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		user := decode(t, rec)["user"].(map[string]any)
		assert.Equal(t, u.ID, user["_id"])
		assert.Nil(t, user["gender"])

		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Gender)
	})
}
