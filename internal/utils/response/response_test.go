package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/users-api/internal/types"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteJSON(rec, http.StatusTeapot, map[string]string{"foo": "bar"}))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"foo":"bar"}`, rec.Body.String())
}

func TestMessage(t *testing.T) {
	email := "a@b.c"
	u := types.User{ID: "42", UserFields: types.UserFields{Email: &email}}

	b, err := json.Marshal(Message("User found successfully", u))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"message":"User found successfully","user":{"_id":"42","age":null,"gender":null,"email":"a@b.c"}}`,
		string(b))
}

func TestNotFound(t *testing.T) {
	b, err := json.Marshal(NotFound("not/quite an id"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"User with id not/quite an id not found"}`, string(b))
}

func TestGeneralError(t *testing.T) {
	assert.Equal(t, Response{Status: StatusError, Error: "boom"}, GeneralError(errors.New("boom")))
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Age   string `validate:"numeric"`
		Email string `validate:"required"`
	}

	err := validator.New().Struct(payload{Age: "x"})
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)

	got := ValidationError(errs)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "field Age must be a number, field Email is required", got.Error)
}
