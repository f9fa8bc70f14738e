// Package user contains the HTTP handlers for the User resource.
//
// Each exported function is a factory: it takes the Storage once, when
// the route is registered, and returns the http.HandlerFunc called on
// every request. Handlers keep no state of their own between requests.
//
// Every id-keyed store failure, whether the id is malformed, absent, or
// the backend errored, is answered with the same 404 envelope.
package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
	"github.com/aanand-mishra/users-api/internal/utils/response"
)

const (
	msgCreated = "User created successfully"
	msgFound   = "User found successfully"
	msgUpdated = "User updated successfully"
	msgDeleted = "User deleted successfully"
)

// validate caches struct metadata, so one instance is shared.
var validate = newValidator()

// List handles GET /users.
// Returns a JSON array of every stored user, [] when there are none.
func List(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("listing users")

		users, err := storage.ListUsers(r.Context())
		if err != nil {
			slog.Error("error listing users", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, users)
	}
}

// GetByID handles GET /user/{id}.
//
//	200 { "message": "User found successfully", "user": { ... } }
//	404 { "message": "User with id {id} not found" }
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a user", slog.String("id", id))

		u, err := storage.GetUserByID(r.Context(), id)
		if err != nil {
			notFound(w, id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.Message(msgFound, u))
	}
}

// New handles POST /user?age=&gender=&email=.
// All parameters are optional; unsupplied fields are stored as absent.
// age, when present, must read as a number and is stored as one.
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a user")

		q := r.URL.Query()
		query := types.CreateUserQuery{
			Age:    q.Get("age"),
			Gender: q.Get("gender"),
			Email:  q.Get("email"),
		}

		if err := validate.Struct(query); err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		age, err := parseAge(query.Age)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		fields := types.UserFields{Age: age}
		if q.Has("gender") {
			fields.Gender = &query.Gender
		}
		if q.Has("email") {
			fields.Email = &query.Email
		}

		u, err := storage.CreateUser(r.Context(), fields)
		if err != nil {
			slog.Error("error creating user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		slog.Info("user created", slog.String("id", u.ID))
		response.WriteJSON(w, http.StatusOK, response.Message(msgCreated, u))
	}
}

// Update handles PUT /user/{id}.
// The JSON body { "age", "gender", "email" } replaces all three fields;
// keys missing from the body are stored as absent. An empty body is a
// replacement with every field absent.
//
// The id is resolved before the body is read, so an unknown id gets the
// 404 envelope whatever the body holds. A string age is read as a
// number; a body that still cannot be used is a 400.
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a user", slog.String("id", id))

		if _, err := storage.GetUserByID(r.Context(), id); err != nil {
			notFound(w, id, err)
			return
		}

		fields, err := decodeUpdate(r.Body)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		u, err := storage.ReplaceUserByID(r.Context(), id, fields)
		if err != nil {
			notFound(w, id, err)
			return
		}

		slog.Info("user updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message(msgUpdated, u))
	}
}

// Delete handles DELETE /user/{id}.
// The response carries the user as it was before removal.
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a user", slog.String("id", id))

		u, err := storage.DeleteUserByID(r.Context(), id)
		if err != nil {
			notFound(w, id, err)
			return
		}

		slog.Info("user deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message(msgDeleted, u))
	}
}

// notFound answers 404 for any id-keyed store error. A plain miss is
// logged at debug level; anything else is unexpected and logged as an
// error before being folded into the same response.
func notFound(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		slog.Debug("user not found", slog.String("id", id), slog.String("error", err.Error()))
	} else {
		slog.Error("store error on user lookup", slog.String("id", id), slog.String("error", err.Error()))
	}
	response.WriteJSON(w, http.StatusNotFound, response.NotFound(id))
}
