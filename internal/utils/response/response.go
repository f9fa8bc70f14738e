// Package response provides helpers for writing consistent JSON HTTP
// responses.
//
// The users API answers with two shapes. Resource operations use the
// message envelope:
//
//	{ "message": "User found successfully", "user": { ... } }
//
// Request-shape failures (bad query parameters, malformed bodies) and
// unexpected backend failures use the error envelope:
//
//	{ "status": "error", "error": "field Age must be a number" }
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/users-api/internal/types"
)

// Response is the standard envelope returned for error cases.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// UserMessage is the envelope for every /user/{id} and POST /user
// response. User is omitted entirely on not-found responses.
type UserMessage struct {
	Message string      `json:"message"`
	User    *types.User `json:"user,omitempty"`
}

// WriteJSON writes data JSON-encoded with the given HTTP status code.
// Headers must be set before WriteHeader, so the order here matters.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Message builds a success envelope around u.
func Message(message string, u types.User) UserMessage {
	return UserMessage{Message: message, User: &u}
}

// NotFound builds the 404 envelope for id. The id is echoed verbatim.
func NotFound(id string) UserMessage {
	return UserMessage{Message: fmt.Sprintf("User with id %s not found", id)}
}

// GeneralError wraps any Go error into the error envelope.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError turns validator field errors into one readable
// error envelope.
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "age", "numeric", "number":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a number", e.Field()))
		case "email":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}
