// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, storage backends, and utils all import types without
// depending on each other.
package types

// UserFields is the mutable part of a User. Every field is optional;
// a nil pointer means "absent" and is encoded as JSON null so the key
// is still present in every response.
//
// Updates replace all three fields at once, they are never merged.
type UserFields struct {
	Age    *float64 `json:"age"    bson:"age"    db:"age"`
	Gender *string  `json:"gender" bson:"gender" db:"gender"`
	Email  *string  `json:"email"  bson:"email"  db:"email"`
}

// User is one person record. ID is assigned by the store at creation
// time and never changes afterwards.
//
// The "_id" JSON key mirrors the document-store key so clients see the
// same shape whichever backend is configured.
type User struct {
	ID string `json:"_id" db:"id"`
	UserFields
}

// CreateUserQuery is the query-string shape accepted by POST /user.
// Values arrive as raw strings; Age is checked with the validator and
// coerced to a number by the handler.
type CreateUserQuery struct {
	Age    string `validate:"age"`
	Gender string
	Email  string
}
