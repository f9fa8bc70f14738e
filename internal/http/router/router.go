// Package router builds the route table for the users API.
package router

import (
	"net/http"

	"github.com/aanand-mishra/users-api/internal/http/handlers/user"
	"github.com/aanand-mishra/users-api/internal/storage"
)

// New returns a mux with every user route bound to s.
//
//	GET    /users       list all users
//	GET    /user/{id}   get one user
//	POST   /user        create a user from query parameters
//	PUT    /user/{id}   replace a user's fields from the JSON body
//	DELETE /user/{id}   delete a user
func New(s storage.Storage) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("GET /users", user.List(s))
	router.HandleFunc("GET /user/{id}", user.GetByID(s))
	router.HandleFunc("POST /user", user.New(s))
	router.HandleFunc("PUT /user/{id}", user.Update(s))
	router.HandleFunc("DELETE /user/{id}", user.Delete(s))

	return router
}
