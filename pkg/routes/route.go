// Package routes declares HTTP routes as data so they can be registered on a
// ServeMux and described in an OpenAPI document from the same source.
package routes

import (
	"net/http"

	"github.com/JaimeStill/tagline/pkg/openapi"
)

// Route binds an HTTP method and pattern to a handler. OpenAPI is optional
// documentation for the operation.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}
