// Package routes declares HTTP routes as data so domain handlers can publish
// them and the API module can register them on a mux.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler. The pattern is
// relative to its group prefix and uses net/http wildcards.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
