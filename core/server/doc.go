// Package server holds the HTTP server configuration.
//
// The serve command builds a Fiber app from this Config: the listen address,
// the API key checked by the auth middleware, and request timeouts.
package server
