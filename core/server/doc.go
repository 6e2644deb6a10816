// Package server holds the HTTP server configuration.
//
// The server itself is assembled in cmd/start.go; this package only defines the
// listen port, the API key guarding every route, and the graceful shutdown bound.
package server
