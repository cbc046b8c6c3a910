package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the timeouts used by the intake API.
// Write timeout leaves room for the image export archive.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
