package httpserver

import (
	"net/http"
	"time"
)

// New builds the daemon's HTTP server. It only serves health and metrics,
// so requests are small and responses bounded; the timeouts cut off
// anything that lingers while keep-alive stays long for scrapers.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
