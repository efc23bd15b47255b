package middleware

import (
	"net/http"
	"strings"
	"sync/atomic"
)

// Metrics counts requests, error responses and open streams.
type Metrics struct {
	Requests    atomic.Int64
	Errors      atomic.Int64
	OpenStreams atomic.Int64
}

// Middleware counts every request and any response with status 400 or above.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Requests.Add(1)
		if isStream(r) {
			m.OpenStreams.Add(1)
			defer m.OpenStreams.Add(-1)
		}

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 400 {
			m.Errors.Add(1)
		}
	})
}

func isStream(r *http.Request) bool {
	return strings.HasSuffix(r.URL.Path, "/stream") || r.Header.Get("Accept") == "text/event-stream"
}
