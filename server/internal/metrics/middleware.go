package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Middleware records request count and duration for next. The path label is
// the first path segment when it is one of routes, "root" for "/", and
// "other" otherwise, which keeps entity names out of label values.
func Middleware(next http.Handler, routes ...string) http.Handler {
	known := make(map[string]bool, len(routes))
	for _, r := range routes {
		known[r] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := pathLabel(r.URL.Path, known)
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rec.status)
		RequestTotal.WithLabelValues(r.Method, path, status).Inc()
		RequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

func pathLabel(p string, known map[string]bool) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "root"
	}
	first, _, _ := strings.Cut(p, "/")
	if known[first] {
		return first
	}
	return "other"
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
