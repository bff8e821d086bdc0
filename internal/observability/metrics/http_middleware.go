package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPMetricsMiddleware instruments requests with Prometheus metrics
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		ObserveHTTPRequest(r.Method, routeLabel(r.URL.Path), strconv.Itoa(ww.status), time.Since(start))
	})
}

// routeLabel keeps the label set bounded by replacing id segments.
func routeLabel(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if i >= 3 && p != "" && !isRouteWord(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isRouteWord(segment string) bool {
	switch segment {
	case "days", "summary", "organizations", "plans", "payments", "theme", "reset", "email", "send":
		return true
	}
	return false
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which the
// websocket upgrade needs for hijacking.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
