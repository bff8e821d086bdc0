package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouteLabel(t *testing.T) {
	cases := map[string]string{
		"/api/state":                     "/api/state",
		"/api/goals/9f1c":                "/api/goals/{id}",
		"/api/recurring/abc/days":        "/api/recurring/{id}/days",
		"/api/admin/organizations":       "/api/admin/organizations",
		"/api/admin/organizations/org-1": "/api/admin/organizations/{id}",
		"/healthz":                       "/healthz",
	}
	for in, want := range cases {
		if got := routeLabel(in); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHTTPMetricsMiddlewareCapturesStatus(t *testing.T) {
	var seen int
	h := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		if sw, ok := w.(*statusWriter); ok {
			seen = sw.status
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if rec.Code != http.StatusTeapot || seen != http.StatusTeapot {
		t.Fatalf("expected teapot status to be recorded, got %d / %d", rec.Code, seen)
	}
}
