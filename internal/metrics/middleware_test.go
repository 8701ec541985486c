package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Route("/v1/articles", func(r chi.Router) {
		r.Post("/query", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"return_type":"count","total":3}`))
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "id") == "999" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := newRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/articles/{id}", "200"))

	serve(r, "GET", "/v1/articles/1")
	serve(r, "GET", "/v1/articles/2")

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/articles/{id}", "200"))
	if after-before != 2 {
		t.Errorf("expected two requests under the id pattern, got %f", after-before)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := newRouter()

	tests := []struct {
		method, path, route, status string
	}{
		{"POST", "/v1/articles/query", "/v1/articles/query", "200"},
		{"GET", "/v1/articles/999", "/v1/articles/{id}", "404"},
		{"GET", "/health", "/health", "503"},
		{"GET", "/nope", unmatchedRoute, "404"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.route, tc.status))
			serve(r, tc.method, tc.path)
			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.route, tc.status))
			if after-before != 1 {
				t.Errorf("expected one %s %s with status %s, got %f", tc.method, tc.route, tc.status, after-before)
			}
		})
	}
}

func TestMiddleware_DurationAndSize(t *testing.T) {
	r := newRouter()
	serve(r, "POST", "/v1/articles/query")

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
	if testutil.CollectAndCount(httpResponseBytes) == 0 {
		t.Error("expected response size observations")
	}
	if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
		t.Errorf("in-flight gauge must return to zero, got %f", got)
	}
}

func TestStatusLabel(t *testing.T) {
	if got := statusLabel(0); got != "200" {
		t.Errorf("statusLabel(0) = %q, want 200", got)
	}
	if got := statusLabel(http.StatusGatewayTimeout); got != "504" {
		t.Errorf("statusLabel(504) = %q", got)
	}
}

func TestRouteLabel_WithoutRouter(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/articles", http.NoBody)
	if got := routeLabel(req); got != unmatchedRoute {
		t.Errorf("routeLabel() = %q, want %q", got, unmatchedRoute)
	}
}

func TestMetricsHandler_Exposition(t *testing.T) {
	r := newRouter()
	serve(r, "GET", "/health")

	rr := serve(r, "GET", "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	for _, name := range []string{"wikiquery_http_requests_total", "wikiquery_http_requests_in_flight"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in the exposition", name)
		}
	}
}
