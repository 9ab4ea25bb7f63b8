package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	for _, tc := range []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	} {
		buf.Reset()
		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/menu", nil))

		out := buf.String()
		if !strings.Contains(out, tc.level) {
			t.Errorf("status %d logged %q, want %s", tc.status, out, tc.level)
		}
		if !strings.Contains(out, "path=/api/menu") {
			t.Errorf("missing path in %q", out)
		}
	}
}

func TestRequestLoggerRouteAndBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})
	RequestLogger(logger)(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/orders/ORD-1", nil))

	out := buf.String()
	if !strings.Contains(out, "bytes=5") {
		t.Errorf("missing byte count in %q", out)
	}
	if !strings.Contains(out, `route="GET /api/orders/{id}"`) {
		t.Errorf("missing route in %q", out)
	}
}

func TestRequestLoggerQuietPollPaths(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	if buf.Len() != 0 {
		t.Errorf("health check logged at info: %q", buf.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS([]string{"https://nsultan.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/cart/items", nil)
	req.Header.Set("Origin", "https://nsultan.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://nsultan.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
}
