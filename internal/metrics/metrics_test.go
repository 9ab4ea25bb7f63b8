package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleCounters(t *testing.T) {
	m := New()

	m.OrderCreated(950)
	m.OrderCreated(500)
	m.OrderTransition("preparing")
	m.BookingCreated("party")
	m.BookingTransition("confirmed")
	m.ChatRequest("error")
	m.Notification("push", errors.New("gone"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersCreated))
	assert.Equal(t, 1450.0, testutil.ToFloat64(m.orderRevenue))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orderTransitions.WithLabelValues("preparing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsCreated.WithLabelValues("party")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingTransitions.WithLabelValues("confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatRequests.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("push", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.OrderCreated(1)
	m.OrderTransition("delivered")
	m.ChatRequest("ok")
	m.RegisterGauge("x", "x", func() float64 { return 0 })

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(h))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := m.Middleware(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/orders/ORD-1", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/orders/ORD-2", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /api/orders/{id}", "404")))
}

func TestHandlerExposesGauge(t *testing.T) {
	m := New()
	m.RegisterGauge("websocket_clients", "Connected clients.", func() float64 { return 3 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "nsultan_websocket_clients 3"))
}
