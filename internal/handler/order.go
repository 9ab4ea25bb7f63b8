package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/johiruljahid/nsultan/internal/events"
	"github.com/johiruljahid/nsultan/internal/lifecycle"
	"github.com/johiruljahid/nsultan/internal/metrics"
	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/johiruljahid/nsultan/internal/receipt"
	"github.com/johiruljahid/nsultan/internal/store"
	"github.com/johiruljahid/nsultan/internal/websocket"
)

type OrderHandler struct {
	orderStore *store.OrderStore
	hub        *websocket.Hub
	events     events.Publisher
	metrics    *metrics.Metrics
	receipts   receipt.Generator
	logger     *slog.Logger
}

func NewOrderHandler(orders *store.OrderStore, hub *websocket.Hub, pub events.Publisher, m *metrics.Metrics, receipts receipt.Generator, logger *slog.Logger) *OrderHandler {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &OrderHandler{orderStore: orders, hub: hub, events: pub, metrics: m, receipts: receipts, logger: logger}
}

func (h *OrderHandler) lookup(w http.ResponseWriter, id string) (*model.Order, bool) {
	o, err := h.orderStore.GetByID(id)
	if err != nil {
		h.logger.Error("get order", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get order")
		return nil, false
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return nil, false
	}
	return o, true
}

// Get handles GET /api/orders/{id}. Customer contact details are left out.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r.PathValue("id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, o.Public())
}

// QRCode handles GET /api/orders/{id}/qrcode
func (h *OrderHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r.PathValue("id"))
	if !ok {
		return
	}
	png, err := h.receipts.OrderQR(o)
	if err != nil {
		h.logger.Error("order qr", "id", o.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render qr code")
		return
	}
	writePNG(w, png)
}

// PaymentQR handles GET /api/payment/qrcode?amount=
func (h *OrderHandler) PaymentQR(w http.ResponseWriter, r *http.Request) {
	var amount int64
	if v := r.URL.Query().Get("amount"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		amount = n
	}
	png, err := h.receipts.PaymentQR(amount)
	if err != nil {
		h.logger.Error("payment qr", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render qr code")
		return
	}
	writePNG(w, png)
}

func writePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// List handles GET /api/admin/orders?view=active|completed or ?status=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var statuses []model.OrderStatus
	q := r.URL.Query()
	switch q.Get("view") {
	case "":
	case "active":
		statuses = []model.OrderStatus{model.OrderPending, model.OrderPreparing}
	case "completed":
		statuses = []model.OrderStatus{model.OrderDelivered}
	default:
		writeError(w, http.StatusBadRequest, "view must be active or completed")
		return
	}
	if v := q.Get("status"); v != "" {
		st, err := lifecycle.ParseOrderStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		statuses = []model.OrderStatus{st}
	}

	orders, err := h.orderStore.List(statuses...)
	if err != nil {
		h.logger.Error("list orders", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// UpdateStatus handles PUT /api/admin/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	to, err := lifecycle.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.transition(r.Context(), w, r.PathValue("id"), func(from model.OrderStatus) (model.OrderStatus, error) {
		return to, lifecycle.CheckOrder(from, to)
	})
}

// Advance handles POST /api/admin/orders/{id}/advance
func (h *OrderHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.transition(r.Context(), w, r.PathValue("id"), lifecycle.NextOrder)
}

func (h *OrderHandler) transition(ctx context.Context, w http.ResponseWriter, id string, target func(model.OrderStatus) (model.OrderStatus, error)) {
	current, ok := h.lookup(w, id)
	if !ok {
		return
	}
	from := current.Status
	to, err := target(from)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	updated, err := h.orderStore.UpdateStatus(id, from, to)
	if errors.Is(err, store.ErrStatusConflict) {
		writeError(w, http.StatusConflict, "order status changed, reload and retry")
		return
	}
	if err != nil {
		h.logger.Error("update order status", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("order status changed", "id", id, "from", from, "to", to)
	h.metrics.OrderTransition(string(to))
	if h.hub != nil {
		h.hub.PublishOrder(websocket.ActionStatusChanged, updated)
	}
	if err := h.events.Publish(ctx, events.Event{
		Type:       events.OrderStatusChanged,
		ID:         id,
		Status:     string(to),
		FromStatus: string(from),
		Total:      updated.Total,
		ItemCount:  len(updated.Items),
	}); err != nil {
		h.logger.Warn("publish order event", "id", id, "error", err)
	}
	writeJSON(w, http.StatusOK, updated)
}
