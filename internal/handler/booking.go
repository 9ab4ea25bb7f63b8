package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/johiruljahid/nsultan/internal/booking"
	"github.com/johiruljahid/nsultan/internal/events"
	"github.com/johiruljahid/nsultan/internal/lifecycle"
	"github.com/johiruljahid/nsultan/internal/metrics"
	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/johiruljahid/nsultan/internal/store"
	"github.com/johiruljahid/nsultan/internal/websocket"
)

type bookingNotifier interface {
	BookingRequested(b *model.Booking)
}

type BookingHandler struct {
	bookingStore *store.BookingStore
	hub          *websocket.Hub
	events       events.Publisher
	notifier     bookingNotifier
	metrics      *metrics.Metrics
	now          func() time.Time
	logger       *slog.Logger
}

func NewBookingHandler(bs *store.BookingStore, hub *websocket.Hub, pub events.Publisher, n bookingNotifier, m *metrics.Metrics, logger *slog.Logger) *BookingHandler {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &BookingHandler{
		bookingStore: bs,
		hub:          hub,
		events:       pub,
		notifier:     n,
		metrics:      m,
		now:          time.Now,
		logger:       logger,
	}
}

// Options handles GET /api/bookings/options
func (h *BookingHandler) Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, booking.NewOptions(h.now()))
}

// Create handles POST /api/bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	if problems := booking.Validate(req, h.now()); len(problems) > 0 {
		writeProblems(w, problems)
		return
	}

	b, err := h.bookingStore.Create(model.Booking{
		Name:   req.Name,
		Phone:  req.Phone,
		Guests: req.Guests,
		Date:   req.Date,
		Time:   req.Time,
		Type:   model.BookingType(req.Type),
	})
	if err != nil {
		h.logger.Error("create booking", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	h.logger.Info("booking requested", "id", b.ID, "date", b.Date, "time", b.Time, "guests", b.Guests)
	h.metrics.BookingCreated(string(b.Type))
	if h.hub != nil {
		h.hub.PublishBooking(websocket.ActionCreated, b)
	}
	if err := h.events.Publish(r.Context(), events.Event{
		Type:   events.BookingCreated,
		ID:     b.ID,
		Status: string(b.Status),
		Guests: b.Guests,
		Date:   b.Date,
	}); err != nil {
		h.logger.Warn("publish booking event", "id", b.ID, "error", err)
	}
	if h.notifier != nil {
		h.notifier.BookingRequested(b)
	}
	writeJSON(w, http.StatusCreated, b)
}

// List handles GET /api/admin/bookings?status=
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	var status model.BookingStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := lifecycle.ParseBookingStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = st
	}

	bookings, err := h.bookingStore.List(status)
	if err != nil {
		h.logger.Error("list bookings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// UpdateStatus handles PUT /api/admin/bookings/{id}/status
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	to, err := lifecycle.ParseBookingStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := h.bookingStore.GetByID(id)
	if err != nil {
		h.logger.Error("get booking", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}
	if current == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	from := current.Status
	if err := lifecycle.CheckBooking(from, to); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	updated, err := h.bookingStore.UpdateStatus(id, from, to)
	if errors.Is(err, store.ErrStatusConflict) {
		writeError(w, http.StatusConflict, "booking status changed, reload and retry")
		return
	}
	if err != nil {
		h.logger.Error("update booking status", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}

	h.logger.Info("booking status changed", "id", id, "from", from, "to", to)
	h.metrics.BookingTransition(string(to))
	if h.hub != nil {
		h.hub.PublishBooking(websocket.ActionStatusChanged, updated)
	}
	if err := h.events.Publish(r.Context(), events.Event{
		Type:       events.BookingStatusChanged,
		ID:         id,
		Status:     string(to),
		FromStatus: string(from),
		Guests:     updated.Guests,
		Date:       updated.Date,
	}); err != nil {
		h.logger.Warn("publish booking event", "id", id, "error", err)
	}
	writeJSON(w, http.StatusOK, updated)
}
