package handler

import (
	"log/slog"
	"net/http"

	"github.com/johiruljahid/nsultan/internal/cart"
	"github.com/johiruljahid/nsultan/internal/checkout"
	"github.com/johiruljahid/nsultan/internal/receipt"
)

type CheckoutHandler struct {
	service  *checkout.Service
	registry *cart.Registry
	receipts receipt.Generator
	logger   *slog.Logger
}

func NewCheckoutHandler(svc *checkout.Service, reg *cart.Registry, receipts receipt.Generator, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, registry: reg, receipts: receipts, logger: logger}
}

// PlaceOrder handles POST /api/checkout. Without explicit items the caller's
// cart is ordered and then emptied.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	token, _ := cartToken(w, r, false, false)
	fromCart := len(req.Items) == 0 && token != ""
	if fromCart {
		req.Items = h.cartLines(token)
	}

	order, err := h.service.PlaceOrder(r.Context(), req)
	if ve, ok := checkout.IsValidation(err); ok {
		writeProblems(w, ve.Problems)
		return
	}
	if err != nil {
		h.logger.Error("place order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to place order")
		return
	}
	if fromCart {
		h.registry.Delete(token)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"order":        order,
		"tracking_url": h.receipts.TrackingURL(order.ID),
	})
}

// Quote handles POST /api/checkout/quote: prices items (or the cart) with the
// delivery fee and payment details, without placing anything.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []checkout.Line `json:"items"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		if token, _ := cartToken(w, r, false, false); token != "" {
			req.Items = h.cartLines(token)
		}
	}

	q, err := h.service.Quote(req.Items)
	if ve, ok := checkout.IsValidation(err); ok {
		writeProblems(w, ve.Problems)
		return
	}
	if err != nil {
		h.logger.Error("quote order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to price order")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *CheckoutHandler) cartLines(token string) []checkout.Line {
	var lines []checkout.Line
	for _, it := range h.registry.Get(token).Items {
		lines = append(lines, checkout.Line{ItemID: it.ItemID, Quantity: it.Quantity})
	}
	return lines
}
