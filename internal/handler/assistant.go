package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/johiruljahid/nsultan/internal/assistant"
	"github.com/johiruljahid/nsultan/internal/checkout"
	"github.com/johiruljahid/nsultan/internal/receipt"
)

type AssistantHandler struct {
	assistant *assistant.Assistant
	receipts  receipt.Generator
	logger    *slog.Logger
}

func NewAssistantHandler(a *assistant.Assistant, receipts receipt.Generator, logger *slog.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: a, receipts: receipts, logger: logger}
}

// Greeting handles GET /api/assistant: the opening message of a new chat.
func (h *AssistantHandler) Greeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, assistant.Message{
		Role: assistant.RoleModel,
		Text: assistant.Greeting,
		Type: assistant.TypeText,
	})
}

// Chat handles POST /api/assistant/chat. Model failures still answer 200
// with the apology and error set.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		History []assistant.Message `json:"history"`
		Message string              `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	writeJSON(w, http.StatusOK, h.assistant.Reply(r.Context(), req.History, req.Message))
}

// Quote handles POST /api/assistant/quote: the payment card for one dish.
func (h *AssistantHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"item_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.assistant.Preview(req.ItemID)
	if ve, ok := checkout.IsValidation(err); ok {
		writeProblems(w, ve.Problems)
		return
	}
	if err != nil {
		h.logger.Error("assistant quote", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to price item")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// Order handles POST /api/assistant/orders
func (h *AssistantHandler) Order(w http.ResponseWriter, r *http.Request) {
	var req assistant.OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, msg, err := h.assistant.Confirm(r.Context(), req)
	if ve, ok := checkout.IsValidation(err); ok {
		writeProblems(w, ve.Problems)
		return
	}
	if err != nil {
		h.logger.Error("assistant order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to place order")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"order":        order,
		"message":      msg,
		"tracking_url": h.receipts.TrackingURL(order.ID),
	})
}
