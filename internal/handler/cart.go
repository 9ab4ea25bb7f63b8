package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/johiruljahid/nsultan/internal/cart"
	"github.com/johiruljahid/nsultan/internal/store"
)

const (
	cartCookieName = "nsultan_cart"
	cartCookieTTL  = 7 * 24 * time.Hour
)

// CartHandler keeps one server-side cart per browser, found by cookie.
type CartHandler struct {
	registry  *cart.Registry
	menuStore *store.MenuStore
	secure    bool
	logger    *slog.Logger
}

func NewCartHandler(reg *cart.Registry, ms *store.MenuStore, secureCookies bool, logger *slog.Logger) *CartHandler {
	return &CartHandler{registry: reg, menuStore: ms, secure: secureCookies, logger: logger}
}

// cartToken returns the caller's cart token. With create set, a missing
// token is minted and sent back as a cookie.
func cartToken(w http.ResponseWriter, r *http.Request, create, secure bool) (string, error) {
	if c, err := r.Cookie(cartCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	if !create {
		return "", nil
	}
	token, err := cart.NewToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cartCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	token, _ := cartToken(w, r, false, h.secure)
	writeJSON(w, http.StatusOK, h.registry.Get(token))
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"item_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	item, err := h.menuStore.GetByID(req.ItemID)
	if err != nil {
		h.logger.Error("get menu item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}

	token, err := cartToken(w, r, true, h.secure)
	if err != nil {
		h.logger.Error("create cart token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	summary := h.registry.Update(token, func(c *cart.Cart) { c.Add(*item) })
	summary.Open = true
	writeJSON(w, http.StatusOK, summary)
}

// UpdateItem handles PATCH /api/cart/items/{id} with a quantity delta.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, func(c *cart.Cart) bool { return c.UpdateQuantity(r.PathValue("id"), req.Delta) })
}

// RemoveItem handles DELETE /api/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(c *cart.Cart) bool { return c.Remove(r.PathValue("id")) })
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	token, _ := cartToken(w, r, false, h.secure)
	if token != "" {
		h.registry.Delete(token)
	}
	writeJSON(w, http.StatusOK, h.registry.Get(""))
}

func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(*cart.Cart) bool) {
	token, _ := cartToken(w, r, false, h.secure)
	if token == "" {
		writeError(w, http.StatusNotFound, "item not in cart")
		return
	}
	found := false
	summary := h.registry.Update(token, func(c *cart.Cart) { found = fn(c) })
	if !found {
		writeError(w, http.StatusNotFound, "item not in cart")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
