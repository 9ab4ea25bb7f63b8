package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/johiruljahid/nsultan/internal/auth"
	"github.com/johiruljahid/nsultan/internal/middleware"
	"github.com/johiruljahid/nsultan/internal/store"
)

// AuthHandler runs the admin login flow and the back-office dashboard.
type AuthHandler struct {
	adminStore   *store.AdminStore
	sessionStore *store.SessionStore
	statsStore   *store.StatsStore
	sessionTTL   time.Duration
	secure       bool
	logger       *slog.Logger
}

func NewAuthHandler(as *store.AdminStore, ss *store.SessionStore, st *store.StatsStore, sessionTTL time.Duration, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		adminStore:   as,
		sessionStore: ss,
		statsStore:   st,
		sessionTTL:   sessionTTL,
		secure:       secureCookies,
		logger:       logger,
	}
}

// Login handles POST /api/admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	admin, err := h.adminStore.Authenticate(req.Username, req.Password)
	if err != nil {
		h.logger.Error("authenticate admin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if admin == nil {
		h.logger.Warn("admin login failed", "username", req.Username, "remote", middleware.RealIP(r))
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	sess, err := h.sessionStore.Create(admin.ID, h.sessionTTL)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure || r.TLS != nil,
	})

	h.logger.Info("admin signed in", "admin_id", admin.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"admin":      admin,
		"expires_at": sess.ExpiresAt,
	})
}

// Logout handles POST /api/admin/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/admin/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       ac.AdminID,
		"username": ac.Username,
	})
}

// Stats handles GET /api/admin/stats
func (h *AuthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsStore.Dashboard()
	if err != nil {
		h.logger.Error("dashboard stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
