package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/johiruljahid/nsultan/internal/auth"
	"github.com/johiruljahid/nsultan/internal/store"
)

// SessionCookieName is the admin session cookie.
const SessionCookieName = "nsultan_session"

// Authenticate resolves the session cookie on r to an admin context. It
// reports false when the cookie is missing, unknown or expired.
func Authenticate(r *http.Request, sessionStore *store.SessionStore, adminStore *store.AdminStore) (auth.AdminContext, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return auth.AdminContext{}, false
	}

	sess, err := sessionStore.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		return auth.AdminContext{}, false
	}

	admin, err := adminStore.GetByID(sess.AdminID)
	if err != nil || admin == nil {
		return auth.AdminContext{}, false
	}

	return auth.AdminContext{
		AdminID:   admin.ID,
		Username:  admin.Username,
		SessionID: sess.ID,
	}, true
}

// RequireAdmin validates the session cookie and populates AdminContext.
// Unauthenticated requests get a 401 JSON error.
func RequireAdmin(sessionStore *store.SessionStore, adminStore *store.AdminStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := Authenticate(r, sessionStore, adminStore)
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAdmin(r.Context(), ac)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
