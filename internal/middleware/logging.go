package middleware

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// responseLog captures what the handler sent.
type responseLog struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (l *responseLog) WriteHeader(code int) {
	l.status = code
	l.ResponseWriter.WriteHeader(code)
}

func (l *responseLog) Write(p []byte) (int, error) {
	n, err := l.ResponseWriter.Write(p)
	l.bytes += n
	return n, err
}

func (l *responseLog) Unwrap() http.ResponseWriter {
	return l.ResponseWriter
}

// Hijack lets WebSocket upgrades pass through the logger.
func (l *responseLog) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := l.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	l.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// pollPaths are polled by infrastructure and only logged at debug.
var pollPaths = map[string]bool{"/health": true, "/metrics": true}

// RequestLogger logs one line per request. Server errors log at error,
// client errors at warn, the rest at info.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			resp := &responseLog{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(resp, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", resp.status),
				slog.Int("bytes", resp.bytes),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote", RealIP(r)),
			}
			if r.Pattern != "" {
				attrs = append(attrs, slog.String("route", r.Pattern))
			}

			level := slog.LevelInfo
			switch {
			case resp.status >= 500:
				level = slog.LevelError
			case resp.status >= 400:
				level = slog.LevelWarn
			case pollPaths[r.URL.Path]:
				level = slog.LevelDebug
			}
			logger.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}
