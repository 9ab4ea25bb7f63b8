package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	ws "github.com/coder/websocket"
)

// SnapshotFunc returns the full state a freshly connected client starts from.
type SnapshotFunc func(ctx context.Context, admin bool) (any, error)

type HandlerOptions struct {
	// IsAdmin reports whether the upgrading request carries an admin session.
	IsAdmin func(*http.Request) bool
	// Snapshot, when set, is sent as the first message on every connection.
	Snapshot SnapshotFunc
	// OriginHosts restricts browser origins. Empty allows any origin.
	OriginHosts []string
	Logger      *slog.Logger
}

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients.
func HandleWebSocket(hub *Hub, opts HandlerOptions) http.HandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		admin := opts.IsAdmin != nil && opts.IsAdmin(r)

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns:     opts.OriginHosts,
			InsecureSkipVerify: len(opts.OriginHosts) == 0,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		var initial func() ([]byte, map[string]int64, error)
		if opts.Snapshot != nil {
			initial = func() ([]byte, map[string]int64, error) {
				state, err := opts.Snapshot(r.Context(), admin)
				if err != nil {
					return nil, nil, err
				}
				var versions map[string]int64
				if v, ok := state.(Versioned); ok {
					versions = v.Versions()
				}
				data, err := json.Marshal(Message{Type: "snapshot", Entity: "snapshot", Action: "full", Data: state})
				return data, versions, err
			}
		}

		client := NewClient(hub, conn, admin)
		if err := client.Run(r.Context(), initial); err != nil {
			logger.Error("websocket snapshot", "error", err)
			conn.Close(ws.StatusInternalError, "snapshot failed")
		}
	}
}

// OriginHosts converts configured origins like https://example.com into the
// host patterns the upgrader matches against.
func OriginHosts(origins []string) []string {
	var hosts []string
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			hosts = append(hosts, o)
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
