package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Audience selects which connected clients receive a message.
type Audience string

const (
	// AudienceAll reaches every client.
	AudienceAll Audience = "all"
	// AudienceAdmin reaches only clients with an admin session.
	AudienceAdmin Audience = "admin"
	// AudiencePublic reaches only clients without an admin session.
	AudiencePublic Audience = "public"
)

// maxTrackedVersions bounds the per-document version table. When full it is
// reset; a stale update can only slip through in the instant after a reset.
const maxTrackedVersions = 4096

// Message is a realtime sync notification. Data carries the changed document
// so clients can reconcile their local copy without refetching. Version is
// the document's store version; clients ignore a message whose version is not
// newer than the copy they hold.
type Message struct {
	Type    string `json:"type"`
	Entity  string `json:"entity"`
	Action  string `json:"action"`
	ID      string `json:"id,omitempty"`
	Version int64  `json:"version,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// DocumentKey identifies one versioned document across messages and snapshots.
func DocumentKey(entity, id string) string {
	return entity + ":" + id
}

// Versioned is implemented by snapshot states that carry document versions.
// Queued updates not newer than the snapshot are skipped for that client.
type Versioned interface {
	Versions() map[string]int64
}

type outbound struct {
	data    []byte
	key     string
	version int64
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action, id string, data any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Data:   data,
	}
}

// Forwarder receives every locally published message so it can be relayed
// to other instances.
type Forwarder interface {
	Forward(audience Audience, data []byte)
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	forwarder Forwarder
	logger    *slog.Logger

	// seqMu is held from the version check until a versioned message has been
	// handed to every client, so two updates to one document never interleave.
	seqMu    sync.Mutex
	versions map[string]int64
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		versions: make(map[string]int64),
		logger:   logger,
	}
}

// SetForwarder installs f to receive every message published on this hub.
func (h *Hub) SetForwarder(f Forwarder) {
	h.mu.Lock()
	h.forwarder = f
	h.mu.Unlock()
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	h.Publish(AudienceAll, msg)
}

// BroadcastAdmin sends a message to admin clients only.
func (h *Hub) BroadcastAdmin(msg Message) {
	h.Publish(AudienceAdmin, msg)
}

// Publish delivers msg to the local clients in audience and hands it to the
// forwarder, if any. A versioned message older than one already published for
// the same document and audience is dropped.
func (h *Hub) Publish(audience Audience, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "type", msg.Type, "error", err)
		return
	}
	out := outbound{data: data}
	if msg.Version > 0 {
		out.key = DocumentKey(msg.Entity, msg.ID)
		out.version = msg.Version
	}
	h.dispatch(audience, out, true)
}

// Deliver fans an encoded message out to local clients without forwarding it.
func (h *Hub) Deliver(audience Audience, data []byte) {
	out := outbound{data: data}
	var head struct {
		Entity  string `json:"entity"`
		ID      string `json:"id"`
		Version int64  `json:"version"`
	}
	if json.Unmarshal(data, &head) == nil && head.Version > 0 {
		out.key = DocumentKey(head.Entity, head.ID)
		out.version = head.Version
	}
	h.dispatch(audience, out, false)
}

func (h *Hub) dispatch(audience Audience, out outbound, forward bool) {
	if out.version > 0 {
		h.seqMu.Lock()
		defer h.seqMu.Unlock()
		if !h.advance(audience, out) {
			h.logger.Debug("drop stale update", "document", out.key, "version", out.version)
			return
		}
	}

	h.mu.RLock()
	for c := range h.clients {
		if !audience.includes(c.admin) {
			continue
		}
		select {
		case c.send <- out:
		default:
			// Client buffer full: drop message to avoid blocking
		}
	}
	f := h.forwarder
	h.mu.RUnlock()

	if forward && f != nil {
		f.Forward(audience, out.data)
	}
}

// advance records out as the latest version for its document and audience.
// It reports false when an equal or newer version was already sent. Callers
// hold seqMu.
func (h *Hub) advance(audience Audience, out outbound) bool {
	key := string(audience) + "|" + out.key
	if h.versions[key] >= out.version {
		return false
	}
	if len(h.versions) >= maxTrackedVersions {
		clear(h.versions)
	}
	h.versions[key] = out.version
	return true
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (a Audience) includes(admin bool) bool {
	switch a {
	case AudienceAdmin:
		return admin
	case AudiencePublic:
		return !admin
	default:
		return true
	}
}
