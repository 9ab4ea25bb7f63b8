package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client represents a single WebSocket connection.
type Client struct {
	hub   *Hub
	conn  *ws.Conn
	send  chan outbound
	admin bool

	// seen holds the document versions the initial snapshot already carried.
	// It is written before the write pump starts and read only by it.
	seen map[string]int64
}

// NewClient creates a Client tied to the given hub and connection. Admin
// clients also receive admin-only messages.
func NewClient(hub *Hub, conn *ws.Conn, admin bool) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan outbound, sendBufferSize),
		admin: admin,
	}
}

// Run registers the client, writes the optional initial message, starts the
// write pump, and runs the read pump. It blocks until the connection is
// closed, then unregisters.
//
// The client is registered before initial is produced, so updates racing with
// the snapshot queue up behind it instead of being lost. Queued updates that
// are not newer than the versions initial reports are skipped.
func (c *Client) Run(ctx context.Context, initial func() ([]byte, map[string]int64, error)) error {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if initial != nil {
		data, versions, err := initial()
		if err != nil {
			return err
		}
		c.seen = versions
		if err := c.write(ctx, data); err != nil {
			return err
		}
	}

	go c.writePump(ctx)
	c.readPump(ctx)
	return nil
}

// readPump reads and discards all incoming messages. It returns on error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case out, ok := <-c.send:
			if !ok {
				// Hub closed the channel: connection is done
				return
			}
			if c.stale(out) {
				continue
			}
			if err := c.write(ctx, out.data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// stale reports whether out is a document update the snapshot already covered.
func (c *Client) stale(out outbound) bool {
	return out.version > 0 && out.version <= c.seen[out.key]
}

func (c *Client) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, data)
}
