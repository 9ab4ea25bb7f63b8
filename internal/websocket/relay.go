package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

type envelope struct {
	Origin   string          `json:"origin"`
	Audience Audience        `json:"audience"`
	Payload  json.RawMessage `json:"payload"`
}

// Relay shares hub traffic between instances over a Redis pub/sub channel.
// Each instance skips the messages it published itself.
type Relay struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *Hub
	logger  *slog.Logger
}

func NewRelay(client *redis.Client, channel string, hub *Hub, logger *slog.Logger) *Relay {
	return &Relay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		hub:     hub,
		logger:  logger,
	}
}

// Forward publishes a locally broadcast message for the other instances.
func (r *Relay) Forward(audience Audience, data []byte) {
	body, err := json.Marshal(envelope{Origin: r.origin, Audience: audience, Payload: data})
	if err != nil {
		r.logger.Error("marshal relay envelope", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		r.logger.Warn("relay publish", "channel", r.channel, "error", err)
	}
}

// Start subscribes to the channel, installs the relay as the hub's forwarder
// and delivers remote messages until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.hub.SetForwarder(r)

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.deliver(msg.Payload)
			}
		}
	}()
	return nil
}

func (r *Relay) deliver(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.logger.Warn("relay decode", "error", err)
		return
	}
	if env.Origin == r.origin {
		return
	}
	r.hub.Deliver(env.Audience, env.Payload)
}
