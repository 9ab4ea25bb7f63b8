package websocket

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRelayDeliversAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newInstance := func() (*Hub, *Client) {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		hub := NewHub(slog.Default())
		if err := NewRelay(rdb, "nsultan:test", hub, slog.Default()).Start(ctx); err != nil {
			t.Fatalf("start relay: %v", err)
		}
		admin := mockClient(hub, true)
		hub.Register(admin)
		return hub, admin
	}

	hubA, adminA := newInstance()
	_, adminB := newInstance()

	hubA.BroadcastAdmin(NewMessage("order", "created", "ORD-42", nil))

	if got := receive(t, adminA); got.ID != "ORD-42" {
		t.Errorf("local admin got %+v", got)
	}
	if got := receive(t, adminB); got.ID != "ORD-42" {
		t.Errorf("remote admin got %+v", got)
	}
	// The origin instance must not receive its own message a second time.
	expectNone(t, adminA)
}

func TestRelayKeepsAudience(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdbA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rdbB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdbA.Close()
	defer rdbB.Close()

	hubA := NewHub(slog.Default())
	hubB := NewHub(slog.Default())
	if err := NewRelay(rdbA, "ch", hubA, slog.Default()).Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := NewRelay(rdbB, "ch", hubB, slog.Default()).Start(ctx); err != nil {
		t.Fatal(err)
	}

	guestB := mockClient(hubB, false)
	adminB := mockClient(hubB, true)
	hubB.Register(guestB)
	hubB.Register(adminB)

	hubA.BroadcastAdmin(NewMessage("booking", "created", "BOK-1", nil))

	if got := receive(t, adminB); got.ID != "BOK-1" {
		t.Errorf("admin got %+v", got)
	}
	expectNone(t, guestB)
}
