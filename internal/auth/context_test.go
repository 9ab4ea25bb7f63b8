package auth

import (
	"context"
	"testing"
)

func TestWithAdminAndFromContext(t *testing.T) {
	ac := AdminContext{
		AdminID:   1,
		Username:  "owner",
		SessionID: 3,
	}

	ctx := WithAdmin(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AdminContext in context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
	if AdminID(ctx) != 1 {
		t.Errorf("AdminID = %d, want 1", AdminID(ctx))
	}
	if !IsAdmin(ctx) {
		t.Error("IsAdmin = false, want true")
	}
}

func TestFromContextMissing(t *testing.T) {
	ctx := context.Background()
	if _, ok := FromContext(ctx); ok {
		t.Error("expected no AdminContext")
	}
	if AdminID(ctx) != 0 {
		t.Errorf("AdminID = %d, want 0", AdminID(ctx))
	}
	if IsAdmin(ctx) {
		t.Error("IsAdmin = true, want false")
	}
}
