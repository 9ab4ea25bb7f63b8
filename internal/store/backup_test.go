package store

import (
	"fmt"
	"testing"

	"github.com/johiruljahid/nsultan/internal/model"
)

func TestBackupCreateAndGet(t *testing.T) {
	bs := NewBackupStore(openTestDB(t))

	b, err := bs.Create("backups/nsultan-20260101T000000Z.db.enc")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if b.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if b.Status != model.BackupStatusPending {
		t.Errorf("status = %q, want %q", b.Status, model.BackupStatusPending)
	}

	got, err := bs.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get backup: %v", err)
	}
	if got == nil || got.Key != b.Key {
		t.Fatalf("got %+v, want key %q", got, b.Key)
	}
	if got.CompletedAt != nil {
		t.Error("pending backup should have no completed_at")
	}

	missing, err := bs.GetByID(999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing backup, got %+v", missing)
	}
}

func TestBackupStatusTransitions(t *testing.T) {
	bs := NewBackupStore(openTestDB(t))
	b, _ := bs.Create("backups/a.db.enc")

	if err := bs.UpdateStatus(b.ID, model.BackupStatusFailed, "upload refused"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ := bs.GetByID(b.ID)
	if got.Status != model.BackupStatusFailed || got.ErrorMessage != "upload refused" {
		t.Errorf("got status %q error %q", got.Status, got.ErrorMessage)
	}

	if err := bs.Complete(b.ID, 4096); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, _ = bs.GetByID(b.ID)
	if got.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.SizeBytes != 4096 {
		t.Errorf("size = %d, want 4096", got.SizeBytes)
	}
	if got.ErrorMessage != "" {
		t.Errorf("error message should be cleared, got %q", got.ErrorMessage)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at")
	}
}

func TestBackupExpiredKeepsNewest(t *testing.T) {
	bs := NewBackupStore(openTestDB(t))

	var ids []int64
	for i := 0; i < 4; i++ {
		b, err := bs.Create(fmt.Sprintf("backups/%d.db.enc", i))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		bs.Complete(b.ID, 10)
		ids = append(ids, b.ID)
	}
	failed, _ := bs.Create("backups/failed.db.enc")
	bs.UpdateStatus(failed.ID, model.BackupStatusFailed, "boom")

	expired, err := bs.Expired(2)
	if err != nil {
		t.Fatalf("expired: %v", err)
	}
	if len(expired) != 2 {
		t.Fatalf("expired = %d, want 2", len(expired))
	}
	for _, b := range expired {
		if b.ID != ids[0] && b.ID != ids[1] {
			t.Errorf("unexpected expired backup %d", b.ID)
		}
	}

	if err := bs.Delete(ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := bs.List(10)
	if len(list) != 4 {
		t.Errorf("list = %d, want 4", len(list))
	}
	if list[0].ID != failed.ID {
		t.Errorf("newest = %d, want %d", list[0].ID, failed.ID)
	}
}
