package backup

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	plaintext := []byte("SQLite format 3\x00 orders and bookings")

	sealed, err := Seal(plaintext, "tandoor-night")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("orders and bookings")) {
		t.Error("sealed output contains plaintext")
	}

	got, err := Open(sealed, "tandoor-night")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("got %q, want %q", got, plaintext)
	}
}

func TestSealUsesFreshSalt(t *testing.T) {
	a, _ := Seal([]byte("same"), "pass")
	b, _ := Seal([]byte("same"), "pass")
	if bytes.Equal(a, b) {
		t.Error("two seals of the same input should differ")
	}
}

func TestSealEmptyInput(t *testing.T) {
	sealed, err := Seal(nil, "pass")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	got, err := Open(sealed, "pass")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d bytes, want 0", len(got))
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	sealed, _ := Seal([]byte("secret"), "right")
	if _, err := Open(sealed, "wrong"); !errors.Is(err, ErrBadPassphrase) {
		t.Errorf("err = %v, want ErrBadPassphrase", err)
	}
}

func TestOpenTampered(t *testing.T) {
	sealed, _ := Seal([]byte("secret payload"), "pass")
	sealed[len(sealed)-1] ^= 0xff
	if _, err := Open(sealed, "pass"); !errors.Is(err, ErrBadPassphrase) {
		t.Errorf("err = %v, want ErrBadPassphrase", err)
	}
}

func TestOpenRejectsForeignData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("NSB1")},
		{"wrong magic", bytes.Repeat([]byte{'x'}, 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.data, "pass"); !errors.Is(err, ErrNotBackup) {
				t.Errorf("err = %v, want ErrNotBackup", err)
			}
		})
	}
}
