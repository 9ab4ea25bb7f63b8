package email

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/johiruljahid/nsultan/internal/model"
)

// rewriteTransport sends every request to target instead of the Postmark API.
type rewriteTransport struct {
	base   http.RoundTripper
	target string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u, _ := url.Parse(t.target)
	req = req.Clone(req.Context())
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	return t.base.RoundTrip(req)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-token", "orders@nsultan.example", "https://nsultan.example/",
		WithHTTPClient(&http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}))
}

func TestSendOrderNotice(t *testing.T) {
	var received postmarkEmail
	var gotToken, gotPath string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"MessageID": "test-id"}`))
	})

	order := &model.Order{
		ID:           "ORD-1A2B",
		CustomerName: "Karim <b>",
		Phone:        "01711111111",
		Address:      "Dhanmondi",
		Items:        []model.CartItem{{NameEn: "Kacchi Biryani", Price: 450, Quantity: 2}},
		DeliveryFee:  50,
		Total:        950,
		TrxID:        "8N7A6B5C",
	}
	if err := client.SendOrderNotice("owner@nsultan.example", order); err != nil {
		t.Fatalf("send order notice: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if gotPath != "/email" {
		t.Errorf("path = %q, want /email", gotPath)
	}
	if received.From != "orders@nsultan.example" || received.To != "owner@nsultan.example" {
		t.Errorf("From/To = %q/%q", received.From, received.To)
	}
	if received.Subject != "New order ORD-1A2B: ৳950" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if !strings.Contains(received.TextBody, "2 × Kacchi Biryani (৳900)") {
		t.Errorf("TextBody missing line item: %q", received.TextBody)
	}
	if !strings.Contains(received.TextBody, "https://nsultan.example/admin/orders") {
		t.Errorf("TextBody missing admin link: %q", received.TextBody)
	}
	if strings.Contains(received.HtmlBody, "<b>") {
		t.Errorf("HtmlBody not escaped: %q", received.HtmlBody)
	}
}

func TestSendBookingNotice(t *testing.T) {
	var received postmarkEmail
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
	})

	err := client.SendBookingNotice("owner@nsultan.example", &model.Booking{
		ID: "BOK-9", Name: "Salma", Phone: "018", Guests: "20+", Date: "2026-11-02", Time: "07:00 PM", Type: model.BookingParty,
	})
	if err != nil {
		t.Fatalf("send booking notice: %v", err)
	}
	if received.Subject != "New party booking for 20+ guests on 2026-11-02" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if received.Tag != "booking" {
		t.Errorf("Tag = %q", received.Tag)
	}
}

func TestSendAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	err := client.SendBookingNotice("owner@nsultan.example", &model.Booking{ID: "BOK-1"})
	if err == nil || !strings.Contains(err.Error(), "status 422") {
		t.Errorf("err = %v, want status 422", err)
	}
}

func TestSendNotConfigured(t *testing.T) {
	client := NewClient("", "orders@nsultan.example", "https://nsultan.example")
	err := client.SendOrderNotice("owner@nsultan.example", &model.Order{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
