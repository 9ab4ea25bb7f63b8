package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/johiruljahid/nsultan/internal/model"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrExpired is returned when a push subscription is no longer valid (404/410).
var ErrExpired = errors.New("push subscription expired")

// Kind says what a notification is about and sets how long the push service
// keeps it for an offline device.
type Kind string

const (
	KindOrder   Kind = "order"
	KindBooking Kind = "booking"
)

// A new order is only worth showing while the kitchen can still act on it.
// Booking requests stay relevant until someone confirms them.
const (
	orderTTL   = 30 * time.Minute
	bookingTTL = 24 * time.Hour
	defaultTTL = 12 * time.Hour

	// maxTopicLen is the push protocol's limit on the Topic header.
	maxTopicLen = 32
)

// Payload is the JSON sent to the push service. Tag also becomes the push
// topic, so a newer notification for the same document replaces an
// undelivered older one.
type Payload struct {
	Kind  Kind   `json:"kind,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// OrderPayload announces a newly placed order to the admin devices.
func OrderPayload(o *model.Order) Payload {
	return Payload{
		Kind:  KindOrder,
		Title: "নতুন অর্ডার " + o.ID,
		Body:  fmt.Sprintf("%s, ৳%d, %d item(s)", o.CustomerName, o.Total, len(o.Items)),
		URL:   "/admin/orders",
		Tag:   "order-" + o.ID,
	}
}

// BookingPayload announces a booking request to the admin devices.
func BookingPayload(b *model.Booking) Payload {
	return Payload{
		Kind:  KindBooking,
		Title: "নতুন বুকিং " + b.ID,
		Body:  fmt.Sprintf("%s, %s guests, %s %s", b.Name, b.Guests, b.Date, b.Time),
		URL:   "/admin/bookings",
		Tag:   "booking-" + b.ID,
	}
}

// delivery returns the TTL in seconds and the urgency for a kind.
func delivery(k Kind) (int, webpush.Urgency) {
	switch k {
	case KindOrder:
		return int(orderTTL.Seconds()), webpush.UrgencyHigh
	case KindBooking:
		return int(bookingTTL.Seconds()), webpush.UrgencyNormal
	default:
		return int(defaultTTL.Seconds()), webpush.UrgencyNormal
	}
}

// topic turns a tag into a valid Topic header: URL-safe base64 characters
// only, at most 32 of them.
func topic(tag string) string {
	t := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, tag)
	if len(t) > maxTopicLen {
		t = t[:maxTopicLen]
	}
	return t
}

// Service handles sending web push notifications.
type Service struct {
	publicKey  string
	privateKey string
	subscriber string
	httpClient *http.Client
}

type Option func(*Service)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.httpClient = c
	}
}

// NewService creates a push service with VAPID keys. subscriber is the
// contact URL (mailto: or https:) push services may use to reach the sender.
func NewService(publicKey, privateKey, subscriber string, opts ...Option) *Service {
	s := &Service{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send sends a push notification to a subscription. The payload's kind picks
// the TTL and urgency.
func (s *Service) Send(sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	ttl, urgency := delivery(payload.Kind)

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		HTTPClient:      s.httpClient,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      s.subscriber,
		TTL:             ttl,
		Urgency:         urgency,
		Topic:           topic(payload.Tag),
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.FillBytes(make([]byte, 32)))

	return publicKey, privateKey, nil
}
