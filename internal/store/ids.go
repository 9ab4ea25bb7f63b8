package store

import (
	"strings"

	"github.com/google/uuid"
)

const (
	orderIDPrefix   = "ORD-"
	bookingIDPrefix = "BOK-"
)

// NewOrderID returns a short human-readable order id such as ORD-3F9A1C2B.
func NewOrderID() string {
	return orderIDPrefix + shortID()
}

func NewBookingID() string {
	return bookingIDPrefix + shortID()
}

func shortID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
