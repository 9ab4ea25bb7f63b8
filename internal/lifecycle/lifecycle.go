// Package lifecycle defines the forward-only status machines for orders and
// bookings.
package lifecycle

import (
	"errors"
	"fmt"
	"slices"

	"github.com/johiruljahid/nsultan/internal/model"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownStatus     = errors.New("unknown status")
	ErrTerminal          = errors.New("status is terminal")
)

var orderSequence = []model.OrderStatus{
	model.OrderPending,
	model.OrderPreparing,
	model.OrderDelivered,
}

var bookingSequence = []model.BookingStatus{
	model.BookingPending,
	model.BookingConfirmed,
}

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (model.OrderStatus, error) {
	st := model.OrderStatus(s)
	if !slices.Contains(orderSequence, st) {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

func ParseBookingStatus(s string) (model.BookingStatus, error) {
	st := model.BookingStatus(s)
	if !slices.Contains(bookingSequence, st) {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// CheckOrder returns nil when to lies strictly after from. Skipping ahead is
// allowed; staying put or moving back is not.
func CheckOrder(from, to model.OrderStatus) error {
	return check(orderSequence, from, to)
}

func CheckBooking(from, to model.BookingStatus) error {
	return check(bookingSequence, from, to)
}

// NextOrder returns the status after from.
func NextOrder(from model.OrderStatus) (model.OrderStatus, error) {
	return next(orderSequence, from)
}

func NextBooking(from model.BookingStatus) (model.BookingStatus, error) {
	return next(bookingSequence, from)
}

// OrderActive reports whether an order still needs kitchen attention.
func OrderActive(s model.OrderStatus) bool {
	return s == model.OrderPending || s == model.OrderPreparing
}

// OrderStatuses returns the order sequence from initial to terminal.
func OrderStatuses() []model.OrderStatus {
	return slices.Clone(orderSequence)
}

func check[S ~string](seq []S, from, to S) error {
	fi := slices.Index(seq, from)
	if fi < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	ti := slices.Index(seq, to)
	if ti < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if ti <= fi {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

func next[S ~string](seq []S, from S) (S, error) {
	i := slices.Index(seq, from)
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if i == len(seq)-1 {
		return "", fmt.Errorf("%w: %s", ErrTerminal, from)
	}
	return seq[i+1], nil
}
