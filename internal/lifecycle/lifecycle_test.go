package lifecycle

import (
	"testing"

	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckOrder(t *testing.T) {
	tests := []struct {
		from, to model.OrderStatus
		ok       bool
	}{
		{model.OrderPending, model.OrderPreparing, true},
		{model.OrderPreparing, model.OrderDelivered, true},
		{model.OrderPending, model.OrderDelivered, true},
		{model.OrderPending, model.OrderPending, false},
		{model.OrderPreparing, model.OrderPending, false},
		{model.OrderDelivered, model.OrderPreparing, false},
		{model.OrderDelivered, model.OrderDelivered, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CheckOrder(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestCheckOrderUnknown(t *testing.T) {
	assert.ErrorIs(t, CheckOrder("cancelled", model.OrderDelivered), ErrUnknownStatus)
	assert.ErrorIs(t, CheckOrder(model.OrderPending, "shipped"), ErrUnknownStatus)
}

func TestNextOrderWalksSequence(t *testing.T) {
	var seen []model.OrderStatus
	st := model.OrderPending
	for {
		seen = append(seen, st)
		nxt, err := NextOrder(st)
		if err != nil {
			assert.ErrorIs(t, err, ErrTerminal)
			break
		}
		require.NoError(t, CheckOrder(st, nxt))
		st = nxt
	}
	assert.Equal(t, OrderStatuses(), seen)
}

func TestBookingLifecycle(t *testing.T) {
	assert.NoError(t, CheckBooking(model.BookingPending, model.BookingConfirmed))
	assert.ErrorIs(t, CheckBooking(model.BookingConfirmed, model.BookingPending), ErrInvalidTransition)
	assert.ErrorIs(t, CheckBooking(model.BookingConfirmed, model.BookingConfirmed), ErrInvalidTransition)

	nxt, err := NextBooking(model.BookingPending)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, nxt)

	_, err = NextBooking(model.BookingConfirmed)
	assert.ErrorIs(t, err, ErrTerminal)
}

func TestParse(t *testing.T) {
	st, err := ParseOrderStatus("preparing")
	require.NoError(t, err)
	assert.Equal(t, model.OrderPreparing, st)

	_, err = ParseOrderStatus("PREPARING")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	bs, err := ParseBookingStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, bs)

	_, err = ParseBookingStatus("denied")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestOrderActive(t *testing.T) {
	assert.True(t, OrderActive(model.OrderPending))
	assert.True(t, OrderActive(model.OrderPreparing))
	assert.False(t, OrderActive(model.OrderDelivered))
}
