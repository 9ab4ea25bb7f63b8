package notify

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/johiruljahid/nsultan/internal/push"
	"github.com/stretchr/testify/assert"
)

type fakePush struct {
	mu       sync.Mutex
	payloads []push.Payload
}

func (f *fakePush) NotifyAdmins(p push.Payload) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return 1, nil
}

type fakeMailer struct {
	mu       sync.Mutex
	orders   []string
	bookings []string
	err      error
}

func (f *fakeMailer) SendOrderNotice(to string, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, to+":"+o.ID)
	return f.err
}

func (f *fakeMailer) SendBookingNotice(to string, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, to+":"+b.ID)
	return f.err
}

func TestDispatcherFansOut(t *testing.T) {
	p := &fakePush{}
	m := &fakeMailer{}
	d := NewDispatcher(slog.Default(), WithPush(p), WithEmail(m, "owner@nsultan.example"))

	d.OrderPlaced(&model.Order{ID: "ORD-1", CustomerName: "Karim", Total: 950, Items: make([]model.CartItem, 2)})
	d.BookingRequested(&model.Booking{ID: "BOK-1", Name: "Salma", Guests: "4"})
	d.Wait()

	assert.Len(t, p.payloads, 2)
	assert.Equal(t, []string{"owner@nsultan.example:ORD-1"}, m.orders)
	assert.Equal(t, []string{"owner@nsultan.example:BOK-1"}, m.bookings)

	tags := []string{p.payloads[0].Tag, p.payloads[1].Tag}
	assert.ElementsMatch(t, []string{"order-ORD-1", "booking-BOK-1"}, tags)
	kinds := []push.Kind{p.payloads[0].Kind, p.payloads[1].Kind}
	assert.ElementsMatch(t, []push.Kind{push.KindOrder, push.KindBooking}, kinds)
}

func TestDispatcherWithoutChannels(t *testing.T) {
	d := NewDispatcher(slog.Default())
	d.OrderPlaced(&model.Order{ID: "ORD-1"})
	d.Wait()
}

func TestDispatcherEmailNeedsRecipient(t *testing.T) {
	m := &fakeMailer{}
	d := NewDispatcher(slog.Default(), WithEmail(m, ""))
	d.OrderPlaced(&model.Order{ID: "ORD-1"})
	d.Wait()
	assert.Empty(t, m.orders)
}

func TestDispatcherSwallowsErrors(t *testing.T) {
	m := &fakeMailer{err: errors.New("postmark down")}
	d := NewDispatcher(slog.Default(), WithEmail(m, "owner@nsultan.example"))
	d.BookingRequested(&model.Booking{ID: "BOK-2"})
	d.Wait()
	assert.Len(t, m.bookings, 1)
}
