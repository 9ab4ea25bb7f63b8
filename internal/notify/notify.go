// Package notify alerts the restaurant about new orders and bookings over
// every configured channel. Delivery is asynchronous and failures are only
// logged.
package notify

import (
	"log/slog"
	"sync"

	"github.com/johiruljahid/nsultan/internal/metrics"
	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/johiruljahid/nsultan/internal/push"
)

type pushNotifier interface {
	NotifyAdmins(payload push.Payload) (int, error)
}

type mailer interface {
	SendOrderNotice(to string, o *model.Order) error
	SendBookingNotice(to string, b *model.Booking) error
}

type Dispatcher struct {
	push     pushNotifier
	mail     mailer
	notifyTo string
	metrics  *metrics.Metrics
	logger   *slog.Logger
	wg       sync.WaitGroup
}

type Option func(*Dispatcher)

// WithPush enables web push to registered admin devices.
func WithPush(n pushNotifier) Option {
	return func(d *Dispatcher) { d.push = n }
}

// WithEmail enables email notices sent to the given address.
func WithEmail(m mailer, to string) Option {
	return func(d *Dispatcher) {
		d.mail = m
		d.notifyTo = to
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) OrderPlaced(o *model.Order) {
	d.dispatch(push.OrderPayload(o), func(m mailer) error { return m.SendOrderNotice(d.notifyTo, o) })
}

func (d *Dispatcher) BookingRequested(b *model.Booking) {
	d.dispatch(push.BookingPayload(b), func(m mailer) error { return m.SendBookingNotice(d.notifyTo, b) })
}

// Wait blocks until in-flight notifications finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(payload push.Payload, sendMail func(mailer) error) {
	if d.push != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			n, err := d.push.NotifyAdmins(payload)
			d.metrics.Notification("push", err)
			if err != nil {
				d.logger.Warn("push notification", "tag", payload.Tag, "delivered", n, "error", err)
			}
		}()
	}
	if d.mail != nil && d.notifyTo != "" {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			err := sendMail(d.mail)
			d.metrics.Notification("email", err)
			if err != nil {
				d.logger.Warn("email notification", "tag", payload.Tag, "error", err)
			}
		}()
	}
}
