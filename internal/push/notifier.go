package push

import (
	"errors"
	"log/slog"

	"github.com/johiruljahid/nsultan/internal/model"
)

type sender interface {
	Send(sub *model.PushSubscription, payload Payload) error
}

type subscriptionStore interface {
	ListAll() ([]model.PushSubscription, error)
	DeleteByEndpoint(endpoint string) error
}

// Notifier fans a payload out to every registered admin device, pruning
// subscriptions the push service reports as gone.
type Notifier struct {
	sender sender
	subs   subscriptionStore
	logger *slog.Logger
}

func NewNotifier(svc sender, subs subscriptionStore, logger *slog.Logger) *Notifier {
	return &Notifier{sender: svc, subs: subs, logger: logger}
}

// NotifyAdmins returns the number of devices reached and the first delivery
// error, if any. Expired subscriptions are removed and not counted as errors.
func (n *Notifier) NotifyAdmins(payload Payload) (int, error) {
	subs, err := n.subs.ListAll()
	if err != nil {
		return 0, err
	}

	sent := 0
	var firstErr error
	for _, sub := range subs {
		err := n.sender.Send(&sub, payload)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrExpired):
			if err := n.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
				n.logger.Error("prune push subscription", "id", sub.ID, "error", err)
			} else {
				n.logger.Info("pruned expired push subscription", "id", sub.ID, "device", sub.DeviceName)
			}
		default:
			n.logger.Warn("push send", "id", sub.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return sent, firstErr
}
