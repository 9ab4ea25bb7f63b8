// Package checkout turns a cart into a pending order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/johiruljahid/nsultan/internal/cart"
	"github.com/johiruljahid/nsultan/internal/events"
	"github.com/johiruljahid/nsultan/internal/metrics"
	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/johiruljahid/nsultan/internal/websocket"
)

// ValidationError lists every problem found with a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid order: " + strings.Join(e.Problems, "; ")
}

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

type menuReader interface {
	GetByID(id string) (*model.FoodItem, error)
}

type orderCreator interface {
	Create(o model.Order) (*model.Order, error)
}

type broadcaster interface {
	PublishOrder(action string, o *model.Order)
}

type notifier interface {
	OrderPlaced(o *model.Order)
}

// Line is one requested item. Only the id and quantity are trusted; names
// and prices come from the live menu.
type Line struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type Request struct {
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	TrxID        string `json:"trx_id"`
	Items        []Line `json:"items"`
}

// Quote is a priced preview of an order.
type Quote struct {
	Items         []model.CartItem `json:"items"`
	Subtotal      int64            `json:"subtotal"`
	DeliveryFee   int64            `json:"delivery_fee"`
	Total         int64            `json:"total"`
	PaymentMethod string           `json:"payment_method"`
	PaymentNumber string           `json:"payment_number"`
}

type Config struct {
	DeliveryFee   int64
	MinTrxLength  int
	PaymentMethod string
	PaymentNumber string
}

type Service struct {
	cfg      Config
	menu     menuReader
	orders   orderCreator
	hub      broadcaster
	events   events.Publisher
	notifier notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(cfg Config, menu menuReader, orders orderCreator, hub broadcaster, pub events.Publisher, n notifier, m *metrics.Metrics, logger *slog.Logger) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Service{
		cfg:      cfg,
		menu:     menu,
		orders:   orders,
		hub:      hub,
		events:   pub,
		notifier: n,
		metrics:  m,
		logger:   logger,
	}
}

func (s *Service) Config() Config {
	return s.cfg
}

// Quote prices lines against the live menu. Repeated item ids are merged.
func (s *Service) Quote(lines []Line) (*Quote, error) {
	items, problems, err := s.resolve(lines)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return s.quote(items), nil
}

func (s *Service) quote(items []model.CartItem) *Quote {
	subtotal := cart.Subtotal(items)
	return &Quote{
		Items:         items,
		Subtotal:      subtotal,
		DeliveryFee:   s.cfg.DeliveryFee,
		Total:         subtotal + s.cfg.DeliveryFee,
		PaymentMethod: s.cfg.PaymentMethod,
		PaymentNumber: s.cfg.PaymentNumber,
	}
}

// PlaceOrder validates req, snapshots prices, stores a pending order and
// announces it. The total is fixed here: Σ price × quantity + delivery fee.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*model.Order, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	req.TrxID = strings.TrimSpace(req.TrxID)

	var problems []string
	if req.CustomerName == "" {
		problems = append(problems, "customer_name is required")
	}
	if req.Phone == "" {
		problems = append(problems, "phone is required")
	}
	if req.Address == "" {
		problems = append(problems, "address is required")
	}
	if utf8.RuneCountInString(req.TrxID) < s.cfg.MinTrxLength {
		problems = append(problems, fmt.Sprintf("trx_id must be at least %d characters", s.cfg.MinTrxLength))
	}

	items, itemProblems, err := s.resolve(req.Items)
	if err != nil {
		return nil, err
	}
	problems = append(problems, itemProblems...)
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	q := s.quote(items)
	order, err := s.orders.Create(model.Order{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Address:      req.Address,
		Items:        items,
		Total:        q.Total,
		DeliveryFee:  q.DeliveryFee,
		TrxID:        req.TrxID,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order placed", "id", order.ID, "total", order.Total, "items", len(order.Items))
	s.metrics.OrderCreated(order.Total)
	if s.hub != nil {
		s.hub.PublishOrder(websocket.ActionCreated, order)
	}
	if err := s.events.Publish(ctx, events.Event{
		Type:      events.OrderCreated,
		ID:        order.ID,
		Status:    string(order.Status),
		Total:     order.Total,
		ItemCount: len(order.Items),
	}); err != nil {
		s.logger.Warn("publish order event", "id", order.ID, "error", err)
	}
	if s.notifier != nil {
		s.notifier.OrderPlaced(order)
	}
	return order, nil
}

// resolve looks up every line on the menu. Unknown ids and bad quantities
// are reported as problems; store failures as an error.
func (s *Service) resolve(lines []Line) ([]model.CartItem, []string, error) {
	if len(lines) == 0 {
		return nil, []string{"at least one item is required"}, nil
	}

	var c cart.Cart
	var problems []string
	for _, line := range lines {
		if line.Quantity < 1 {
			problems = append(problems, fmt.Sprintf("quantity for item %q must be at least 1", line.ItemID))
			continue
		}
		if line.Quantity > cart.MaxQuantity-c.Quantity(line.ItemID) {
			problems = append(problems, fmt.Sprintf("quantity for item %q must be at most %d", line.ItemID, cart.MaxQuantity))
			continue
		}
		item, err := s.menu.GetByID(line.ItemID)
		if err != nil {
			return nil, nil, fmt.Errorf("get menu item: %w", err)
		}
		if item == nil {
			problems = append(problems, fmt.Sprintf("unknown item %q", line.ItemID))
			continue
		}
		c.Add(*item)
		c.UpdateQuantity(item.ID, line.Quantity-1)
	}
	return c.Items(), problems, nil
}
