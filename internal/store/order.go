package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/johiruljahid/nsultan/internal/model"
)

// ErrStatusConflict is returned when a status update loses a race: the row
// no longer holds the status the caller expected.
var ErrStatusConflict = errors.New("status changed concurrently")

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

func scanOrder(scanner interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	err := scanner.Scan(
		&o.ID, &o.CustomerName, &o.Phone, &o.Address, &o.Total, &o.DeliveryFee,
		&o.TrxID, &o.Status, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []model.CartItem{}
	return &o, nil
}

const orderCols = `id, customer_name, phone, address, total, delivery_fee, trx_id, status, version, created_at, updated_at`

// Create stores a pending order with its item snapshots. An empty ID is
// replaced with a new order id.
func (s *OrderStore) Create(o model.Order) (*model.Order, error) {
	if o.ID == "" {
		o.ID = NewOrderID()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO orders (id, customer_name, phone, address, total, delivery_fee, trx_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerName, o.Phone, o.Address, o.Total, o.DeliveryFee, o.TrxID, model.OrderPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err := tx.Exec(
			`INSERT INTO order_items (order_id, item_id, name_en, name_bn, price, quantity, image, category, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, it.ItemID, it.NameEn, it.NameBn, it.Price, it.Quantity, it.Image, it.Category, i,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	return s.GetByID(o.ID)
}

func (s *OrderStore) GetByID(id string) (*model.Order, error) {
	row := s.db.QueryRow(`SELECT `+orderCols+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := s.attachItems([]*model.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns orders newest first. With statuses given, only orders in one
// of them are returned.
func (s *OrderStore) List(statuses ...model.OrderStatus) ([]model.Order, error) {
	query := `SELECT ` + orderCols + ` FROM orders`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholders(len(statuses)) + `)`
		for _, st := range statuses {
			args = append(args, st)
		}
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	var ptrs []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		ptrs = append(ptrs, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	rows.Close()

	if err := s.attachItems(ptrs); err != nil {
		return nil, err
	}

	orders := make([]model.Order, len(ptrs))
	for i, o := range ptrs {
		orders[i] = *o
	}
	return orders, nil
}

// UpdateStatus moves an order from one status to another and bumps its
// version. It returns ErrStatusConflict when the order is no longer in from,
// and (nil, nil) when the order does not exist.
func (s *OrderStore) UpdateStatus(id string, from, to model.OrderStatus) (*model.Order, error) {
	result, err := s.db.Exec(
		`UPDATE orders SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	o, err := s.GetByID(id)
	if err != nil || o == nil {
		return o, err
	}
	if n == 0 {
		return nil, ErrStatusConflict
	}
	return o, nil
}

// attachItems loads item snapshots for orders in one query. It must run after
// any open result set is closed; the in-memory database has a single connection.
func (s *OrderStore) attachItems(orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*model.Order, len(orders))
	args := make([]any, len(orders))
	for i, o := range orders {
		byID[o.ID] = o
		args[i] = o.ID
	}

	rows, err := s.db.Query(
		`SELECT order_id, item_id, name_en, name_bn, price, quantity, image, category
		 FROM order_items WHERE order_id IN (`+placeholders(len(orders))+`)
		 ORDER BY order_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var it model.CartItem
		if err := rows.Scan(&orderID, &it.ItemID, &it.NameEn, &it.NameBn, &it.Price, &it.Quantity, &it.Image, &it.Category); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
