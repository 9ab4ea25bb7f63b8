package model

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderDelivered OrderStatus = "delivered"
)

// CartItem is a menu item snapshot with a quantity. Orders keep these
// snapshots so later price edits never change a placed order.
type CartItem struct {
	ItemID   string `json:"item_id"`
	NameEn   string `json:"name_en"`
	NameBn   string `json:"name_bn"`
	Price    int64  `json:"price"`
	Image    string `json:"image"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

// LineTotal is price × quantity.
func (c CartItem) LineTotal() int64 {
	return c.Price * int64(c.Quantity)
}

type Order struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"customer_name"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address"`
	Items        []CartItem  `json:"items"`
	Total        int64       `json:"total"`
	DeliveryFee  int64       `json:"delivery_fee"`
	TrxID        string      `json:"trx_id"`
	Status       OrderStatus `json:"status"`
	Version      int64       `json:"version"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// PublicOrder is the view of an order safe to show anyone holding its id.
type PublicOrder struct {
	ID        string      `json:"id"`
	Items     []CartItem  `json:"items"`
	Total     int64       `json:"total"`
	Status    OrderStatus `json:"status"`
	Version   int64       `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (o *Order) Public() PublicOrder {
	return PublicOrder{
		ID:        o.ID,
		Items:     o.Items,
		Total:     o.Total,
		Status:    o.Status,
		Version:   o.Version,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
