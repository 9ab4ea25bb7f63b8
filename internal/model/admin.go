package model

import "time"

type AdminUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	AdminID   int64     `json:"admin_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStats summarizes the back office at a glance.
type DashboardStats struct {
	Revenue           int64 `json:"revenue"`
	ActiveOrders      int   `json:"active_orders"`
	CompletedOrders   int   `json:"completed_orders"`
	PendingBookings   int   `json:"pending_bookings"`
	ConfirmedBookings int   `json:"confirmed_bookings"`
	MenuItems         int   `json:"menu_items"`
	GalleryImages     int   `json:"gallery_images"`
}
