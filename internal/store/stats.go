package store

import (
	"database/sql"
	"fmt"

	"github.com/johiruljahid/nsultan/internal/model"
)

type StatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// Dashboard computes the back-office summary. Revenue counts delivered
// orders only.
func (s *StatsStore) Dashboard() (*model.DashboardStats, error) {
	var st model.DashboardStats
	err := s.db.QueryRow(`SELECT
		(SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = 'delivered'),
		(SELECT COUNT(*) FROM orders WHERE status IN ('pending', 'preparing')),
		(SELECT COUNT(*) FROM orders WHERE status = 'delivered'),
		(SELECT COUNT(*) FROM bookings WHERE status = 'pending'),
		(SELECT COUNT(*) FROM bookings WHERE status = 'confirmed'),
		(SELECT COUNT(*) FROM menu_items),
		(SELECT COUNT(*) FROM gallery_images)`,
	).Scan(
		&st.Revenue, &st.ActiveOrders, &st.CompletedOrders,
		&st.PendingBookings, &st.ConfirmedBookings,
		&st.MenuItems, &st.GalleryImages,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &st, nil
}
