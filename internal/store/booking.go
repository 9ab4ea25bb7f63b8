package store

import (
	"database/sql"
	"fmt"

	"github.com/johiruljahid/nsultan/internal/model"
)

type BookingStore struct {
	db *sql.DB
}

func NewBookingStore(db *sql.DB) *BookingStore {
	return &BookingStore{db: db}
}

func scanBooking(scanner interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	err := scanner.Scan(&b.ID, &b.Name, &b.Phone, &b.Guests, &b.Date, &b.Time, &b.Type, &b.Status, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const bookingCols = `id, name, phone, guests, date, time, type, status, version, created_at, updated_at`

// Create stores a pending booking.
func (s *BookingStore) Create(b model.Booking) (*model.Booking, error) {
	if b.ID == "" {
		b.ID = NewBookingID()
	}
	_, err := s.db.Exec(
		`INSERT INTO bookings (id, name, phone, guests, date, time, type, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Phone, b.Guests, b.Date, b.Time, b.Type, model.BookingPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return s.GetByID(b.ID)
}

func (s *BookingStore) GetByID(id string) (*model.Booking, error) {
	row := s.db.QueryRow(`SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// List returns bookings newest first, optionally limited to one status.
func (s *BookingStore) List(status model.BookingStatus) ([]model.Booking, error) {
	query := `SELECT ` + bookingCols + ` FROM bookings`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// UpdateStatus applies a compare-and-set status change. See OrderStore.UpdateStatus.
func (s *BookingStore) UpdateStatus(id string, from, to model.BookingStatus) (*model.Booking, error) {
	result, err := s.db.Exec(
		`UPDATE bookings SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	b, err := s.GetByID(id)
	if err != nil || b == nil {
		return b, err
	}
	if n == 0 {
		return nil, ErrStatusConflict
	}
	return b, nil
}
