package store

import (
	"database/sql"
	"fmt"

	"github.com/johiruljahid/nsultan/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const pushCols = `id, admin_id, endpoint, p256dh_key, auth_key, device_name, created_at`

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := scanner.Scan(&sub.ID, &sub.AdminID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription registers a device. Re-subscribing the same endpoint
// refreshes its keys.
func (s *PushStore) CreateSubscription(adminID int64, endpoint, p256dh, auth, deviceName string) (*model.PushSubscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (admin_id, endpoint, p256dh_key, auth_key, device_name)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET admin_id = excluded.admin_id, p256dh_key = excluded.p256dh_key,
		 auth_key = excluded.auth_key, device_name = excluded.device_name`,
		adminID, endpoint, p256dh, auth, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	return s.getByEndpoint(endpoint)
}

func (s *PushStore) getByEndpoint(endpoint string) (*model.PushSubscription, error) {
	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	return sub, nil
}

func (s *PushStore) ListByAdmin(adminID int64) ([]model.PushSubscription, error) {
	return s.list(`SELECT `+pushCols+` FROM push_subscriptions WHERE admin_id = ? ORDER BY created_at DESC, id DESC`, adminID)
}

// ListAll returns every registered device across admins.
func (s *PushStore) ListAll() ([]model.PushSubscription, error) {
	return s.list(`SELECT ` + pushCols + ` FROM push_subscriptions ORDER BY id`)
}

func (s *PushStore) list(query string, args ...any) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// DeleteSubscription removes a device owned by adminID and reports whether it existed.
func (s *PushStore) DeleteSubscription(id, adminID int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ? AND admin_id = ?`, id, adminID)
	if err != nil {
		return false, fmt.Errorf("delete push subscription: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}
