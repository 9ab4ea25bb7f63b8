package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/johiruljahid/nsultan/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

func scanAdmin(scanner interface{ Scan(...any) error }) (*model.AdminUser, error) {
	var a model.AdminUser
	err := scanner.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const adminCols = `id, username, password_hash, created_at, updated_at`

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Upsert creates the admin account or replaces its password hash.
func (s *AdminStore) Upsert(username, passwordHash string) (*model.AdminUser, error) {
	_, err := s.db.Exec(
		`INSERT INTO admin_users (username, password_hash) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET password_hash = excluded.password_hash, updated_at = CURRENT_TIMESTAMP`,
		username, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert admin: %w", err)
	}
	return s.GetByUsername(username)
}

// EnsureAdmin bootstraps the configured account. A plain password is hashed;
// a pre-computed hash is stored as is.
func (s *AdminStore) EnsureAdmin(username, password, passwordHash string) (*model.AdminUser, error) {
	if passwordHash == "" {
		if password == "" {
			return nil, errors.New("admin password or password hash is required")
		}
		h, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		passwordHash = h
	}
	return s.Upsert(username, passwordHash)
}

func (s *AdminStore) GetByID(id int64) (*model.AdminUser, error) {
	row := s.db.QueryRow(`SELECT `+adminCols+` FROM admin_users WHERE id = ?`, id)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

func (s *AdminStore) GetByUsername(username string) (*model.AdminUser, error) {
	row := s.db.QueryRow(`SELECT `+adminCols+` FROM admin_users WHERE username = ?`, username)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by username: %w", err)
	}
	return a, nil
}

// Authenticate returns the admin when username and password match, or nil.
func (s *AdminStore) Authenticate(username, password string) (*model.AdminUser, error) {
	a, err := s.GetByUsername(username)
	if err != nil || a == nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}
	return a, nil
}

func (s *AdminStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM admin_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}
