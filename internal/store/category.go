package store

import (
	"database/sql"
	"fmt"

	"github.com/johiruljahid/nsultan/internal/model"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) List() ([]model.Category, error) {
	rows, err := s.db.Query(`SELECT name, sort_order FROM categories ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Name, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Add appends a category after the existing ones. Adding a name that already
// exists is a no-op and reports created=false.
func (s *CategoryStore) Add(name string) (created bool, err error) {
	result, err := s.db.Exec(
		`INSERT INTO categories (name, sort_order)
		 VALUES (?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM categories))
		 ON CONFLICT(name) DO NOTHING`,
		name,
	)
	if err != nil {
		return false, fmt.Errorf("insert category: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *CategoryStore) Exists(name string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM categories WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return n > 0, nil
}
