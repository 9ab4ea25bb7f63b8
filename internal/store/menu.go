package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/johiruljahid/nsultan/internal/model"
)

type MenuStore struct {
	db *sql.DB
}

func NewMenuStore(db *sql.DB) *MenuStore {
	return &MenuStore{db: db}
}

func scanFoodItem(scanner interface{ Scan(...any) error }) (*model.FoodItem, error) {
	var f model.FoodItem
	var spicy sql.NullInt64
	var popular int
	err := scanner.Scan(
		&f.ID, &f.NameEn, &f.NameBn, &f.DescriptionEn, &f.DescriptionBn,
		&f.Price, &f.Image, &f.Category, &spicy, &popular,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if spicy.Valid {
		v := int(spicy.Int64)
		f.SpicyLevel = &v
	}
	f.IsPopular = popular != 0
	return &f, nil
}

const menuCols = `id, name_en, name_bn, description_en, description_bn, price, image, category, spicy_level, is_popular, created_at, updated_at`

// List returns the menu, newest items first.
func (s *MenuStore) List() ([]model.FoodItem, error) {
	rows, err := s.db.Query(`SELECT ` + menuCols + ` FROM menu_items ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	items := []model.FoodItem{}
	for rows.Next() {
		f, err := scanFoodItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, *f)
	}
	return items, rows.Err()
}

func (s *MenuStore) GetByID(id string) (*model.FoodItem, error) {
	row := s.db.QueryRow(`SELECT `+menuCols+` FROM menu_items WHERE id = ?`, id)
	f, err := scanFoodItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	return f, nil
}

// Create inserts item. An empty ID is replaced with a new UUID.
func (s *MenuStore) Create(item model.FoodItem) (*model.FoodItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO menu_items (id, name_en, name_bn, description_en, description_bn, price, image, category, spicy_level, is_popular)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.NameEn, item.NameBn, item.DescriptionEn, item.DescriptionBn,
		item.Price, item.Image, item.Category, nullableInt(item.SpicyLevel), boolToInt(item.IsPopular),
	)
	if err != nil {
		return nil, fmt.Errorf("insert menu item: %w", err)
	}
	return s.GetByID(item.ID)
}

// Update replaces every editable field of the item with id. It returns nil
// when no such item exists.
func (s *MenuStore) Update(id string, item model.FoodItem) (*model.FoodItem, error) {
	result, err := s.db.Exec(
		`UPDATE menu_items SET name_en = ?, name_bn = ?, description_en = ?, description_bn = ?,
		 price = ?, image = ?, category = ?, spicy_level = ?, is_popular = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		item.NameEn, item.NameBn, item.DescriptionEn, item.DescriptionBn,
		item.Price, item.Image, item.Category, nullableInt(item.SpicyLevel), boolToInt(item.IsPopular), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update menu item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(id)
}

// Delete removes the item and reports whether it existed.
func (s *MenuStore) Delete(id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete menu item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
