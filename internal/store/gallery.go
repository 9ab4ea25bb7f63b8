package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/johiruljahid/nsultan/internal/model"
)

type GalleryStore struct {
	db *sql.DB
}

func NewGalleryStore(db *sql.DB) *GalleryStore {
	return &GalleryStore{db: db}
}

func scanGalleryImage(scanner interface{ Scan(...any) error }) (*model.GalleryImage, error) {
	var g model.GalleryImage
	err := scanner.Scan(&g.ID, &g.URL, &g.Title, &g.TitleBn, &g.Category, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

const galleryCols = `id, url, title, title_bn, category, created_at`

func (s *GalleryStore) List() ([]model.GalleryImage, error) {
	rows, err := s.db.Query(`SELECT ` + galleryCols + ` FROM gallery_images ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list gallery images: %w", err)
	}
	defer rows.Close()

	images := []model.GalleryImage{}
	for rows.Next() {
		g, err := scanGalleryImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gallery image: %w", err)
		}
		images = append(images, *g)
	}
	return images, rows.Err()
}

func (s *GalleryStore) GetByID(id string) (*model.GalleryImage, error) {
	row := s.db.QueryRow(`SELECT `+galleryCols+` FROM gallery_images WHERE id = ?`, id)
	g, err := scanGalleryImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get gallery image: %w", err)
	}
	return g, nil
}

func (s *GalleryStore) Create(img model.GalleryImage) (*model.GalleryImage, error) {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO gallery_images (id, url, title, title_bn, category) VALUES (?, ?, ?, ?, ?)`,
		img.ID, img.URL, img.Title, img.TitleBn, img.Category,
	)
	if err != nil {
		return nil, fmt.Errorf("insert gallery image: %w", err)
	}
	return s.GetByID(img.ID)
}

func (s *GalleryStore) Delete(id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM gallery_images WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete gallery image: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
