package model

import "time"

type FoodItem struct {
	ID            string    `json:"id"`
	NameEn        string    `json:"name_en"`
	NameBn        string    `json:"name_bn"`
	DescriptionEn string    `json:"description_en"`
	DescriptionBn string    `json:"description_bn"`
	Price         int64     `json:"price"`
	Image         string    `json:"image"`
	Category      string    `json:"category"`
	SpicyLevel    *int      `json:"spicy_level,omitempty"`
	IsPopular     bool      `json:"is_popular"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type GalleryImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	TitleBn   string    `json:"title_bn"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}
