package store

import (
	"testing"

	"github.com/johiruljahid/nsultan/internal/model"
)

func TestMenuSeedData(t *testing.T) {
	ms := NewMenuStore(openTestDB(t))

	items, err := ms.List()
	if err != nil {
		t.Fatalf("list menu: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("expected 6 seed items, got %d", len(items))
	}
	for i, want := range []string{"1", "2", "3", "4", "5", "6"} {
		if items[i].ID != want {
			t.Errorf("items[%d].ID = %q, want %q", i, items[i].ID, want)
		}
	}
	if items[0].Price != 450 || !items[0].IsPopular {
		t.Errorf("item 1 = %+v, want popular at 450", items[0])
	}
	if items[1].SpicyLevel == nil || *items[1].SpicyLevel != 2 {
		t.Errorf("item 2 spicy level = %v, want 2", items[1].SpicyLevel)
	}
}

func TestMenuCRUD(t *testing.T) {
	ms := NewMenuStore(openTestDB(t))

	spicy := 1
	created, err := ms.Create(model.FoodItem{
		NameEn:     "Chicken Tikka",
		NameBn:     "চিকেন টিক্কা",
		Price:      280,
		Category:   "starter",
		SpicyLevel: &spicy,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.SpicyLevel == nil || *created.SpicyLevel != 1 {
		t.Errorf("spicy level = %v, want 1", created.SpicyLevel)
	}

	items, _ := ms.List()
	if items[0].ID != created.ID {
		t.Errorf("newest item first: got %q, want %q", items[0].ID, created.ID)
	}

	created.Price = 300
	created.SpicyLevel = nil
	created.IsPopular = true
	updated, err := ms.Update(created.ID, *created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Price != 300 || updated.SpicyLevel != nil || !updated.IsPopular {
		t.Errorf("updated = %+v", updated)
	}

	missing, err := ms.Update("nope", *created)
	if err != nil {
		t.Fatalf("update missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing item")
	}

	ok, err := ms.Delete(created.ID)
	if err != nil || !ok {
		t.Fatalf("delete = %v, %v", ok, err)
	}
	ok, _ = ms.Delete(created.ID)
	if ok {
		t.Error("second delete should report false")
	}
	got, _ := ms.GetByID(created.ID)
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestMenuRejectsNegativePrice(t *testing.T) {
	ms := NewMenuStore(openTestDB(t))
	if _, err := ms.Create(model.FoodItem{NameEn: "Bad", Price: -5, Category: "main"}); err == nil {
		t.Fatal("expected check constraint error")
	}
}

func TestGalleryCRUD(t *testing.T) {
	gs := NewGalleryStore(openTestDB(t))

	images, err := gs.List()
	if err != nil {
		t.Fatalf("list gallery: %v", err)
	}
	if len(images) != 6 || images[0].ID != "g1" {
		t.Fatalf("seed gallery = %d images, first %q", len(images), images[0].ID)
	}

	img, err := gs.Create(model.GalleryImage{URL: "https://cdn.example/a.jpg", Title: "Rooftop", Category: "ambience"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	images, _ = gs.List()
	if images[0].ID != img.ID {
		t.Errorf("newest image first: got %q", images[0].ID)
	}

	ok, err := gs.Delete(img.ID)
	if err != nil || !ok {
		t.Fatalf("delete = %v, %v", ok, err)
	}
}

func TestCategoryAddIsIdempotent(t *testing.T) {
	cs := NewCategoryStore(openTestDB(t))

	cats, _ := cs.List()
	if len(cats) != 4 || cats[0].Name != "main" {
		t.Fatalf("seed categories = %+v", cats)
	}

	created, err := cs.Add("bbq")
	if err != nil || !created {
		t.Fatalf("add = %v, %v", created, err)
	}
	created, err = cs.Add("bbq")
	if err != nil || created {
		t.Fatalf("re-add = %v, %v", created, err)
	}

	cats, _ = cs.List()
	if len(cats) != 5 || cats[4].Name != "bbq" {
		t.Errorf("categories = %+v", cats)
	}
	if ok, _ := cs.Exists("bbq"); !ok {
		t.Error("expected bbq to exist")
	}
}
