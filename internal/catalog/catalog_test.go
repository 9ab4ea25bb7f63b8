package catalog

import (
	"testing"

	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/stretchr/testify/assert"
)

func menu() []model.FoodItem {
	return []model.FoodItem{
		{ID: "1", NameEn: "Kacchi Biryani", Price: 450, Category: "main", IsPopular: true},
		{ID: "2", NameEn: "Beef Rezala", Price: 380, Category: "main"},
		{ID: "4", NameEn: "Firni", Price: 180, Category: "dessert", IsPopular: true},
		{ID: "5", NameEn: "Borhani", Price: 60, Category: "drinks"},
	}
}

func TestFilterAllReturnsUnchanged(t *testing.T) {
	items := menu()
	assert.Equal(t, items, Filter(items, All))
	assert.Equal(t, items, Filter(items, ""))
}

func TestFilterByCategory(t *testing.T) {
	got := Filter(menu(), "main")
	assert.Len(t, got, 2)
	for _, it := range got {
		assert.Equal(t, "main", it.Category)
	}

	assert.Empty(t, Filter(menu(), "starter"))
}

func TestPopular(t *testing.T) {
	got := Popular(menu())
	assert.Equal(t, []string{"1", "4"}, []string{got[0].ID, got[1].ID})
	assert.NotNil(t, Popular(nil))
}

func TestHead(t *testing.T) {
	assert.Len(t, Head(menu(), 2), 2)
	assert.Len(t, Head(menu(), 10), 4)
}

func TestFind(t *testing.T) {
	it, ok := Find(menu(), "5")
	assert.True(t, ok)
	assert.Equal(t, "Borhani", it.NameEn)

	_, ok = Find(menu(), "9")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	spicy := 5
	problems := Validate(model.FoodItem{Price: -1, SpicyLevel: &spicy})
	assert.Len(t, problems, 4)

	assert.Empty(t, Validate(menu()[0]))
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "bbq", NormalizeCategory("  BBQ "))
}
