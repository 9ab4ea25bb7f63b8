package cart

import (
	"math"
	"testing"
	"time"

	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	biryani = model.FoodItem{ID: "1", NameEn: "Kacchi Biryani", NameBn: "কাচ্চি বিরিয়ানি", Price: 450, Category: "main"}
	borhani = model.FoodItem{ID: "5", NameEn: "Borhani", NameBn: "বোরহানি", Price: 60, Category: "drinks"}
)

func TestAddSameItemTwice(t *testing.T) {
	var c Cart
	c.Add(biryani)
	c.Add(biryani)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(900), c.Subtotal())
	assert.Equal(t, int64(950), Total(items, DefaultDeliveryFee))
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	var c Cart
	c.Add(borhani)
	c.Add(biryani)
	c.Add(borhani)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "5", items[0].ItemID)
	assert.Equal(t, "1", items[1].ItemID)
	assert.Equal(t, 3, c.Count())
}

func TestUpdateQuantityClampsAtOne(t *testing.T) {
	var c Cart
	c.Add(biryani)

	assert.True(t, c.UpdateQuantity("1", 3))
	assert.Equal(t, 4, c.Items()[0].Quantity)

	assert.True(t, c.UpdateQuantity("1", -10))
	assert.Equal(t, 1, c.Items()[0].Quantity)

	assert.False(t, c.UpdateQuantity("missing", 1))
}

func TestQuantityStopsAtMax(t *testing.T) {
	var c Cart
	c.Add(biryani)

	assert.True(t, c.UpdateQuantity("1", math.MaxInt))
	assert.Equal(t, MaxQuantity, c.Quantity("1"))

	c.Add(biryani)
	assert.Equal(t, MaxQuantity, c.Quantity("1"))
	assert.Equal(t, int64(MaxQuantity)*biryani.Price, c.Subtotal())

	assert.True(t, c.UpdateQuantity("1", math.MinInt))
	assert.Equal(t, 1, c.Quantity("1"))
	assert.Zero(t, c.Quantity("missing"))
}

func TestRemoveRegardlessOfQuantity(t *testing.T) {
	var c Cart
	c.Add(biryani)
	c.Add(biryani)
	c.Add(borhani)

	assert.True(t, c.Remove("1"))
	assert.False(t, c.Remove("1"))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(60), c.Subtotal())
}

func TestSnapshotIgnoresLaterPriceChanges(t *testing.T) {
	var c Cart
	c.Add(biryani)

	repriced := biryani
	repriced.Price = 500
	c.Add(repriced)

	assert.Equal(t, int64(900), c.Subtotal())
}

func TestItemsReturnsCopy(t *testing.T) {
	var c Cart
	c.Add(biryani)
	items := c.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestEmptySummary(t *testing.T) {
	var c Cart
	s := c.Summary()
	assert.NotNil(t, s.Items)
	assert.Zero(t, s.Count)
	assert.Zero(t, s.Subtotal)
}

func TestRegistryUpdateAndGet(t *testing.T) {
	r := NewRegistry()

	s := r.Update("tok", func(c *Cart) { c.Add(biryani) })
	assert.Equal(t, 1, s.Count)

	s = r.Get("tok")
	assert.Equal(t, int64(450), s.Subtotal)

	assert.Zero(t, r.Get("other").Count)
	assert.Equal(t, 1, r.Len(), "Get does not create carts")

	r.Delete("tok")
	assert.Zero(t, r.Len())
}

func TestRegistryCleanup(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry()
	r.now = func() time.Time { return now }

	r.Update("old", func(c *Cart) { c.Add(biryani) })
	now = now.Add(3 * time.Hour)
	r.Update("fresh", func(c *Cart) { c.Add(borhani) })

	assert.Equal(t, 1, r.Cleanup(2*time.Hour))
	assert.Zero(t, r.Get("old").Count)
	assert.Equal(t, 1, r.Get("fresh").Count)
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
