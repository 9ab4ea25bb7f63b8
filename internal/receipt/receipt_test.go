package receipt

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gen = Generator{
	BaseURL:       "https://nsultan.example/",
	BusinessName:  "N Sultan",
	PaymentMethod: "bKash",
	PaymentNumber: "01346-646075",
}

func TestOrderQR(t *testing.T) {
	o := &model.Order{ID: "ORD-1A2B", Total: 950, TrxID: "8N7A6B5C"}

	text := gen.OrderText(o)
	assert.Contains(t, text, "Order: ORD-1A2B")
	assert.Contains(t, text, "Total: 950 BDT")
	assert.Contains(t, text, "Track: https://nsultan.example/orders/ORD-1A2B")

	data, err := gen.OrderQR(o)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestPaymentText(t *testing.T) {
	assert.Equal(t, "N Sultan bKash\nPay to: 01346-646075", gen.PaymentText(0))
	assert.Equal(t, "N Sultan bKash\nPay to: 01346-646075\nAmount: 950 BDT", gen.PaymentText(950))

	data, err := gen.PaymentQR(950)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}
