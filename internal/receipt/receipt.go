// Package receipt renders QR codes for placed orders and for the payment
// number customers send money to.
package receipt

import (
	"fmt"
	"strings"

	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

type Generator struct {
	BaseURL       string
	BusinessName  string
	PaymentMethod string
	PaymentNumber string
}

// TrackingURL is the public page showing an order's status.
func (g Generator) TrackingURL(orderID string) string {
	return fmt.Sprintf("%s/orders/%s", strings.TrimRight(g.BaseURL, "/"), orderID)
}

// OrderText is the content encoded in an order's QR code.
func (g Generator) OrderText(o *model.Order) string {
	return fmt.Sprintf("%s\nOrder: %s\nTotal: %d BDT\nTrxID: %s\nTrack: %s",
		g.BusinessName, o.ID, o.Total, o.TrxID, g.TrackingURL(o.ID))
}

// OrderQR returns a PNG QR code identifying the order.
func (g Generator) OrderQR(o *model.Order) ([]byte, error) {
	png, err := qrcode.Encode(g.OrderText(o), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode order qr: %w", err)
	}
	return png, nil
}

// PaymentText is the content encoded in the payment QR code. A zero amount
// leaves the amount out.
func (g Generator) PaymentText(amount int64) string {
	text := fmt.Sprintf("%s %s\nPay to: %s", g.BusinessName, g.PaymentMethod, g.PaymentNumber)
	if amount > 0 {
		text += fmt.Sprintf("\nAmount: %d BDT", amount)
	}
	return text
}

func (g Generator) PaymentQR(amount int64) ([]byte, error) {
	png, err := qrcode.Encode(g.PaymentText(amount), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode payment qr: %w", err)
	}
	return png, nil
}
