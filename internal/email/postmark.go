package email

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/johiruljahid/nsultan/internal/model"
)

const postmarkURL = "https://api.postmarkapp.com/email"

// ErrNotConfigured is returned when no Postmark server token is set.
var ErrNotConfigured = errors.New("email client not configured: missing server token")

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient creates a Postmark client. baseURL is the public site address
// used for links back to the admin panel.
func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
	Tag      string `json:"Tag,omitempty"`
}

// SendOrderNotice tells the restaurant about a newly placed order.
func (c *Client) SendOrderNotice(to string, o *model.Order) error {
	var lines []string
	for _, it := range o.Items {
		lines = append(lines, fmt.Sprintf("%d × %s (৳%d)", it.Quantity, it.NameEn, it.LineTotal()))
	}
	text := fmt.Sprintf(
		"New order %s\n\nCustomer: %s\nPhone: %s\nAddress: %s\n\n%s\n\nDelivery: ৳%d\nTotal: ৳%d\nbKash TrxID: %s\n\n%s/admin/orders",
		o.ID, o.CustomerName, o.Phone, o.Address, strings.Join(lines, "\n"), o.DeliveryFee, o.Total, o.TrxID, c.baseURL,
	)
	return c.send(postmarkEmail{
		To:       to,
		Subject:  fmt.Sprintf("New order %s: ৳%d", o.ID, o.Total),
		TextBody: text,
		HtmlBody: textToHTML(text),
		Tag:      "order",
	})
}

// SendBookingNotice tells the restaurant about a new table or party request.
func (c *Client) SendBookingNotice(to string, b *model.Booking) error {
	text := fmt.Sprintf(
		"New %s booking %s\n\nName: %s\nPhone: %s\nGuests: %s\nWhen: %s at %s\n\n%s/admin/bookings",
		b.Type, b.ID, b.Name, b.Phone, b.Guests, b.Date, b.Time, c.baseURL,
	)
	return c.send(postmarkEmail{
		To:       to,
		Subject:  fmt.Sprintf("New %s booking for %s guests on %s", b.Type, b.Guests, b.Date),
		TextBody: text,
		HtmlBody: textToHTML(text),
		Tag:      "booking",
	})
}

func (c *Client) send(payload postmarkEmail) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	payload.From = c.fromEmail

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}

func textToHTML(text string) string {
	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
