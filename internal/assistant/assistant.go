// Package assistant implements Sultana, the restaurant's chat assistant.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/johiruljahid/nsultan/internal/checkout"
	"github.com/johiruljahid/nsultan/internal/metrics"
	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Fixed texts shown to customers.
const (
	Greeting    = "আসসালামু আলাইকুম! আমি সুলতানা। আজ আপনার সেবায় কীভাবে নিয়োজিত হতে পারি?"
	Apology     = "দুঃখিত, সার্ভারের সাথে সংযোগ বিচ্ছিন্ন হয়েছে। দয়া করে আবার চেষ্টা করুন।"
	MenuIntro   = "এখানে আমাদের সেরা কিছু খাবারের তালিকা দেওয়া হলো:"
	Unavailable = "দুঃখিত, এই খাবারটি এখন আমাদের মেনুতে নেই।"
	Confirmed   = "আলহামদুলিল্লাহ! আপনার অর্ডারটি নিশ্চিত করা হয়েছে। খুব দ্রুত আপনার কাছে খাবার পৌঁছে যাবে।"
	GuestName   = "সম্মানিত অতিথি"
	menuLimit   = 5
	historySize = 20
)

// Message types.
const (
	TypeText    = "text"
	TypeMenu    = "menu"
	TypePayment = "payment"
	TypeSuccess = "success"
)

// Roles in a conversation.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

const (
	toolShowMenu   = "show_menu"
	toolPlaceOrder = "place_order"
)

var menuKeywords = []string{"মেনু", "খাবার", "menu", "list"}

// ErrNotConfigured is returned by NewModel when no API key is set.
var ErrNotConfigured = errors.New("assistant not configured")

// Generator is the part of an llms.Model the assistant needs.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

type menuLister interface {
	List() ([]model.FoodItem, error)
}

type orderService interface {
	Quote(lines []checkout.Line) (*checkout.Quote, error)
	PlaceOrder(ctx context.Context, req checkout.Request) (*model.Order, error)
}

// Message is one chat bubble. Items and Quote are set for menu and payment
// messages.
type Message struct {
	Role  string           `json:"role"`
	Text  string           `json:"text"`
	Type  string           `json:"type,omitempty"`
	Items []model.FoodItem `json:"items,omitempty"`
	Quote *checkout.Quote  `json:"quote,omitempty"`
}

// Reply is what the assistant adds to the conversation for one user turn.
type Reply struct {
	Messages []Message `json:"messages"`
	Error    bool      `json:"error,omitempty"`
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	DeliveryFee int64
	PaymentNo   string
}

// NewModel builds an OpenAI-compatible chat model.
func NewModel(cfg Config) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return llm, nil
}

type Assistant struct {
	cfg     Config
	gen     Generator
	menu    menuLister
	orders  orderService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New returns an assistant. gen may be nil, in which case every chat turn
// answers with the apology.
func New(cfg Config, gen Generator, menu menuLister, orders orderService, m *metrics.Metrics, logger *slog.Logger) *Assistant {
	return &Assistant{cfg: cfg, gen: gen, menu: menu, orders: orders, metrics: m, logger: logger}
}

func (a *Assistant) systemInstruction() string {
	return fmt.Sprintf(`আপনি 'সুলতানা', এন সুলতান (N Sultan) রেস্টুরেন্টের একজন অত্যন্ত প্রফেশনাল সার্ভিস গার্ল।
১. সব সময় 'আসসালামু আলাইকুম' বলে কথা শুরু করবেন।
২. শুধুমাত্র শুদ্ধ বাংলা ভাষায় কথা বলবেন।
৩. কাস্টমার যদি মেনু দেখতে চায় বা খাবারের তালিকা চায়, তবে %s টুল ব্যবহার করবেন।
৪. কাস্টমার কোনো নির্দিষ্ট খাবার অর্ডার করতে চাইলে %s টুল ব্যবহার করবেন।
৫. ডেলিভারি চার্জ সব সময় %d টাকা।
৬. পেমেন্ট করতে বললে বিকাশ নম্বর %s দিবেন।
৭. আপনি খুব বিনয়ী এবং সাহায্যকারী।`, toolShowMenu, toolPlaceOrder, a.cfg.DeliveryFee, a.cfg.PaymentNo)
}

func tools() []llms.Tool {
	return []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        toolShowMenu,
				Description: "Show the customer a short list of dishes from the menu.",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        toolPlaceOrder,
				Description: "Prepare a payment preview for one dish the customer wants to order.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"item_id": map[string]any{
							"type":        "string",
							"description": "The menu item id.",
						},
					},
					"required": []string{"item_id"},
				},
			},
		},
	}
}

// Reply answers one user turn. history is the conversation so far, oldest
// first, not including text. Failures never surface as errors: the reply
// carries the apology and Error is set.
func (a *Assistant) Reply(ctx context.Context, history []Message, text string) *Reply {
	text = strings.TrimSpace(text)
	reply, err := a.reply(ctx, history, text)
	if err != nil {
		a.logger.Error("chat request failed", "error", err)
		a.metrics.ChatRequest("error")
		return &Reply{
			Messages: []Message{{Role: RoleModel, Text: Apology, Type: TypeText}},
			Error:    true,
		}
	}
	a.metrics.ChatRequest("ok")
	return reply
}

func (a *Assistant) reply(ctx context.Context, history []Message, text string) (*Reply, error) {
	if text == "" {
		return nil, errors.New("empty message")
	}
	if a.gen == nil {
		return nil, ErrNotConfigured
	}

	resp, err := a.gen.GenerateContent(ctx, a.conversation(history, text),
		llms.WithTools(tools()),
		llms.WithMaxTokens(a.cfg.MaxTokens),
		llms.WithTemperature(a.cfg.Temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("empty response from chat model")
	}
	choice := resp.Choices[0]

	reply := &Reply{}
	if content := strings.TrimSpace(choice.Content); content != "" {
		reply.Messages = append(reply.Messages, Message{Role: RoleModel, Text: content, Type: TypeText})
	}

	showMenu := matchesMenu(text)
	for _, call := range choice.ToolCalls {
		if call.FunctionCall == nil {
			continue
		}
		switch call.FunctionCall.Name {
		case toolShowMenu:
			showMenu = true
		case toolPlaceOrder:
			var args struct {
				ItemID string `json:"item_id"`
			}
			if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &args); err != nil {
				return nil, fmt.Errorf("decode %s arguments: %w", toolPlaceOrder, err)
			}
			msg, err := a.Preview(args.ItemID)
			if _, ok := checkout.IsValidation(err); ok {
				// The model named a dish we do not serve: keep its text and
				// offer the menu instead.
				a.logger.Warn("assistant ordered unknown item", "item_id", args.ItemID, "error", err)
				reply.Messages = append(reply.Messages, Message{Role: RoleModel, Text: Unavailable, Type: TypeText})
				showMenu = true
				continue
			}
			if err != nil {
				return nil, err
			}
			reply.Messages = append(reply.Messages, *msg)
		}
	}

	if showMenu {
		msg, err := a.menuMessage()
		if err != nil {
			return nil, err
		}
		reply.Messages = append(reply.Messages, *msg)
	}

	if len(reply.Messages) == 0 {
		return nil, errors.New("chat model returned no content")
	}
	return reply, nil
}

func (a *Assistant) conversation(history []Message, text string) []llms.MessageContent {
	if len(history) > historySize {
		history = history[len(history)-historySize:]
	}
	out := make([]llms.MessageContent, 0, len(history)+2)
	out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, a.systemInstruction()))
	for _, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleModel {
			role = llms.ChatMessageTypeAI
		}
		out = append(out, llms.TextParts(role, m.Text))
	}
	return append(out, llms.TextParts(llms.ChatMessageTypeHuman, text))
}

func (a *Assistant) menuMessage() (*Message, error) {
	items, err := a.menu.List()
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	if len(items) > menuLimit {
		items = items[:menuLimit]
	}
	return &Message{Role: RoleModel, Text: MenuIntro, Type: TypeMenu, Items: items}, nil
}

// Preview prices a single dish for the chat payment card.
func (a *Assistant) Preview(itemID string) (*Message, error) {
	q, err := a.orders.Quote([]checkout.Line{{ItemID: itemID, Quantity: 1}})
	if err != nil {
		return nil, err
	}
	item := q.Items[0]
	text := fmt.Sprintf("চমৎকার পছন্দ! **%s** এর স্বাদ আপনাকে মুগ্ধ করবে। ডেলিভারি চার্জসহ আপনার মোট বিল **%d টাকা**। নিচে পেমেন্ট করার তথ্য দেওয়া হলো:",
		item.NameBn, q.Total)
	return &Message{Role: RoleModel, Text: text, Type: TypePayment, Quote: q}, nil
}

// OrderRequest confirms a previewed dish with its payment reference.
type OrderRequest struct {
	ItemID       string `json:"item_id"`
	TrxID        string `json:"trx_id"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

// Confirm places the order for a previewed dish through checkout.
func (a *Assistant) Confirm(ctx context.Context, req OrderRequest) (*model.Order, *Message, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = GuestName
	}
	o, err := a.orders.PlaceOrder(ctx, checkout.Request{
		CustomerName: name,
		Phone:        req.Phone,
		Address:      req.Address,
		TrxID:        req.TrxID,
		Items:        []checkout.Line{{ItemID: req.ItemID, Quantity: 1}},
	})
	if err != nil {
		return nil, nil, err
	}
	return o, &Message{Role: RoleModel, Text: Confirmed, Type: TypeSuccess}, nil
}

func matchesMenu(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range menuKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
