package assistant

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/johiruljahid/nsultan/internal/checkout"
	"github.com/johiruljahid/nsultan/internal/database"
	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/johiruljahid/nsultan/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeGenerator struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
}

func (f *fakeGenerator) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

func textResponse(s string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s}}}
}

func toolResponse(name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:           "call-1",
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: name, Arguments: args},
		}},
	}}}
}

func setup(t *testing.T, gen Generator) (*Assistant, *store.OrderStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	menu := store.NewMenuStore(db)
	orders := store.NewOrderStore(db)
	svc := checkout.NewService(checkout.Config{
		DeliveryFee:   50,
		MinTrxLength:  4,
		PaymentMethod: "bKash",
		PaymentNumber: "01346-646075",
	}, menu, orders, nil, nil, nil, nil, slog.Default())

	cfg := Config{DeliveryFee: 50, PaymentNo: "01346-646075", MaxTokens: 256}
	return New(cfg, gen, menu, svc, nil, slog.Default()), orders
}

func TestReplyText(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("আসসালামু আলাইকুম! কীভাবে সাহায্য করতে পারি?")}
	a, _ := setup(t, gen)

	history := []Message{{Role: RoleModel, Text: Greeting}, {Role: RoleUser, Text: "  "}}
	r := a.Reply(context.Background(), history, "হ্যালো")

	assert.False(t, r.Error)
	require.Len(t, r.Messages, 1)
	assert.Equal(t, TypeText, r.Messages[0].Type)

	require.Len(t, gen.messages, 3, "system + greeting + user; blank history dropped")
	assert.Equal(t, llms.ChatMessageTypeSystem, gen.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, gen.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, gen.messages[2].Role)
}

func TestReplyMenuKeyword(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("অবশ্যই!")}
	a, _ := setup(t, gen)

	r := a.Reply(context.Background(), nil, "আমাকে মেনু দেখান")
	require.Len(t, r.Messages, 2)
	menu := r.Messages[1]
	assert.Equal(t, TypeMenu, menu.Type)
	assert.Equal(t, MenuIntro, menu.Text)
	assert.Len(t, menu.Items, 5)
}

func TestReplyShowMenuTool(t *testing.T) {
	a, _ := setup(t, &fakeGenerator{resp: toolResponse(toolShowMenu, "{}")})

	r := a.Reply(context.Background(), nil, "কী কী আছে?")
	require.Len(t, r.Messages, 1)
	assert.Equal(t, TypeMenu, r.Messages[0].Type)
}

func TestReplyPlaceOrderTool(t *testing.T) {
	a, _ := setup(t, &fakeGenerator{resp: toolResponse(toolPlaceOrder, `{"item_id":"1"}`)})

	r := a.Reply(context.Background(), nil, "কাচ্চি চাই")
	require.False(t, r.Error)
	require.Len(t, r.Messages, 1)
	msg := r.Messages[0]
	assert.Equal(t, TypePayment, msg.Type)
	require.NotNil(t, msg.Quote)
	assert.Equal(t, int64(500), msg.Quote.Total)
	assert.Contains(t, msg.Text, "500 টাকা")
}

func TestReplyPlaceOrderUnknownItemKeepsText(t *testing.T) {
	resp := toolResponse(toolPlaceOrder, `{"item_id":"kacchi"}`)
	resp.Choices[0].Content = "অবশ্যই, কাচ্চি বিরিয়ানি অর্ডার করছি।"
	a, orders := setup(t, &fakeGenerator{resp: resp})

	r := a.Reply(context.Background(), nil, "কাচ্চি চাই")
	require.False(t, r.Error)
	require.Len(t, r.Messages, 3)
	assert.Equal(t, "অবশ্যই, কাচ্চি বিরিয়ানি অর্ডার করছি।", r.Messages[0].Text)
	assert.Equal(t, Unavailable, r.Messages[1].Text)
	assert.Equal(t, TypeText, r.Messages[1].Type)
	assert.Equal(t, TypeMenu, r.Messages[2].Type)
	assert.NotEmpty(t, r.Messages[2].Items)

	placed, err := orders.List()
	require.NoError(t, err)
	assert.Empty(t, placed)
}

func TestReplyFailuresApologize(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
		text string
	}{
		{"no model", nil, "হ্যালো"},
		{"request error", &fakeGenerator{err: errors.New("boom")}, "হ্যালো"},
		{"empty choices", &fakeGenerator{resp: &llms.ContentResponse{}}, "হ্যালো"},
		{"blank content", &fakeGenerator{resp: textResponse("  ")}, "হ্যালো"},
		{"empty text", &fakeGenerator{resp: textResponse("hi")}, " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := setup(t, tt.gen)
			r := a.Reply(context.Background(), nil, tt.text)
			assert.True(t, r.Error)
			require.Len(t, r.Messages, 1)
			assert.Equal(t, Apology, r.Messages[0].Text)
		})
	}
}

func TestConfirm(t *testing.T) {
	a, orders := setup(t, nil)

	o, msg, err := a.Confirm(context.Background(), OrderRequest{
		ItemID:  "4",
		TrxID:   "8N7A",
		Phone:   "01711111111",
		Address: "Gulshan 2",
	})
	require.NoError(t, err)
	assert.Equal(t, TypeSuccess, msg.Type)
	assert.Equal(t, GuestName, o.CustomerName)
	assert.Equal(t, int64(230), o.Total)
	assert.Equal(t, model.OrderPending, o.Status)

	stored, err := orders.GetByID(o.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestConfirmShortTrx(t *testing.T) {
	a, _ := setup(t, nil)

	_, _, err := a.Confirm(context.Background(), OrderRequest{ItemID: "4", TrxID: "8N", Phone: "1", Address: "a"})
	ve, ok := checkout.IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Problems, "trx_id must be at least 4 characters")
}
