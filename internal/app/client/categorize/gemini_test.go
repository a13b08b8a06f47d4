package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"payfamily/internal/domain/document"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func replyWith(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(body)
}

func newServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGemini_AnalyzeImage(t *testing.T) {
	reply := "Here you go:\n```json\n" + `{
		"vendorName": "  Whole Foods\u0007 ",
		"amount": 42.17,
		"category": "food",
		"confidence": 1.7,
		"items": [
			{"name": "Avocado", "quantity": 3, "price": 1.5},
			{"name": "Refund", "quantity": -1, "price": 2},
			{"name": "", "quantity": 1, "price": 2}
		]
	}` + "\n```"

	var got struct {
		Contents []struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData struct {
					MimeType string `json:"mime_type"`
					Data     string `json:"data"`
				} `json:"inline_data"`
			} `json:"parts"`
		} `json:"contents"`
	}

	srv := newServer(t, http.StatusOK, replyWith(reply), func(r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	g := NewGemini("test-key", "", discardLogger(), WithBaseURL(srv.URL))
	s, err := g.AnalyzeImage(context.Background(), []byte("\xff\xd8\xff jpeg bytes"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "Whole Foods", s.VendorName)
	assert.True(t, decimal.RequireFromString("42.17").Equal(s.Amount))
	assert.Equal(t, document.CategoryFood, s.Category)
	assert.Equal(t, 1.0, s.Confidence)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "Avocado", s.Items[0].Name)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "image/jpeg", got.Contents[0].Parts[1].InlineData.MimeType)
	assert.NotEmpty(t, got.Contents[0].Parts[1].InlineData.Data)
}

func TestGemini_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"not json", http.StatusOK, "<html>"},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"no object in reply", http.StatusOK, replyWith("I cannot read this receipt")},
		{"malformed object", http.StatusOK, replyWith(`{"amount": "lots"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body, nil)
			g := NewGemini("k", "", discardLogger(), WithBaseURL(srv.URL))

			s, err := g.AnalyzeImage(context.Background(), []byte("img"), "image/png")
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.Nil(t, s)
		})
	}

	t.Run("no api key", func(t *testing.T) {
		_, err := NewGemini("", "", discardLogger()).AnalyzeImage(context.Background(), []byte("img"), "")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := newServer(t, http.StatusOK, "", nil)
		srv.Close()
		g := NewGemini("k", "", discardLogger(), WithBaseURL(srv.URL))

		_, err := g.AnalyzeImage(context.Background(), []byte("img"), "")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestGemini_CategorizeText(t *testing.T) {
	srv := newServer(t, http.StatusOK, replyWith(" Transport\n"), nil)
	g := NewGemini("k", "", discardLogger(), WithBaseURL(srv.URL))
	assert.Equal(t, document.CategoryTransport, g.CategorizeText(context.Background(), "taxi to airport"))

	srv = newServer(t, http.StatusOK, replyWith("Groceries and snacks"), nil)
	g = NewGemini("k", "", discardLogger(), WithBaseURL(srv.URL))
	assert.Equal(t, document.CategoryOther, g.CategorizeText(context.Background(), "chips"))

	srv = newServer(t, http.StatusBadGateway, "", nil)
	g = NewGemini("k", "", discardLogger(), WithBaseURL(srv.URL))
	assert.Equal(t, document.CategoryOther, g.CategorizeText(context.Background(), "anything"))
}

func TestSanitize(t *testing.T) {
	long := strings.Repeat("x", maxNameLength+50)
	items := make([]document.Item, 0, maxItems+5)
	for i := 0; i < maxItems+5; i++ {
		items = append(items, document.Item{
			Name:     fmt.Sprintf("item %d", i),
			Quantity: decimal.NewFromInt(1),
			Price:    decimal.NewFromInt(1),
		})
	}

	s := Sanitize(Suggestion{
		VendorName: long,
		Amount:     decimal.NewFromInt(-5),
		Category:   "Weapons",
		Confidence: math.NaN(),
		Items:      items,
	})

	assert.Len(t, []rune(s.VendorName), maxNameLength)
	assert.True(t, s.Amount.IsZero())
	assert.Equal(t, document.CategoryOther, s.Category)
	assert.Zero(t, s.Confidence)
	assert.Len(t, s.Items, maxItems)

	s = Sanitize(Suggestion{Confidence: -0.3, Items: []document.Item{
		{Name: "free sample", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(-1)},
	}})
	assert.Zero(t, s.Confidence)
	assert.Empty(t, s.Items)
}

func TestSuggestion_Apply(t *testing.T) {
	d := &document.Document{Category: "Kids"}
	Suggestion{
		VendorName: "Lego Store",
		Amount:     decimal.RequireFromString("19.99"),
		Category:   document.CategoryShopping,
	}.Apply(d)

	assert.Equal(t, "Lego Store", d.VendorName)
	assert.True(t, decimal.RequireFromString("19.99").Equal(d.TotalAmount))
	assert.Equal(t, "Kids", d.Category)
}
