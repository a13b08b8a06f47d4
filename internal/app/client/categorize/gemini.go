// Package categorize asks a vision model to read receipts. Every answer is
// treated as untrusted and passed through Sanitize.
package categorize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"payfamily/internal/domain/document"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"

	maxResponseSize = 1 << 20
)

const receiptPrompt = `Analyze this receipt image and extract:
1. Vendor/Store name
2. Total amount
3. Category (Food, Transport, Utilities, Entertainment, Healthcare, Shopping, Subscriptions, Office, Other)
4. List of items with quantities and prices
5. Confidence level (0-1)

Return as JSON with fields: vendorName, amount, category, confidence, items[] (name, quantity, price)`

const textPrompt = `Categorize this expense into one of these categories:
Food, Transport, Utilities, Entertainment, Healthcare, Shopping, Subscriptions, Office, Other

Return only the category name.

Expense: %s`

type Categorizer interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*Suggestion, error)
	CategorizeText(ctx context.Context, text string) string
}

type Gemini struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	log     *slog.Logger
}

var _ Categorizer = (*Gemini)(nil)

type Option func(*Gemini)

func WithBaseURL(u string) Option {
	return func(g *Gemini) { g.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gemini) { g.client = c }
}

func NewGemini(apiKey, model string, log *slog.Logger, opts ...Option) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	g := &Gemini{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		model:   model,
		log:     log.With("component", "gemini"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// AnalyzeImage returns a sanitized suggestion for a receipt image. Any
// failure, including an answer that cannot be parsed, is ErrUnavailable.
func (g *Gemini) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*Suggestion, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnavailable)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	text, err := g.generate(ctx, []part{
		{Text: receiptPrompt},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
	})
	if err != nil {
		return nil, err
	}

	raw, ok := extractJSON(text)
	if !ok {
		g.log.Warn("model reply holds no JSON object")
		return nil, fmt.Errorf("%w: no JSON in reply", ErrUnavailable)
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		g.log.Warn("model reply is not a valid suggestion", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	clean := Sanitize(s)
	return &clean, nil
}

// CategorizeText guesses a category for a free-text expense. It never
// fails; anything unusable yields Other.
func (g *Gemini) CategorizeText(ctx context.Context, text string) string {
	reply, err := g.generate(ctx, []part{{Text: fmt.Sprintf(textPrompt, text)}})
	if err != nil {
		return document.CategoryOther
	}
	if c, ok := document.KnownCategory(reply); ok {
		return c
	}
	return document.CategoryOther
}

func (g *Gemini) generate(ctx context.Context, parts []part) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}

	payload, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("model request failed", "error", redact(err.Error(), g.apiKey))
		return "", fmt.Errorf("%w: request failed", ErrUnavailable)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: read reply: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		g.log.Warn("model returned error status", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var reply generateResponse
	if err := json.Unmarshal(data, &reply); err != nil {
		return "", fmt.Errorf("%w: decode reply: %v", ErrUnavailable, err)
	}
	if len(reply.Candidates) == 0 || len(reply.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty reply", ErrUnavailable)
	}

	return strings.TrimSpace(reply.Candidates[0].Content.Parts[0].Text), nil
}

// extractJSON returns the text from the first '{' to the last '}'.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, url.QueryEscape(secret), "REDACTED")
}
