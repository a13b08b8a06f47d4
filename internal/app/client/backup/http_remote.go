package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"payfamily/internal/app/client/crypto"
	names "payfamily/internal/domain/backup"
)

const userAgent = "PayFamily-Client/1.0"

type HTTPConfig struct {
	BaseURL   string
	OwnerID   string
	AccessKey string
}

// HTTPRemote talks to the backup server. It opens a session on first use
// and once more when the server reports the token expired.
type HTTPRemote struct {
	client  *http.Client
	baseURL string
	ownerID string
	key     string
	log     *slog.Logger

	mu    sync.Mutex
	token string
}

var _ Remote = (*HTTPRemote)(nil)

type HTTPOption func(*HTTPRemote)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(r *HTTPRemote) { r.client = c }
}

func NewHTTPRemote(cfg HTTPConfig, log *slog.Logger, opts ...HTTPOption) (*HTTPRemote, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("backup server address must start with http:// or https://, got %q", cfg.BaseURL)
	}

	r := &HTTPRemote{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		baseURL: base,
		ownerID: cfg.OwnerID,
		key:     cfg.AccessKey,
		log:     log.With("component", "http_remote"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type sessionRequest struct {
	OwnerID   string `json:"ownerId"`
	AccessKey string `json:"accessKey"`
}

type sessionResponse struct {
	Token string `json:"token"`
}

type getResponse struct {
	Checksum string          `json:"checksum"`
	Envelope crypto.Envelope `json:"envelope"`
}

type listResponse struct {
	Backups []struct {
		Name      string    `json:"name"`
		Size      int64     `json:"size"`
		UpdatedAt time.Time `json:"updatedAt"`
	} `json:"backups"`
}

func (r *HTTPRemote) Ping(ctx context.Context) error {
	resp, err := r.do(ctx, http.MethodGet, "/api/v1/health", nil, "")
	if err != nil {
		return err
	}
	return r.parseResponse(resp, nil, "")
}

func (r *HTTPRemote) Put(ctx context.Context, name string, env *crypto.Envelope) error {
	if err := names.ValidateName(name); err != nil {
		return err
	}
	resp, err := r.authed(ctx, http.MethodPut, "/api/v1/backups/"+url.PathEscape(name), env)
	if err != nil {
		return err
	}
	return r.parseResponse(resp, nil, name)
}

func (r *HTTPRemote) Get(ctx context.Context, name string) (*crypto.Envelope, error) {
	if err := names.ValidateName(name); err != nil {
		return nil, err
	}
	resp, err := r.authed(ctx, http.MethodGet, "/api/v1/backups/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}

	var out getResponse
	if err := r.parseResponse(resp, &out, name); err != nil {
		return nil, err
	}

	canonical, err := crypto.MarshalEnvelope(&out.Envelope)
	if err != nil {
		return nil, err
	}
	if out.Checksum != names.Checksum([]byte(canonical)) {
		return nil, fmt.Errorf("%w: %s", ErrChecksum, name)
	}

	return crypto.ParseEnvelope(canonical)
}

func (r *HTTPRemote) List(ctx context.Context) ([]Object, error) {
	resp, err := r.authed(ctx, http.MethodGet, "/api/v1/backups", nil)
	if err != nil {
		return nil, err
	}

	var out listResponse
	if err := r.parseResponse(resp, &out, ""); err != nil {
		return nil, err
	}

	objects := make([]Object, 0, len(out.Backups))
	for _, b := range out.Backups {
		objects = append(objects, Object{Name: b.Name, Size: b.Size, UpdatedAt: b.UpdatedAt})
	}
	return objects, nil
}

func (r *HTTPRemote) Delete(ctx context.Context, name string) error {
	if err := names.ValidateName(name); err != nil {
		return err
	}
	resp, err := r.authed(ctx, http.MethodDelete, "/api/v1/backups/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	return r.parseResponse(resp, nil, name)
}

// authed sends an authenticated request, logging in again once on 401.
func (r *HTTPRemote) authed(ctx context.Context, method, path string, body any) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		token, err := r.session(ctx, attempt > 0)
		if err != nil {
			return nil, err
		}

		resp, err := r.do(ctx, method, path, body, token)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized || attempt > 0 {
			return resp, nil
		}

		_ = resp.Body.Close()
		r.log.Debug("session rejected, logging in again")
	}
}

func (r *HTTPRemote) session(ctx context.Context, refresh bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && !refresh {
		return r.token, nil
	}

	resp, err := r.do(ctx, http.MethodPost, "/api/v1/sessions", sessionRequest{OwnerID: r.ownerID, AccessKey: r.key}, "")
	if err != nil {
		return "", err
	}

	var out sessionResponse
	if err := r.parseResponse(resp, &out, ""); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: empty session token", ErrUnauthorized)
	}

	r.token = out.Token
	return r.token, nil
}

func (r *HTTPRemote) do(ctx context.Context, method, path string, body any, token string) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	r.log.Debug("sending request", "method", method, "path", path)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func (r *HTTPRemote) parseResponse(resp *http.Response, result any, name string) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, names.MaxSize*2))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	r.log.Debug("response received", "status", resp.StatusCode, "size", len(body))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: server returned %d: %s", ErrUnavailable, resp.StatusCode, errorDetail(body))
	case resp.StatusCode >= 400:
		return fmt.Errorf("backup server rejected request (%d): %s", resp.StatusCode, errorDetail(body))
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// errorDetail pulls a message out of either error shape the server uses.
func errorDetail(body []byte) string {
	var e struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Detail != "" {
			return e.Detail
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return strings.TrimSpace(string(body))
}
