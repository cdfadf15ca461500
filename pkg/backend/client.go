package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scholarserbisyo/pkg/directory"
	"scholarserbisyo/pkg/event"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// StatusError is a non-2xx answer of the remote API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("backend: %d %s", e.Code, e.Message)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	}
	return false
}

// Observer is told about every finished call; metrics hook in here.
type Observer func(endpoint string, code int, elapsed time.Duration)

// Client talks to the scholaRSerbisyo REST API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Observe Observer
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("backend: login response has no token")
	}
	return resp.Token, nil
}

func (c *Client) ListEvents(ctx context.Context, token string) ([]event.Event, error) {
	var events []event.Event
	err := c.do(ctx, http.MethodGet, "/events", token, nil, &events)
	return events, err
}

func (c *Client) CreateEvent(ctx context.Context, token string, e *event.Event) (*event.Event, error) {
	var created event.Event
	if err := c.do(ctx, http.MethodPost, "/events", token, e, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListSchools(ctx context.Context, token string) ([]directory.Entry, error) {
	var entries []directory.Entry
	err := c.do(ctx, http.MethodGet, "/schools", token, nil, &entries)
	return entries, err
}

func (c *Client) ListBarangays(ctx context.Context, token string) ([]directory.Entry, error) {
	var entries []directory.Entry
	err := c.do(ctx, http.MethodGet, "/barangays", token, nil, &entries)
	return entries, err
}

func (c *Client) ListScholarEvents(ctx context.Context, token, scholarID string) ([]event.Event, error) {
	var events []event.Event
	err := c.do(ctx, http.MethodGet, "/scholars/"+url.PathEscape(scholarID)+"/events", token, nil, &events)
	return events, err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: encode %s: %w", path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	code := 0
	defer func() {
		if c.Observe != nil {
			c.Observe(method+" "+endpoint(path), code, time.Since(start))
		}
	}()

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	code = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s: %w", path, err)
	}
	return nil
}

// endpoint collapses path parameters so metric labels stay bounded.
func endpoint(path string) string {
	if strings.HasPrefix(path, "/scholars/") {
		return "/scholars/{id}/events"
	}
	return path
}

func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
