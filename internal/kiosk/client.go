package kiosk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/NorthPierLabs/weathernow/internal/announce"
	"github.com/google/uuid"
)

const (
	adminPasswordHeader = "X-Admin-Password"
	clientIDHeader      = "X-Client-ID"

	defaultHTTPTimeout = 10 * time.Second
)

var errMissingBaseURL = errors.New("kiosk: server base url required")

// ClientConfig configures an API client.
type ClientConfig struct {
	// BaseURL is the announcement server root, e.g. "http://localhost:3000".
	BaseURL string
	// AdminPassword authenticates dismissal and admin calls.
	AdminPassword string
	// HTTPClient defaults to one with a 10s timeout.
	HTTPClient *http.Client
}

// Client talks to the announcement API. Each client carries a generated
// session id in the X-Client-ID header so server logs can tell kiosks apart.
type Client struct {
	baseURL    string
	password   string
	httpClient *http.Client
	clientID   string
}

// NewClient constructs an API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		password:   cfg.AdminPassword,
		httpClient: httpClient,
		clientID:   uuid.NewString(),
	}, nil
}

// MessagesSince fetches all records with id greater than the cursor, in
// ascending id order.
func (c *Client) MessagesSince(ctx context.Context, since int64) ([]announce.Announcement, error) {
	target := c.baseURL + "/api/messages?since=" + strconv.FormatInt(since, 10)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set(clientIDHeader, c.clientID)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kiosk: messages fetch returned status %d", response.StatusCode)
	}

	var records []announce.Announcement
	if err := json.NewDecoder(response.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("kiosk: decoding messages: %w", err)
	}
	return records, nil
}

// Dismiss asks the server to delete a delivered record. Callers treat
// failures as best-effort; the server answer is idempotent.
func (c *Client) Dismiss(ctx context.Context, id int64) error {
	target := c.baseURL + "/api/messages/" + strconv.FormatInt(id, 10)
	return c.doAdmin(ctx, http.MethodDelete, target, nil)
}

// Clear asks the server to delete every record.
func (c *Client) Clear(ctx context.Context) error {
	return c.doAdmin(ctx, http.MethodDelete, c.baseURL+"/api/messages", nil)
}

// Announce creates a new record. Used by operator tooling and tests.
func (c *Client) Announce(ctx context.Context, draft announce.Draft) (announce.Announcement, error) {
	payload, err := json.Marshal(map[string]any{
		"text":     draft.Text,
		"title":    draft.Title,
		"type":     string(draft.Type),
		"display":  string(draft.Display),
		"duration": draft.Duration,
		"tts":      draft.TTS,
	})
	if err != nil {
		return announce.Announcement{}, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/announce", bytes.NewReader(payload))
	if err != nil {
		return announce.Announcement{}, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(adminPasswordHeader, c.password)
	request.Header.Set(clientIDHeader, c.clientID)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return announce.Announcement{}, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusCreated && response.StatusCode != http.StatusOK {
		return announce.Announcement{}, fmt.Errorf("kiosk: announce returned status %d", response.StatusCode)
	}

	var record announce.Announcement
	if err := json.NewDecoder(response.Body).Decode(&record); err != nil {
		return announce.Announcement{}, fmt.Errorf("kiosk: decoding announce response: %w", err)
	}
	return record, nil
}

func (c *Client) doAdmin(ctx context.Context, method, target string, body []byte) error {
	request, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set(adminPasswordHeader, c.password)
	request.Header.Set(clientIDHeader, c.clientID)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("kiosk: %s %s returned status %d", method, target, response.StatusCode)
	}
	return nil
}
