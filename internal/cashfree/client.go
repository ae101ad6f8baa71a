package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Fi44er/kirda/utils"
)

const apiVersion = "2023-08-01"

type Config struct {
	AppID              string
	SecretKey          string
	BaseURL            string
	PayoutBaseURL      string
	PayoutClientID     string
	PayoutClientSecret string
}

// Client talks to the Cashfree payment gateway and payouts APIs.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *utils.Logger

	mu          sync.Mutex
	payoutToken string
	tokenExpiry time.Time
}

func NewClient(cfg Config, logger *utils.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// APIError carries the upstream status code and message verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cashfree API error: %d - %s", e.StatusCode, e.Message)
}

func (c *Client) pgHeaders() map[string]string {
	return map[string]string{
		"x-api-version":   apiVersion,
		"x-client-id":     c.cfg.AppID,
		"x-client-secret": c.cfg.SecretKey,
	}
}

// do sends a JSON request and decodes a 2xx response into out.
func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cashfree request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Errorf("Cashfree %s %s returned %d: %s", method, url, resp.StatusCode, string(raw))
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Errorf("Failed to decode JSON: %v\nRaw response: %s", err, string(raw))
		return fmt.Errorf("invalid cashfree response format: %w", err)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return string(raw)
}
