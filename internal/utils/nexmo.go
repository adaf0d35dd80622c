package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Nexmo Verify status codes that the service distinguishes.
const (
	NexmoStatusSuccess     = "0"
	NexmoStatusServerError = "5"
)

const DefaultNexmoBaseURL = "https://api.nexmo.com"

type NexmoClient struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Brand     string
	DryRun    bool // answer success locally, no HTTP call

	HTTP *http.Client
	Log  *zap.Logger
}

type verifyRequest struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	Number    string `json:"number"`
	Brand     string `json:"brand"`
}

type checkRequest struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
}

type VerifyResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	ErrorText string `json:"error_text,omitempty"`
}

// CheckResponse fields other than Status are optional on the wire.
type CheckResponse struct {
	RequestID *string `json:"request_id,omitempty"`
	Status    string  `json:"status"`
	ErrorText *string `json:"error_text,omitempty"`
	EventID   *string `json:"event_id,omitempty"`
	Price     *string `json:"price,omitempty"`
	Currency  *string `json:"currency,omitempty"`
}

func NewNexmoClient(baseURL, apiKey, apiSecret, brand string, timeout time.Duration, dryRun bool, log *zap.Logger) *NexmoClient {
	if baseURL == "" {
		baseURL = DefaultNexmoBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NexmoClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		APISecret: apiSecret,
		Brand:     brand,
		DryRun:    dryRun,
		HTTP:      &http.Client{Timeout: timeout},
		Log:       log,
	}
}

// StartChallenge asks Nexmo to send a code to phone.
func (c *NexmoClient) StartChallenge(ctx context.Context, phone string) (*VerifyResponse, error) {
	if c.DryRun {
		c.Log.Warn("nexmo dry-run: verification not sent")
		return &VerifyResponse{RequestID: phone, Status: NexmoStatusSuccess}, nil
	}

	var out VerifyResponse
	err := c.post(ctx, "/verify/json", verifyRequest{
		APIKey:    c.APIKey,
		APISecret: c.APISecret,
		Number:    phone,
		Brand:     c.Brand,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("nexmo verify: %w", err)
	}
	return &out, nil
}

// CheckChallenge submits code for requestID.
func (c *NexmoClient) CheckChallenge(ctx context.Context, requestID, code string) (*CheckResponse, error) {
	if c.DryRun {
		c.Log.Warn("nexmo dry-run: code accepted without check")
		id := requestID
		return &CheckResponse{RequestID: &id, Status: NexmoStatusSuccess}, nil
	}

	var out CheckResponse
	err := c.post(ctx, "/verify/check/json", checkRequest{
		APIKey:    c.APIKey,
		APISecret: c.APISecret,
		RequestID: requestID,
		Code:      code,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("nexmo check: %w", err)
	}
	return &out, nil
}

func (c *NexmoClient) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.Log.Debug("nexmo response",
		zap.String("path", path),
		zap.Int("http_status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected http status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
