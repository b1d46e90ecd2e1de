// Package client is a small HTTP client for the scan endpoints, used by the operator CLI.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/domain/entity"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server answered %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("server answered %d %s: %s", e.Status, e.Code, e.Message)
}

// ScanResult is the decoded answer of POST /api/v1/scan
type ScanResult struct {
	Outcome  string           `json:"outcome"`
	Status   string           `json:"status"`
	From     string           `json:"from,omitempty"`
	Voucher  *entity.Voucher  `json:"voucher"`
	Movement *entity.Movement `json:"movement,omitempty"`
}

// Verification is the decoded answer of GET /api/v1/verify/:id
type Verification struct {
	ID          string    `json:"id"`
	Number      string    `json:"numero_vale"`
	Status      string    `json:"status"`
	ValidUntil  time.Time `json:"valid_until"`
	Expired     bool      `json:"expired"`
	BalancePBR  int       `json:"balance_pbr"`
	BalanceCHEP int       `json:"balance_chep"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// Client talks to a vpallet server
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New creates a client for the server at baseURL
func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")
	return &Client{http: r, logger: logger}
}

// SetToken sets the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// Login exchanges credentials for a bearer token and keeps it for later calls
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &out); err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

// Scan submits QR content in either payload form
func (c *Client) Scan(ctx context.Context, qrData string) (*ScanResult, error) {
	var out ScanResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/scan", map[string]string{"qr_data": qrData}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScanToken scans by voucher id and security token
func (c *Client) ScanToken(ctx context.Context, id, hash string) (*ScanResult, error) {
	var out ScanResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/scan", map[string]string{"id": id, "hash": hash}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify reads the public view of a voucher
func (c *Client) Verify(ctx context.Context, id, hash string) (*Verification, error) {
	var out Verification
	path := "/api/v1/verify/" + id + "?hash=" + hash
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var env envelope
	req := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.logger.Debug("API call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("latency", resp.Time()))

	if resp.IsError() || !env.Success {
		return &APIError{Status: resp.StatusCode(), Code: env.Error, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
