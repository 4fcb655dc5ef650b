// Package api provides the REST client for a Hub20 backend. Resource
// operations are grouped into sub-clients (Auth, Account, Funding, Stores,
// Tokens, Users, Audit) that share one base client holding the server URL
// and the session token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client is the shared HTTP client for all Hub20 resources.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	token      string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	// URL is the server root. It may be set later via SetBaseURL once the
	// server has been validated.
	URL string

	// HTTPClient is optional; a 30s-timeout client is used by default.
	HTTPClient *http.Client
}

// New creates a new Hub20 API client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		httpClient: httpClient,
	}
}

// SetBaseURL replaces the server root used for subsequent requests.
func (c *Client) SetBaseURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimSuffix(url, "/")
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetToken attaches a session token to all subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the session token.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// =============================================================================
// Resource Sub-Clients
// =============================================================================

// Auth returns the session/account client.
func (c *Client) Auth() *AuthClient {
	return &AuthClient{client: c}
}

// Account returns the balances/credits/debits client.
func (c *Client) Account() *AccountClient {
	return &AccountClient{client: c}
}

// Funding returns the deposits/transfers/payment-orders client.
func (c *Client) Funding() *FundingClient {
	return &FundingClient{client: c}
}

// Stores returns the merchant stores client.
func (c *Client) Stores() *StoresClient {
	return &StoresClient{client: c}
}

// Tokens returns the currency descriptors client.
func (c *Client) Tokens() *TokensClient {
	return &TokensClient{client: c}
}

// Users returns the user directory client.
func (c *Client) Users() *UsersClient {
	return &UsersClient{client: c}
}

// Audit returns the admin accounting client.
func (c *Client) Audit() *AuditClient {
	return &AuditClient{client: c}
}

// =============================================================================
// Response Types
// =============================================================================

// Response is a generic API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Error returns an error if the response indicates failure.
func (r *Response) Error() error {
	if r.StatusCode >= 400 {
		var errResp struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal(r.Body, &errResp); err == nil {
			if errResp.Detail != "" {
				return fmt.Errorf("hub20 error: %s", errResp.Detail)
			}
			if errResp.Error != "" {
				return fmt.Errorf("hub20 error: %s", errResp.Error)
			}
		}
		return fmt.Errorf("hub20 error: status %d", r.StatusCode)
	}
	return nil
}

// =============================================================================
// Internal Methods
// =============================================================================

func (c *Client) get(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

// getRoot issues a GET against the server root rather than the /api prefix.
// The status endpoints live there.
func (c *Client) getRoot(ctx context.Context, path string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPost, path, body)
}

func (c *Client) put(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPut, path, body)
}

func (c *Client) patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPatch, path, body)
}

func (c *Client) delete(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodDelete, path, nil)
}

func (c *Client) request(ctx context.Context, method, path string, body any) (*Response, error) {
	reqURL := c.BaseURL() + "/api" + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Headers:    resp.Header,
	}, nil
}

// decode issues the request and unmarshals a successful response into target.
func decode[T any](resp *Response, err error) (T, error) {
	var target T
	if err != nil {
		return target, err
	}
	if err := resp.Error(); err != nil {
		return target, err
	}
	if err := resp.JSON(&target); err != nil {
		return target, fmt.Errorf("decode response: %w", err)
	}
	return target, nil
}
