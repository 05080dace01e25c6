package walletservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const maxErrorBodySize = 4096

// StatusError is returned when the wallet service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("wallet service responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("wallet service responded with status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
	logger  *zap.Logger

	timeout    time.Duration
	hasTimeout bool
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithTimeout bounds every request. Zero means no timeout. It applies to a
// copy of the HTTP client, whatever the option order.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
		c.hasTimeout = true
	}
}

func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) ClientOption {
	return func(c *Client) {
		c.breaker = cb
	}
}

// WithRateLimit limits outgoing requests to rps per second. Values <= 0 disable the limiter.
func WithRateLimit(rps int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = ratelimit.New(rps)
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a WalletService talking HTTP to baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  zap.L().Named("wallet-service"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hasTimeout {
		httpClient := *c.http
		httpClient.Timeout = c.timeout
		c.http = &httpClient
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) CreateWallet(ctx context.Context) (*CreateWalletResponse, error) {
	var resp CreateWalletResponse
	err := c.do(ctx, http.MethodGet, CreateWalletPath, nil, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "create wallet")
	}
	if resp.Wallets == nil {
		resp.Wallets = NewWalletSet()
	}
	return &resp, nil
}

func (c *Client) OpenWallet(ctx context.Context, mnemonic string) (*OpenWalletResponse, error) {
	var resp OpenWalletResponse
	err := c.do(ctx, http.MethodPost, OpenWalletPath, &OpenWalletRequest{Mnemonic: mnemonic}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "open wallet")
	}
	if resp.Wallets == nil {
		resp.Wallets = NewWalletSet()
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if c.limiter != nil {
		c.limiter.Take()
	}

	call := func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	}

	if c.breaker == nil {
		_, err := call()
		return err
	}

	_, err := c.breaker.Execute(call)
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("sending request", zap.String("method", method), zap.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	return nil
}
