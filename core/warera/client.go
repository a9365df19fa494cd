package warera

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pp9653/warera-ranking-sys/core/reconcile"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var (
	// ErrMissingCredential is returned when no bearer token is configured.
	ErrMissingCredential = errors.New("missing API token")
	// ErrProcedure is returned when a tRPC call answers with an error entry.
	ErrProcedure = errors.New("procedure error")
)

const (
	origin  = "https://app.warera.io"
	referer = "https://app.warera.io/"
)

// Client talks to the game API. It implements every reconcile source.
// Calls are paced with a random delay and are safe for concurrent use.
type Client struct {
	cfg    Config
	client *fasthttp.Client
	logger *zap.Logger

	tokenMu sync.RWMutex
	token   string

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(lo, hi time.Duration) time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithDial replaces the network dialer, used to serve tests from memory.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.client.Dial = dial }
}

// NewClient creates a client from cfg.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		cfg:    cfg,
		logger: logger,
		token:  cfg.Token,
		client: &fasthttp.Client{
			MaxConnsPerHost:     4,
			ReadTimeout:         cfg.timeout(),
			WriteTimeout:        cfg.timeout(),
			MaxIdleConnDuration: time.Minute,
		},
		sleep:  sleepContext,
		jitter: uniformDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ reconcile.RemoteAPI = (*Client)(nil)

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.tokenMu.Lock()
	c.token = strings.TrimSpace(token)
	c.tokenMu.Unlock()
}

// HasToken reports whether a bearer token is set.
func (c *Client) HasToken() bool {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token != ""
}

func (c *Client) currentToken() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token
}

func (c *Client) baseURL() string {
	return strings.TrimRight(c.cfg.BaseURL, "/")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func uniformDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func (c *Client) pause(ctx context.Context) error {
	lo := time.Duration(c.cfg.MinDelayMs) * time.Millisecond
	hi := time.Duration(c.cfg.MaxDelayMs) * time.Millisecond
	return c.sleep(ctx, c.jitter(lo, hi))
}

// get issues a paced GET and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, uri string, query map[string]string) ([]byte, error) {
	token := c.currentToken()
	if token == "" {
		return nil, ErrMissingCredential
	}
	if err := c.pause(ctx); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	args := req.URI().QueryArgs()
	for k, v := range query {
		args.Set(k, v)
	}
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", token)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", referer)

	deadline := time.Now().Add(c.cfg.timeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request %s: %w", req.URI().Path(), err)
	}
	c.logger.Debug("API request",
		zap.ByteString("path", req.URI().Path()),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

// trpcEntry is one element of a batched tRPC response.
type trpcEntry struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error json.RawMessage `json:"error"`
}

// callTRPC invokes a batched tRPC GET and returns the raw entries.
func (c *Client) callTRPC(ctx context.Context, procedure string, input any) ([]trpcEntry, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}

	body, err := c.get(ctx, c.baseURL()+"/trpc/"+procedure, map[string]string{
		"batch": "1",
		"input": string(payload),
	})
	if err != nil {
		return nil, err
	}

	var entries []trpcEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", procedure, err)
	}
	return entries, nil
}

// callOne invokes a single procedure and decodes its data into T.
func callOne[T any](ctx context.Context, c *Client, procedure string, input any) (*T, error) {
	entries, err := c.callTRPC(ctx, procedure, map[string]any{"0": input})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("decode %s: empty batch", procedure)
	}
	if entries[0].Result == nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrProcedure, procedure, string(entries[0].Error))
	}

	var result T
	if len(entries[0].Result.Data) == 0 || string(entries[0].Result.Data) == "null" {
		return &result, nil
	}
	if err := json.Unmarshal(entries[0].Result.Data, &result); err != nil {
		return nil, fmt.Errorf("decode %s: %w", procedure, err)
	}
	return &result, nil
}
