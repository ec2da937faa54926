package bookapi

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

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/five82/shelf/internal/apperr"
)

const (
	DefaultBaseURL   = "https://api.marktube.tv"
	defaultUserAgent = "shelf/0.1"
	requestTimeout   = 10 * time.Second
	defaultRetryBase = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
	maxErrorBody     = 4 << 10
)

// Options configures a Client. The zero value talks to DefaultBaseURL with no
// proxy, no rate limit and no retries.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Proxy      string  // SOCKS5 host:port or socks5:// URL
	RateLimit  float64 // requests per second, 0 disables
	MaxRetries int     // extra attempts for GET requests
	RetryBase  time.Duration
	UserAgent  string
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client talks to the book HTTP API.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	userAgent  string
	limiter    *rate.Limiter
	maxRetries int
	retryBase  time.Duration
	log        *zap.Logger
}

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = requestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
		if strings.TrimSpace(opts.Proxy) != "" {
			transport, err := socksTransport(opts.Proxy)
			if err != nil {
				return nil, err
			}
			httpClient.Transport = transport
		}
	}

	c := &Client{
		baseURL:    base,
		http:       httpClient,
		userAgent:  opts.UserAgent,
		maxRetries: max(opts.MaxRetries, 0),
		retryBase:  opts.RetryBase,
		log:        opts.Logger,
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.retryBase <= 0 {
		c.retryBase = defaultRetryBase
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c, nil
}

// call describes one API request.
type call struct {
	op     string
	method string
	path   string
	token  string
	body   any
	dest   any
	auth   bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	if cl.auth && strings.TrimSpace(cl.token) == "" {
		return apperr.Auth("not signed in", nil)
	}

	var payload []byte
	if cl.body != nil {
		var err error
		payload, err = json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempts := 1
	if cl.method == http.MethodGet {
		attempts += c.maxRetries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			wait := calculateBackoff(i-1, c.retryBase)
			c.log.Debug("retrying request",
				zap.String("op", cl.op),
				zap.Int("attempt", i+1),
				zap.Duration("backoff", wait),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return apperr.Network(cl.op, ctx.Err())
			}
		}

		retry, err := c.attempt(ctx, cl, payload)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}
	return lastErr
}

// attempt performs a single round trip. retry reports whether the failure is
// worth another attempt.
func (c *Client) attempt(ctx context.Context, cl call, payload []byte) (retry bool, err error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return false, apperr.Network(cl.op, err)
		}
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: cl.path})
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, reqURL.String(), body)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("op", cl.op),
			zap.String("request_id", requestID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return ctx.Err() == nil, apperr.Network(cl.op, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("request done",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return retryable(resp.StatusCode), statusError(cl.op, resp)
	}
	if cl.dest == nil || resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.dest); err != nil {
		if errors.Is(err, io.EOF) {
			return false, apperr.Network(cl.op, errors.New("decode response: empty body"))
		}
		return false, apperr.Network(cl.op, fmt.Errorf("decode response: %w", err))
	}
	return false, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// statusError maps an error response onto the apperr taxonomy.
func statusError(op string, resp *http.Response) error {
	msg := serverMessage(resp.Body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.Auth(msg, fmt.Errorf("%s returned status %d", op, resp.StatusCode))
	case http.StatusNotFound:
		return apperr.NotFound(msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.Validation(msg)
	default:
		return apperr.Network(op, fmt.Errorf("api returned status %d: %s", resp.StatusCode, msg))
	}
}

func serverMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var e errorResponse
	if json.Unmarshal(raw, &e) == nil {
		if m := strings.TrimSpace(e.Message); m != "" {
			return m
		}
		if m := strings.TrimSpace(e.Error); m != "" {
			return m
		}
	}
	return strings.TrimSpace(string(raw))
}

// calculateBackoff returns base doubled once per failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return min(base, maxBackoff)
	}
	if failures > 16 {
		return maxBackoff
	}
	return min(base<<failures, maxBackoff)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
