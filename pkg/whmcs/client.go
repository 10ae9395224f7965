// Package whmcs is a client for the WHMCS remote API. Every exchange is a
// form-encoded POST carrying the credentials, the action name and
// responsetype=json; every failure is reported as an *Error and remembered as
// the client's last error.
package whmcs

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chainsafe/billing-bridge/internal/metrics"
	"github.com/chainsafe/billing-bridge/pkg/config"
)

const (
	apiPath = "/includes/api.php"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	bodyPreviewLen = 500
	maxBodySize    = 32 << 20
)

// Client issues authenticated calls against one WHMCS installation.
type Client struct {
	endpoint   string
	identifier string
	secret     string
	host       string
	logger     *zap.Logger

	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]

	mu        sync.Mutex
	lastError *Error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport built from configuration.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLimiter replaces the outbound rate limiter. A nil limiter disables limiting.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithoutBreaker disables the circuit breaker.
func WithoutBreaker() Option {
	return func(c *Client) {
		c.breaker = nil
	}
}

// New creates a client from cfg. An incomplete configuration is not an error:
// the client is returned and every call fails with NOT_CONFIGURED.
func New(cfg config.WHMCSConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		endpoint:   NormalizeURL(cfg.URL),
		identifier: cfg.Identifier,
		secret:     cfg.Secret,
		logger:     logger.Named("whmcs"),
	}

	if c.endpoint != "" {
		u, err := url.Parse(c.endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid WHMCS url %q: %w", cfg.URL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("invalid WHMCS url %q: scheme must be http or https", cfg.URL)
		}
		if ip := net.ParseIP(u.Hostname()); ip != nil && cfg.VirtualHost != "" {
			c.host = cleanHost(cfg.VirtualHost)
		}
		c.httpClient = newHTTPClient(cfg, u, c.host, c.logger)
	} else {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	c.breaker = newBreaker(c.logger)

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeURL appends the API script path when the configured URL points at
// the WHMCS root instead of api.php.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "api.php") {
		return raw
	}
	return strings.TrimRight(raw, "/") + apiPath
}

// cleanHost strips a scheme and any path from a configured host name.
func cleanHost(h string) string {
	h = strings.TrimSpace(h)
	lower := strings.ToLower(h)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			h = h[len(prefix):]
			break
		}
	}
	if i := strings.Index(h, "/"); i >= 0 {
		h = h[:i]
	}
	return strings.TrimSpace(h)
}

func newHTTPClient(cfg config.WHMCSConfig, endpoint *url.URL, virtualHost string, logger *zap.Logger) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		// #nosec G402 -- skip_tls_verify is an explicit operator setting
		InsecureSkipVerify: cfg.SkipTLSVerify,
	}
	if virtualHost != "" {
		tlsConfig.ServerName = strings.Split(virtualHost, ":")[0]
	}

	transport := &http.Transport{
		DialContext:         directDialer(dialer, cfg.DirectIP, endpoint, logger),
		TLSClientConfig:     tlsConfig,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}

	maxRedirects := cfg.MaxRedirects
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// directDialer dials over IPv4 and, when directIP is set for a named host,
// connects to directIP while TLS and the Host header keep the original name.
func directDialer(dialer *net.Dialer, directIP string, endpoint *url.URL, logger *zap.Logger) func(ctx context.Context, network, addr string) (net.Conn, error) {
	var target, replacement string
	if directIP != "" && net.ParseIP(endpoint.Hostname()) == nil {
		port := endpoint.Port()
		if port == "" {
			port = "80"
			if endpoint.Scheme == "https" {
				port = "443"
			}
		}
		target = net.JoinHostPort(endpoint.Hostname(), port)
		replacement = net.JoinHostPort(directIP, port)
		logger.Debug("Using direct IP", zap.String("host", target), zap.String("ip", replacement))
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if target != "" && strings.EqualFold(addr, target) {
			addr = replacement
		}
		if network == "tcp" {
			network = "tcp4"
		}
		return dialer.DialContext(ctx, network, addr)
	}
}

// IsConfigured reports whether the endpoint, identifier and secret are all set.
func (c *Client) IsConfigured() bool {
	return c.endpoint != "" && c.identifier != "" && c.secret != ""
}

// Endpoint returns the normalized API URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// LastError returns the most recent failure, or nil when no call has failed.
func (c *Client) LastError() *Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastError == nil {
		return nil
	}
	e := *c.lastError
	return &e
}

func (c *Client) fail(action string, e *Error) error {
	c.mu.Lock()
	c.lastError = e
	c.mu.Unlock()
	metrics.WHMCSRequestsTotal.WithLabelValues(action, strings.ToLower(string(e.Code))).Inc()
	return e
}

// Call performs action with params and decodes the response into out when out
// is non-nil. Caller params override the fixed fields.
func (c *Client) Call(ctx context.Context, action string, params url.Values, out any) error {
	if !c.IsConfigured() {
		return c.fail(action, &Error{
			Code:    CodeNotConfigured,
			Message: ErrNotConfigured.Error(),
			Err:     ErrNotConfigured,
		})
	}

	start := time.Now()
	body, err := c.exchange(ctx, action, params)
	metrics.WHMCSRequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	if err != nil {
		apiErr, ok := AsError(err)
		if !ok {
			apiErr = &Error{Code: CodeTransport, Message: err.Error(), Err: err}
		}
		return c.fail(action, apiErr)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Error("WHMCS API JSON parse error", zap.String("action", action), zap.Error(err))
		return c.fail(action, &Error{Code: CodeParse, Message: "Failed to parse WHMCS API response", Err: err})
	}

	if env.Result == "error" {
		msg := env.Message
		if msg == "" {
			msg = "Unknown WHMCS API error"
		}
		c.logger.Warn("WHMCS API error", zap.String("action", action), zap.String("message", msg))
		return c.fail(action, &Error{Code: CodeAPI, Message: msg})
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			c.logger.Error("WHMCS API response shape error", zap.String("action", action), zap.Error(err))
			return c.fail(action, &Error{Code: CodeParse, Message: "Failed to parse WHMCS API response", Err: err})
		}
	}

	metrics.WHMCSRequestsTotal.WithLabelValues(action, "success").Inc()
	c.logger.Debug("WHMCS API call successful", zap.String("action", action))
	return nil
}

// exchange sends the request and returns the body of a 200 reply.
func (c *Client) exchange(ctx context.Context, action string, params url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Code: CodeTransport, Message: err.Error(), Err: err}
		}
	}

	if c.breaker == nil {
		return c.roundTrip(ctx, action, params)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, action, params)
	})
	if err != nil && breakerRejected(err) {
		c.logger.Warn("WHMCS request rejected by circuit breaker", zap.String("action", action), zap.Error(err))
		return nil, &Error{Code: CodeTransport, Message: "circuit breaker open", Err: err}
	}
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, action string, params url.Values) ([]byte, error) {
	form := url.Values{}
	form.Set("identifier", c.identifier)
	form.Set("secret", c.secret)
	form.Set("action", action)
	form.Set("responsetype", "json")
	for key, values := range params {
		form[key] = values
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Code: CodeTransport, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", userAgent)
	if c.host != "" {
		req.Host = c.host
	}

	c.logger.Debug("WHMCS API request", zap.String("url", c.endpoint), zap.String("action", action))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("WHMCS API transport error", zap.String("action", action), zap.Error(err))
		return nil, &Error{Code: CodeTransport, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{Code: CodeTransport, Message: err.Error(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("WHMCS API HTTP error",
			zap.String("action", action),
			zap.Int("status", resp.StatusCode),
			zap.String("effective_url", resp.Request.URL.String()),
			zap.ByteString("body_preview", preview(body)))
		return nil, &Error{
			Code:    CodeHTTP,
			Message: fmt.Sprintf("HTTP error code: %d", resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}

	return bytes.TrimSpace(body), nil
}

func preview(body []byte) []byte {
	if len(body) > bodyPreviewLen {
		return body[:bodyPreviewLen]
	}
	return body
}
