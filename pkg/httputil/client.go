// Package httputil provides shared HTTP client utilities for ddnsweaver.
package httputil

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Default HTTP client configuration values.
const (
	// DefaultTimeout bounds every request, including address-echo lookups.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is used when no custom user agent is specified.
	DefaultUserAgent = "ddnsweaver/1.0"
)

// Network restricts outgoing connections to one address family.
type Network string

const (
	// NetworkAny lets the OS pick the family.
	NetworkAny Network = ""
	// NetworkIPv4 dials over tcp4 from 0.0.0.0.
	NetworkIPv4 Network = "tcp4"
	// NetworkIPv6 dials over tcp6 from ::.
	NetworkIPv6 Network = "tcp6"
)

// ClientConfig contains configuration for creating an HTTP client.
type ClientConfig struct {
	// Timeout is the HTTP client timeout. Defaults to 30 seconds.
	Timeout time.Duration

	// Network binds every connection to the unspecified local address of a
	// family so the OS selects the matching route.
	Network Network

	// UserAgent is the User-Agent header to set on requests.
	// Defaults to "ddnsweaver/1.0" if not specified.
	UserAgent string

	// Logger enables debug logging for HTTP requests.
	// If nil, no debug logging is performed.
	Logger *slog.Logger
}

// userAgentTransport wraps an http.RoundTripper to add User-Agent header
// and optionally log requests at debug level.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	if t.logger != nil {
		t.logger.Debug("HTTP request",
			slog.String("method", req.Method),
			slog.String("url", req.URL.Redacted()),
		)
	}

	resp, err := t.base.RoundTrip(req)

	if t.logger != nil && resp != nil {
		t.logger.Debug("HTTP response",
			slog.String("method", req.Method),
			slog.String("url", req.URL.Redacted()),
			slog.Int("status", resp.StatusCode),
		)
	}

	return resp, err
}

// localAddr returns the unspecified local address for a family, or nil.
func localAddr(network Network) net.Addr {
	switch network {
	case NetworkIPv4:
		return &net.TCPAddr{IP: net.IPv4zero}
	case NetworkIPv6:
		return &net.TCPAddr{IP: net.IPv6unspecified}
	default:
		return nil
	}
}

// newTransport clones the default transport, pinning dials to one family when requested.
func newTransport(network Network, timeout time.Duration) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if network == NetworkAny {
		return transport
	}

	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
		LocalAddr: localAddr(network),
	}
	transport.DialContext = func(ctx context.Context, _, addr string) (net.Conn, error) {
		return dialer.DialContext(ctx, string(network), addr)
	}
	return transport
}

// NewClient creates an HTTP client with the specified configuration.
// If cfg is nil, defaults are used (30s timeout, any address family).
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	transport := &userAgentTransport{
		base:      newTransport(cfg.Network, timeout),
		userAgent: userAgent,
		logger:    cfg.Logger,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// DefaultClient returns a new HTTP client with default settings.
// Equivalent to NewClient(nil).
func DefaultClient() *http.Client {
	return NewClient(nil)
}
