package publicip

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/ddnsweaver/pkg/httputil"
)

// Default echo endpoints.
const (
	DefaultIPv4URL = "https://api.ipify.org?format=json"
	DefaultIPv6URL = "https://api64.ipify.org?format=json"
)

// maxBodySize caps how much of an echo response is read.
const maxBodySize = 64 << 10

// WebResolver asks an HTTP echo service for the caller's address.
//
// Each family uses its own client whose connections are bound to the
// unspecified local address of that family, so an IPv6 lookup reports the
// address the OS picks for outgoing IPv6 traffic.
type WebResolver struct {
	urls    map[Family]string
	clients map[Family]*http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// WebOption is a functional option for configuring the WebResolver.
type WebOption func(*WebResolver)

// WithURL sets the echo endpoint for a family.
func WithURL(family Family, url string) WebOption {
	return func(r *WebResolver) {
		if url != "" {
			r.urls[family] = url
		}
	}
}

// WithHTTPClient overrides the client used for a family.
func WithHTTPClient(family Family, client *http.Client) WebOption {
	return func(r *WebResolver) {
		r.clients[family] = client
	}
}

// WithTimeout sets the request timeout of the default clients.
func WithTimeout(timeout time.Duration) WebOption {
	return func(r *WebResolver) {
		r.timeout = timeout
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) WebOption {
	return func(r *WebResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewWebResolver creates a WebResolver using the default endpoints unless overridden.
func NewWebResolver(opts ...WebOption) *WebResolver {
	r := &WebResolver{
		urls: map[Family]string{
			IPv4: DefaultIPv4URL,
			IPv6: DefaultIPv6URL,
		},
		clients: make(map[Family]*http.Client),
		timeout: httputil.DefaultTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if _, ok := r.clients[IPv4]; !ok {
		r.clients[IPv4] = httputil.NewClient(&httputil.ClientConfig{
			Timeout: r.timeout,
			Network: httputil.NetworkIPv4,
		})
	}
	if _, ok := r.clients[IPv6]; !ok {
		r.clients[IPv6] = httputil.NewClient(&httputil.ClientConfig{
			Timeout: r.timeout,
			Network: httputil.NetworkIPv6,
		})
	}

	return r
}

// Resolve implements Resolver.
func (r *WebResolver) Resolve(ctx context.Context, family Family) (netip.Addr, error) {
	url, ok := r.urls[family]
	client := r.clients[family]
	if !ok || client == nil {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrUnsupportedFamily, family)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := client.Do(req)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return netip.Addr{}, fmt.Errorf("requesting %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("reading response body: %w", err)
	}

	addr, err := ParseBody(body)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("parsing response from %s: %w", url, err)
	}

	addr, err = checkFamily(addr, family)
	if err != nil {
		return netip.Addr{}, err
	}

	r.logger.Debug("resolved public address",
		slog.String("family", family.String()),
		slog.String("method", "web"),
		slog.String("address", addr.String()),
	)

	return addr, nil
}

// echoJSON is the JSON shape returned by echo services such as ipify.
type echoJSON struct {
	IP string `json:"ip"`
}

// ParseBody extracts the ip field from an echo response.
//
// JSON bodies must be an object with an "ip" member. Any other body is read as
// newline-delimited key=value pairs (as served by /cdn-cgi/trace); a body that
// is a bare address on its first line is accepted as well.
func ParseBody(body []byte) (netip.Addr, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return netip.Addr{}, ErrNoAddress
	}

	if trimmed[0] == '{' {
		var echo echoJSON
		if err := json.Unmarshal(trimmed, &echo); err != nil {
			return netip.Addr{}, fmt.Errorf("decoding JSON: %w", err)
		}
		if echo.IP == "" {
			return netip.Addr{}, ErrNoAddress
		}
		return netip.ParseAddr(strings.TrimSpace(echo.IP))
	}

	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, found := strings.Cut(line, "=")
		if found && strings.TrimSpace(key) == "ip" {
			return netip.ParseAddr(strings.TrimSpace(value))
		}
		if first && !found {
			if addr, err := netip.ParseAddr(line); err == nil {
				return addr, nil
			}
		}
		first = false
	}
	if err := scanner.Err(); err != nil {
		return netip.Addr{}, fmt.Errorf("scanning body: %w", err)
	}

	return netip.Addr{}, ErrNoAddress
}
