package publicip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "json", body: `{"ip":"203.0.113.9"}`, want: "203.0.113.9"},
		{name: "json with whitespace", body: "  {\"ip\": \"2a00:1450::1\"}\n", want: "2a00:1450::1"},
		{name: "trace body", body: "fl=123\nh=example.com\nip=198.51.100.4\nts=1700000000\n", want: "198.51.100.4"},
		{name: "trace body with spaces", body: "ip = 198.51.100.4", want: "198.51.100.4"},
		{name: "bare address", body: "198.51.100.7\n", want: "198.51.100.7"},
		{name: "empty", body: "", wantErr: true},
		{name: "json without ip", body: `{"addr":"203.0.113.9"}`, wantErr: true},
		{name: "json invalid", body: `{"ip":`, wantErr: true},
		{name: "no ip key", body: "fl=123\nh=example.com\n", wantErr: true},
		{name: "garbage ip", body: "ip=not-an-address", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBody([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func newEchoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWebResolver_ResolveIPv4(t *testing.T) {
	server := newEchoServer(t, http.StatusOK, `{"ip":"203.0.113.9"}`)

	r := NewWebResolver(
		WithURL(IPv4, server.URL),
		WithHTTPClient(IPv4, server.Client()),
		WithLogger(testLogger()),
	)

	addr, err := r.Resolve(context.Background(), IPv4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != netip.MustParseAddr("203.0.113.9") {
		t.Errorf("got %s, want 203.0.113.9", addr)
	}
}

func TestWebResolver_UnmapsMappedAddress(t *testing.T) {
	server := newEchoServer(t, http.StatusOK, "ip=::ffff:203.0.113.9\n")

	r := NewWebResolver(
		WithURL(IPv4, server.URL),
		WithHTTPClient(IPv4, server.Client()),
		WithLogger(testLogger()),
	)

	addr, err := r.Resolve(context.Background(), IPv4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !addr.Is4() || addr.String() != "203.0.113.9" {
		t.Errorf("expected unmapped IPv4 address, got %s", addr)
	}
}

func TestWebResolver_FamilyMismatch(t *testing.T) {
	server := newEchoServer(t, http.StatusOK, `{"ip":"203.0.113.9"}`)

	r := NewWebResolver(
		WithURL(IPv6, server.URL),
		WithHTTPClient(IPv6, server.Client()),
		WithLogger(testLogger()),
	)

	_, err := r.Resolve(context.Background(), IPv6)
	if !errors.Is(err, ErrFamilyMismatch) {
		t.Errorf("expected ErrFamilyMismatch, got %v", err)
	}
}

func TestWebResolver_HTTPError(t *testing.T) {
	server := newEchoServer(t, http.StatusServiceUnavailable, "down")

	r := NewWebResolver(
		WithURL(IPv4, server.URL),
		WithHTTPClient(IPv4, server.Client()),
		WithLogger(testLogger()),
	)

	if _, err := r.Resolve(context.Background(), IPv4); err == nil {
		t.Error("expected error for 503 response")
	}
}

func TestWebResolver_TransportError(t *testing.T) {
	server := newEchoServer(t, http.StatusOK, "")
	url := server.URL
	server.Close()

	r := NewWebResolver(
		WithURL(IPv4, url),
		WithTimeout(2*time.Second),
		WithLogger(testLogger()),
	)

	if _, err := r.Resolve(context.Background(), IPv4); err == nil {
		t.Error("expected error for closed server")
	}
}

func TestWebResolver_UnsupportedFamily(t *testing.T) {
	r := NewWebResolver(WithLogger(testLogger()))

	_, err := r.Resolve(context.Background(), Family(5))
	if !errors.Is(err, ErrUnsupportedFamily) {
		t.Errorf("expected ErrUnsupportedFamily, got %v", err)
	}
}

func TestNewWebResolver_Defaults(t *testing.T) {
	r := NewWebResolver()

	if r.urls[IPv4] != DefaultIPv4URL {
		t.Errorf("expected default IPv4 URL, got %q", r.urls[IPv4])
	}
	if r.urls[IPv6] != DefaultIPv6URL {
		t.Errorf("expected default IPv6 URL, got %q", r.urls[IPv6])
	}
	if r.clients[IPv4] == nil || r.clients[IPv6] == nil {
		t.Error("expected per-family clients to be created")
	}
	if r.clients[IPv4] == r.clients[IPv6] {
		t.Error("expected distinct clients per family")
	}
}

func TestFamily_String(t *testing.T) {
	if IPv4.String() != "ipv4" || IPv6.String() != "ipv6" {
		t.Errorf("unexpected family names %q %q", IPv4, IPv6)
	}
}
