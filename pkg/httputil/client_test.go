package httputil

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(nil)

	if client == nil {
		t.Fatal("NewClient returned nil")
	}

	if client.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, client.Timeout)
	}

	uaTransport, ok := client.Transport.(*userAgentTransport)
	if !ok {
		t.Fatal("expected transport to be *userAgentTransport")
	}

	if uaTransport.userAgent != DefaultUserAgent {
		t.Errorf("expected userAgent %q, got %q", DefaultUserAgent, uaTransport.userAgent)
	}

	if _, ok := uaTransport.base.(*http.Transport); !ok {
		t.Error("expected base transport to be *http.Transport")
	}
}

func TestNewClient_CustomTimeout(t *testing.T) {
	client := NewClient(&ClientConfig{Timeout: 60 * time.Second})

	if client.Timeout != 60*time.Second {
		t.Errorf("expected timeout 60s, got %v", client.Timeout)
	}
}

func TestNewClient_NonPositiveTimeout_UsesDefault(t *testing.T) {
	for _, timeout := range []time.Duration{0, -1 * time.Second} {
		client := NewClient(&ClientConfig{Timeout: timeout})

		if client.Timeout != DefaultTimeout {
			t.Errorf("timeout %v: expected default %v, got %v", timeout, DefaultTimeout, client.Timeout)
		}
	}
}

func TestNewClient_CustomUserAgent(t *testing.T) {
	client := NewClient(&ClientConfig{UserAgent: "custom-agent/2.0"})

	uaTransport, ok := client.Transport.(*userAgentTransport)
	if !ok {
		t.Fatal("expected transport to be *userAgentTransport")
	}

	if uaTransport.userAgent != "custom-agent/2.0" {
		t.Errorf("expected userAgent %q, got %q", "custom-agent/2.0", uaTransport.userAgent)
	}
}

func TestNewClient_UserAgentAppliedToRequests(t *testing.T) {
	var receivedUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUserAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{UserAgent: "test-ddnsweaver/1.2.3"})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if receivedUserAgent != "test-ddnsweaver/1.2.3" {
		t.Errorf("expected User-Agent %q, got %q", "test-ddnsweaver/1.2.3", receivedUserAgent)
	}
}

func TestNewClient_IPv4NetworkReachesIPv4Server(t *testing.T) {
	var remote string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remote = r.RemoteAddr
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{Network: NetworkIPv4})

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		t.Fatalf("parsing remote addr %q: %v", remote, err)
	}
	if ip := net.ParseIP(host); ip == nil || ip.To4() == nil {
		t.Errorf("expected an IPv4 peer address, got %q", host)
	}
}

func TestNewClient_IPv6NetworkCannotReachIPv4Server(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{Network: NetworkIPv6, Timeout: 2 * time.Second})

	resp, err := client.Get(server.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected tcp6 dial to an IPv4 listener to fail")
	}
}

func TestLocalAddr(t *testing.T) {
	if localAddr(NetworkAny) != nil {
		t.Error("expected nil local address for NetworkAny")
	}

	v4, ok := localAddr(NetworkIPv4).(*net.TCPAddr)
	if !ok || !v4.IP.Equal(net.IPv4zero) {
		t.Errorf("expected 0.0.0.0 for NetworkIPv4, got %v", localAddr(NetworkIPv4))
	}

	v6, ok := localAddr(NetworkIPv6).(*net.TCPAddr)
	if !ok || !v6.IP.Equal(net.IPv6unspecified) {
		t.Errorf("expected :: for NetworkIPv6, got %v", localAddr(NetworkIPv6))
	}
}

func TestNewClient_WithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client := NewClient(&ClientConfig{Logger: logger})

	uaTransport, ok := client.Transport.(*userAgentTransport)
	if !ok {
		t.Fatal("expected transport to be *userAgentTransport")
	}

	if uaTransport.logger != logger {
		t.Error("expected logger to be set on transport")
	}
}

func TestDefaultClient(t *testing.T) {
	client := DefaultClient()

	if client == nil {
		t.Fatal("DefaultClient returned nil")
	}

	if client.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, client.Timeout)
	}
}
