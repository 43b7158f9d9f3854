package cloudflare

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "token only",
			config: Config{Token: "abc"},
		},
		{
			name:   "custom endpoint",
			config: Config{Token: "abc", APIEndpoint: "http://127.0.0.1:8080/client/v4"},
		},
		{
			name:    "missing token",
			config:  Config{},
			wantErr: "token is required",
		},
		{
			name:    "relative endpoint",
			config:  Config{Token: "abc", APIEndpoint: "/client/v4"},
			wantErr: "must use http or https",
		},
		{
			name:    "unparseable endpoint",
			config:  Config{Token: "abc", APIEndpoint: "http://[::1"},
			wantErr: "malformed",
		},
		{
			name:    "endpoint without host",
			config:  Config{Token: "abc", APIEndpoint: "https://"},
			wantErr: "has no host",
		},
		{
			name:    "endpoint with query",
			config:  Config{Token: "abc", APIEndpoint: "https://api.example.com/v4?x=1"},
			wantErr: "query or fragment",
		},
		{
			name:    "negative timeout",
			config:  Config{Token: "abc", Timeout: -time.Second},
			wantErr: "timeout must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	c := &Config{Token: "abc"}

	if c.endpoint() != DefaultAPIEndpoint {
		t.Errorf("expected default endpoint, got %s", c.endpoint())
	}
	if c.timeout() != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", c.timeout())
	}

	c.Timeout = 5 * time.Second
	if c.timeout() != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", c.timeout())
	}
}
