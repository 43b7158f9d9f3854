package cloudflare

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds Cloudflare-specific configuration.
type Config struct {
	Token       string        // API token (Bearer authentication)
	APIEndpoint string        // Base URL; defaults to DefaultAPIEndpoint
	Timeout     time.Duration // Per-request timeout; defaults to DefaultTimeout
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if c.Token == "" {
		errs = append(errs, "token is required")
	}
	if c.APIEndpoint != "" {
		if err := validateEndpoint(c.APIEndpoint); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("cloudflare config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// endpoint returns the configured base URL or the default.
func (c *Config) endpoint() string {
	if c.APIEndpoint == "" {
		return DefaultAPIEndpoint
	}
	return c.APIEndpoint
}

// timeout returns the configured request timeout or the default.
func (c *Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// validateEndpoint requires an absolute http(s) URL without query or fragment.
func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("api endpoint %q is malformed: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api endpoint %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("api endpoint %q has no host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("api endpoint %q must not carry a query or fragment", raw)
	}
	return nil
}
