package config

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// validateConfig performs cross-field validation on the complete configuration.
// Returns a list of validation errors.
func validateConfig(cfg *Config) []string {
	var errs []string

	if cfg.APIToken == "" {
		errs = append(errs, "api_token is required (or set DDNSWEAVER_API_TOKEN)")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level: invalid value %q (must be debug, info, warn, or error)", cfg.LogLevel))
	}

	switch cfg.LogFormat {
	case "auto", "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format: invalid value %q (must be auto, json, or text)", cfg.LogFormat))
	}

	switch cfg.AddressMethod {
	case MethodWeb, MethodDNS:
	default:
		errs = append(errs, fmt.Sprintf("address.method: invalid value %q (must be web or dns)", cfg.AddressMethod))
	}

	if cfg.Timeout < MinTimeout {
		errs = append(errs, fmt.Sprintf("address.timeout: must be at least %s, got %s", MinTimeout, cfg.Timeout))
	}

	if err := validateURL(cfg.IPv4URL); err != nil {
		errs = append(errs, "address.ipv4_url: "+err.Error())
	}
	if err := validateURL(cfg.IPv6URL); err != nil {
		errs = append(errs, "address.ipv6_url: "+err.Error())
	}
	if err := validateURL(cfg.APIEndpoint); err != nil {
		errs = append(errs, "cloudflare.api_endpoint: "+err.Error())
	}

	errs = append(errs, validateZones(cfg)...)

	return errs
}

// validateZones checks zone names and their record fragments.
func validateZones(cfg *Config) []string {
	if len(cfg.Zones) == 0 {
		return []string{"at least one [[zones]] entry is required"}
	}

	var errs []string
	seen := make(map[string]bool)
	for i, z := range cfg.Zones {
		if z.Name == "" {
			errs = append(errs, fmt.Sprintf("zones[%d]: name is required", i))
			continue
		}
		if seen[z.Name] {
			errs = append(errs, fmt.Sprintf("zones[%d]: duplicate zone %q", i, z.Name))
		}
		seen[z.Name] = true

		if _, err := publicsuffix.EffectiveTLDPlusOne(z.Name); err != nil {
			errs = append(errs, fmt.Sprintf("zones[%d]: %q is not a registrable zone: %v", i, z.Name, err))
		}

		if len(z.Records) == 0 {
			errs = append(errs, fmt.Sprintf("zones[%d] (%s): at least one record is required", i, z.Name))
		}
	}
	return errs
}

// validateURL requires an absolute http(s) URL with a host.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
}
