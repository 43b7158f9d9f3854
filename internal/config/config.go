// Package config handles loading and validation of ddnsweaver configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gitlab.bluewillows.net/root/ddnsweaver/internal/reconciler"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/addrselect"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/publicip"
	"gitlab.bluewillows.net/root/ddnsweaver/providers/cloudflare"
)

// AppName names the configuration directory and default file.
const AppName = "ddnsweaver"

// Configuration defaults.
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "auto"
	DefaultAddressMethod = MethodWeb
	DefaultDryRun        = false
	DefaultTimeout       = 30 * time.Second
	MinTimeout           = time.Second
)

// Address echo methods.
const (
	MethodWeb = "web"
	MethodDNS = "dns"
)

// Config is the immutable configuration for one run.
type Config struct {
	// Path is the file the configuration was loaded from.
	Path string

	APIToken string
	DryRun   bool

	// IPv6 controls which local IPv6 address is published.
	IPv6 addrselect.Policy

	LogLevel  string // debug, info, warn, error
	LogFormat string // auto, json, text

	// AddressMethod is web or dns.
	AddressMethod string
	IPv4URL       string
	IPv6URL       string

	// Timeout bounds every echo lookup and provider request.
	Timeout time.Duration

	APIEndpoint string

	// MetricsTextfile is written after each run when set.
	MetricsTextfile string

	Zones []reconciler.Zone
}

// defaults returns a Config populated with default values.
func defaults() *Config {
	return &Config{
		DryRun:        DefaultDryRun,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		AddressMethod: DefaultAddressMethod,
		IPv4URL:       publicip.DefaultIPv4URL,
		IPv6URL:       publicip.DefaultIPv6URL,
		Timeout:       DefaultTimeout,
		APIEndpoint:   cloudflare.DefaultAPIEndpoint,
	}
}

// ReconcilerConfig returns the reconciler settings.
func (c *Config) ReconcilerConfig() reconciler.Config {
	zones := make([]reconciler.Zone, len(c.Zones))
	for i, z := range c.Zones {
		zones[i] = reconciler.Zone{
			Name:    z.Name,
			Records: append([]string(nil), z.Records...),
		}
	}
	return reconciler.Config{Zones: zones, DryRun: c.DryRun}
}

// CloudflareConfig returns the provider settings.
func (c *Config) CloudflareConfig() *cloudflare.Config {
	return &cloudflare.Config{
		Token:       c.APIToken,
		APIEndpoint: c.APIEndpoint,
		Timeout:     c.Timeout,
	}
}

// ResolvePath returns the configuration file to load. The flag value wins,
// then DDNSWEAVER_CONFIG, then the per-user config directory.
func ResolvePath(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if p := getEnv(envPrefix + "CONFIG"); p != "" {
		return p, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(dir, AppName, AppName+".toml"), nil
}
