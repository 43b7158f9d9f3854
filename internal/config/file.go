package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"gitlab.bluewillows.net/root/ddnsweaver/internal/reconciler"
)

// FileConfig represents the configuration file structure.
// TOML is the primary format; YAML is accepted for .yml/.yaml files.
type FileConfig struct {
	APIToken string `toml:"api_token" yaml:"api_token,omitempty"`
	DryRun   *bool  `toml:"dry_run" yaml:"dry_run,omitempty"` // Pointer to distinguish unset from false

	IPv6       *FileIPv6Config       `toml:"ipv6" yaml:"ipv6,omitempty"`
	Log        *FileLogConfig        `toml:"log" yaml:"log,omitempty"`
	Address    *FileAddressConfig    `toml:"address" yaml:"address,omitempty"`
	Cloudflare *FileCloudflareConfig `toml:"cloudflare" yaml:"cloudflare,omitempty"`
	Metrics    *FileMetricsConfig    `toml:"metrics" yaml:"metrics,omitempty"`

	Zones []FileZoneConfig `toml:"zones" yaml:"zones,omitempty"`
}

// FileIPv6Config holds the IPv6 selection policy.
type FileIPv6Config struct {
	PreferEUI64    bool `toml:"prefer_eui64" yaml:"prefer_eui64,omitempty"`
	PreferOutgoing bool `toml:"prefer_outgoing" yaml:"prefer_outgoing,omitempty"`
}

// FileLogConfig holds logging settings.
type FileLogConfig struct {
	Level  string `toml:"level" yaml:"level,omitempty"`   // debug, info, warn, error
	Format string `toml:"format" yaml:"format,omitempty"` // auto, json, text
}

// FileAddressConfig holds public address lookup settings.
type FileAddressConfig struct {
	Method  string `toml:"method" yaml:"method,omitempty"` // web, dns
	IPv4URL string `toml:"ipv4_url" yaml:"ipv4_url,omitempty"`
	IPv6URL string `toml:"ipv6_url" yaml:"ipv6_url,omitempty"`
	Timeout string `toml:"timeout" yaml:"timeout,omitempty"` // Go duration format (e.g., "30s")
}

// FileCloudflareConfig holds Cloudflare API settings.
type FileCloudflareConfig struct {
	APIEndpoint string `toml:"api_endpoint" yaml:"api_endpoint,omitempty"`
}

// FileMetricsConfig holds metrics export settings.
type FileMetricsConfig struct {
	Textfile string `toml:"textfile" yaml:"textfile,omitempty"`
}

// FileZoneConfig is one zone and the record fragments managed in it.
type FileZoneConfig struct {
	Name    string   `toml:"name" yaml:"name"`
	Records []string `toml:"records" yaml:"records"`
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// interpolateEnvVars interpolates environment variables in all string fields.
func (c *FileConfig) interpolateEnvVars() {
	c.APIToken = InterpolateEnvVars(c.APIToken)

	if c.Log != nil {
		c.Log.Level = InterpolateEnvVars(c.Log.Level)
		c.Log.Format = InterpolateEnvVars(c.Log.Format)
	}

	if c.Address != nil {
		c.Address.Method = InterpolateEnvVars(c.Address.Method)
		c.Address.IPv4URL = InterpolateEnvVars(c.Address.IPv4URL)
		c.Address.IPv6URL = InterpolateEnvVars(c.Address.IPv6URL)
		c.Address.Timeout = InterpolateEnvVars(c.Address.Timeout)
	}

	if c.Cloudflare != nil {
		c.Cloudflare.APIEndpoint = InterpolateEnvVars(c.Cloudflare.APIEndpoint)
	}

	if c.Metrics != nil {
		c.Metrics.Textfile = InterpolateEnvVars(c.Metrics.Textfile)
	}

	for i := range c.Zones {
		z := &c.Zones[i]
		z.Name = InterpolateEnvVars(z.Name)
		for j := range z.Records {
			z.Records[j] = InterpolateEnvVars(z.Records[j])
		}
	}
}

// LoadFile reads and parses a configuration file. The format is chosen by
// extension: .yml and .yaml are YAML, anything else is TOML.
// Environment variables in ${VAR} format are interpolated.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("parsing TOML config: unknown keys: %s", strings.Join(keys, ", "))
		}
	}

	cfg.interpolateEnvVars()

	return &cfg, nil
}

// ToConfig converts the file config to a runtime Config, applying defaults.
// Values that cannot be converted are reported as validation messages.
func (c *FileConfig) ToConfig() (*Config, []string) {
	cfg := defaults()
	var errs []string

	cfg.APIToken = strings.TrimSpace(c.APIToken)
	if c.DryRun != nil {
		cfg.DryRun = *c.DryRun
	}

	if c.IPv6 != nil {
		cfg.IPv6.PreferEUI64 = c.IPv6.PreferEUI64
		cfg.IPv6.PreferOutgoing = c.IPv6.PreferOutgoing
	}

	if c.Log != nil {
		if c.Log.Level != "" {
			cfg.LogLevel = strings.ToLower(c.Log.Level)
		}
		if c.Log.Format != "" {
			cfg.LogFormat = strings.ToLower(c.Log.Format)
		}
	}

	if c.Address != nil {
		if c.Address.Method != "" {
			cfg.AddressMethod = strings.ToLower(c.Address.Method)
		}
		if c.Address.IPv4URL != "" {
			cfg.IPv4URL = c.Address.IPv4URL
		}
		if c.Address.IPv6URL != "" {
			cfg.IPv6URL = c.Address.IPv6URL
		}
		if c.Address.Timeout != "" {
			timeout, err := time.ParseDuration(c.Address.Timeout)
			if err != nil {
				errs = append(errs, fmt.Sprintf("address.timeout: invalid duration %q", c.Address.Timeout))
			} else {
				cfg.Timeout = timeout
			}
		}
	}

	if c.Cloudflare != nil && c.Cloudflare.APIEndpoint != "" {
		cfg.APIEndpoint = c.Cloudflare.APIEndpoint
	}

	if c.Metrics != nil {
		cfg.MetricsTextfile = c.Metrics.Textfile
	}

	for _, z := range c.Zones {
		records := make([]string, 0, len(z.Records))
		for _, r := range z.Records {
			records = append(records, normalizeRecord(r))
		}
		cfg.Zones = append(cfg.Zones, reconciler.Zone{
			Name:    normalizeZone(z.Name),
			Records: records,
		})
	}

	return cfg, errs
}

// normalizeZone lowercases a zone name and strips the root dot.
func normalizeZone(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

// normalizeRecord lowercases a record fragment to match the names Cloudflare returns.
func normalizeRecord(fragment string) string {
	return strings.ToLower(strings.TrimSpace(fragment))
}
