package cloudflare

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"gitlab.bluewillows.net/root/ddnsweaver/pkg/httputil"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/provider"
)

// Provider implements provider.Provider for Cloudflare DNS.
type Provider struct {
	name   string
	client *Client
	logger *slog.Logger

	httpClient *http.Client
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*Provider)

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProviderHTTPClient sets the HTTP client used for API calls.
func WithProviderHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// New creates a new Cloudflare provider instance.
func New(name string, config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		name:   name,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.httpClient == nil {
		p.httpClient = httputil.NewClient(&httputil.ClientConfig{
			Timeout: config.timeout(),
			Logger:  p.logger,
		})
	}

	// Create the API client with the same logger
	p.client = NewClient(config.Token,
		WithAPIEndpoint(config.endpoint()),
		WithHTTPClient(p.httpClient),
		WithLogger(p.logger),
	)

	return p, nil
}

// Name returns the provider instance name.
func (p *Provider) Name() string {
	return p.name
}

// Type returns "cloudflare".
func (p *Provider) Type() string {
	return "cloudflare"
}

// Ping checks connectivity to the Cloudflare API.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// VerifyToken reports the status of the configured API token.
func (p *Provider) VerifyToken(ctx context.Context) (*TokenStatus, error) {
	return p.client.VerifyToken(ctx)
}

// ListZones returns every zone visible to the token.
func (p *Provider) ListZones(ctx context.Context) ([]provider.Zone, error) {
	results, err := p.client.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}

	zones := make([]provider.Zone, 0, len(results))
	for _, z := range results {
		zones = append(zones, provider.Zone{ID: z.ID, Name: z.Name})
	}
	return zones, nil
}

// ListRecords returns every record in the zone, whatever its type.
func (p *Provider) ListRecords(ctx context.Context, zoneID string) ([]provider.Record, error) {
	results, err := p.client.ListRecords(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("listing records of zone %s: %w", zoneID, err)
	}

	records := make([]provider.Record, 0, len(results))
	for _, r := range results {
		records = append(records, r.toProvider())
	}

	p.logger.Debug("listed records",
		slog.String("provider", p.name),
		slog.String("zone_id", zoneID),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// UpdateRecord patches a record and returns its new state.
func (p *Provider) UpdateRecord(ctx context.Context, zoneID, recordID string, patch provider.RecordPatch) (provider.Record, error) {
	updated, err := p.client.PatchRecord(ctx, zoneID, recordID, patch)
	if err != nil {
		return provider.Record{}, fmt.Errorf("updating record %s: %w", recordID, err)
	}

	p.logger.Debug("updated record",
		slog.String("provider", p.name),
		slog.String("hostname", updated.Name),
		slog.String("type", updated.Type),
		slog.String("content", updated.Content),
	)

	return updated.toProvider(), nil
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)
