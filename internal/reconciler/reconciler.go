// Package reconciler pushes the addresses determined for a run into the
// configured provider records.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gitlab.bluewillows.net/root/ddnsweaver/internal/detect"
	"gitlab.bluewillows.net/root/ddnsweaver/internal/metrics"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/provider"
)

// Zone is a configured zone and the record fragments managed in it.
type Zone struct {
	// Name is the DNS zone, e.g. "example.com".
	Name string

	// Records are name fragments joined with Name; "@" is the apex.
	Records []string
}

// Config holds reconciler configuration options.
type Config struct {
	// Zones are processed in order.
	Zones []Zone

	// DryRun if true, logs changes without applying them.
	DryRun bool
}

// Reconciler patches every configured record with the current address.
//
// Zones and records are handled strictly in order. Soft failures skip the
// current zone or record; a transport failure aborts the run and leaves
// later zones untouched. Records are patched on every run without comparing
// their current content.
type Reconciler struct {
	provider provider.Provider
	config   Config
	logger   *slog.Logger
}

// Option is a functional option for configuring the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger for the reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConfig sets the reconciler configuration.
func WithConfig(cfg Config) Option {
	return func(r *Reconciler) {
		r.config = cfg
	}
}

// New creates a new Reconciler writing through p.
func New(p provider.Provider, opts ...Option) *Reconciler {
	r := &Reconciler{
		provider: p,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Reconcile updates every configured record from addrs.
//
// The returned Result is never nil. A non-nil error means the run was
// aborted by a fatal provider failure or cancellation.
func (r *Reconciler) Reconcile(ctx context.Context, addrs detect.Addresses) (*Result, error) {
	r.logger.Info("starting reconciliation",
		slog.Bool("dry_run", r.config.DryRun),
		slog.Int("zones", len(r.config.Zones)),
		slog.String("provider", r.provider.Name()),
		slog.String("provider_type", r.provider.Type()),
	)

	result := NewResult(r.config.DryRun)

	for _, zone := range r.config.Zones {
		if err := ctx.Err(); err != nil {
			return r.abort(result, fmt.Errorf("reconciliation cancelled: %w", err))
		}
		if err := r.reconcileZone(ctx, zone, addrs, result); err != nil {
			return r.abort(result, err)
		}
	}

	result.Complete()

	r.logger.Info("reconciliation complete",
		slog.Duration("duration", result.Duration()),
		slog.Int("zones", result.ZonesProcessed),
		slog.Int("updated", result.UpdatedCount()),
		slog.Int("skipped", len(result.Skipped())),
		slog.Int("failed", result.FailedCount()),
	)

	return result, nil
}

func (r *Reconciler) abort(result *Result, err error) (*Result, error) {
	result.Aborted = true
	result.Complete()
	r.logger.Error("reconciliation aborted",
		slog.String("error", err.Error()),
		slog.Int("zones", result.ZonesProcessed),
		slog.Int("updated", result.UpdatedCount()),
	)
	return result, err
}

// reconcileZone handles one configured zone. Only fatal errors are returned.
func (r *Reconciler) reconcileZone(ctx context.Context, zone Zone, addrs detect.Addresses, result *Result) error {
	logger := r.logger.With(slog.String("zone", zone.Name))

	zones, err := r.provider.ListZones(ctx)
	if err != nil {
		return r.zoneFailure(logger, result, zone, err)
	}

	zoneID, ok := provider.ZoneID(zones, zone.Name)
	if !ok {
		r.skipZone(logger, result, zone, fmt.Errorf("%w: %s", provider.ErrZoneNotFound, zone.Name))
		return nil
	}

	records, err := r.provider.ListRecords(ctx, zoneID)
	if err != nil {
		return r.zoneFailure(logger, result, zone, err)
	}
	result.ZonesProcessed++

	logger.Debug("listed zone records",
		slog.String("zone_id", zoneID),
		slog.Int("count", len(records)),
	)

	for _, fragment := range zone.Records {
		fqdn := provider.FQDN(fragment, zone.Name)
		if err := r.reconcileName(ctx, logger, zone.Name, zoneID, fqdn, records, addrs, result); err != nil {
			return err
		}
	}

	return nil
}

// zoneFailure handles a failed zone or record listing, returning err if it is fatal.
func (r *Reconciler) zoneFailure(logger *slog.Logger, result *Result, zone Zone, err error) error {
	r.countProviderError(err)
	if isFatal(err) {
		return err
	}
	r.skipZone(logger, result, zone, err)
	return nil
}

// skipZone records that zone was not processed.
func (r *Reconciler) skipZone(logger *slog.Logger, result *Result, zone Zone, err error) {
	logger.Warn("skipping zone", slog.String("error", err.Error()))
	r.record(result, Action{
		Type:   ActionSkip,
		Status: StatusSkipped,
		Zone:   zone.Name,
		Error:  err.Error(),
	})
}

// record adds action to result and counts it.
func (r *Reconciler) record(result *Result, action Action) {
	result.AddAction(action)
	if action.Hostname == "" {
		return
	}
	metrics.RecordUpdatesTotal.WithLabelValues(action.Zone, action.RecordType, string(action.Status)).Inc()
}

func (r *Reconciler) countProviderError(err error) {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		metrics.ProviderErrorsTotal.WithLabelValues(apiErr.Operation, apiErr.Kind.String()).Inc()
	}
}

// isFatal reports whether err must end the run. Provider errors outside the
// classified kinds come from request construction and are treated as fatal.
func isFatal(err error) bool {
	return provider.KindOf(err) == 0 || provider.IsFatal(err)
}
