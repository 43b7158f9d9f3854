package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gitlab.bluewillows.net/root/ddnsweaver/internal/config"
	"gitlab.bluewillows.net/root/ddnsweaver/internal/detect"
	"gitlab.bluewillows.net/root/ddnsweaver/internal/metrics"
	"gitlab.bluewillows.net/root/ddnsweaver/internal/reconciler"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/publicip"
	"gitlab.bluewillows.net/root/ddnsweaver/providers/cloudflare"
)

// providerName labels the single Cloudflare provider in logs.
const providerName = "cloudflare"

// errNoAddress is returned when neither address family could be resolved.
var errNoAddress = errors.New("no public address could be determined")

// runOnce performs one update run and records its metrics.
// The returned result is nil when the run stopped before reconciliation.
func runOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*reconciler.Result, error) {
	logger = logger.With(slog.String("run_id", uuid.NewString()))
	start := time.Now()

	logger.Info("ddnsweaver starting",
		slog.String("version", Version),
		slog.String("config", cfg.Path),
		slog.String("address_method", cfg.AddressMethod),
		slog.Bool("dry_run", cfg.DryRun),
	)

	result, err := update(ctx, cfg, logger)

	end := time.Now()
	success := err == nil && result != nil && !result.HasErrors()
	metrics.ObserveRun(end.Sub(start), end, success)
	if cfg.MetricsTextfile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			logger.Warn("failed to write metrics textfile",
				slog.String("path", cfg.MetricsTextfile),
				slog.String("error", werr.Error()),
			)
		}
	}

	return result, err
}

// update detects the current addresses and reconciles every configured record.
func update(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*reconciler.Result, error) {
	detector := detect.New(newResolver(cfg, logger),
		detect.WithLogger(logger),
		detect.WithPolicy(cfg.IPv6),
	)

	addrs := detector.Detect(ctx)
	if !addrs.Any() {
		return nil, errNoAddress
	}

	p, err := cloudflare.New(providerName, cfg.CloudflareConfig(),
		cloudflare.WithProviderLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	rec := reconciler.New(p,
		reconciler.WithConfig(cfg.ReconcilerConfig()),
		reconciler.WithLogger(logger),
	)

	return rec.Reconcile(ctx, addrs)
}

// newResolver returns the public address resolver for the configured method.
func newResolver(cfg *config.Config, logger *slog.Logger) publicip.Resolver {
	if cfg.AddressMethod == config.MethodDNS {
		return publicip.NewDNSResolver(
			publicip.WithDNSTimeout(cfg.Timeout),
			publicip.WithDNSLogger(logger),
		)
	}

	return publicip.NewWebResolver(
		publicip.WithURL(publicip.IPv4, cfg.IPv4URL),
		publicip.WithURL(publicip.IPv6, cfg.IPv6URL),
		publicip.WithTimeout(cfg.Timeout),
		publicip.WithLogger(logger),
	)
}
