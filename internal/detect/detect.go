// Package detect determines the addresses to publish for a run.
//
// IPv4 is taken as reported by the echo service. IPv6 starts from the
// outgoing address reported by the echo service and is then narrowed by the
// address selector. Failures never abort a run: the affected family is left
// unresolved and a warning is logged.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"gitlab.bluewillows.net/root/ddnsweaver/internal/metrics"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/addrselect"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/provider"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/publicip"
)

// ErrAddressUnresolved marks a family whose address could not be determined.
var ErrAddressUnresolved = errors.New("address unresolved")

// Addresses holds the public addresses determined for one run.
// A zero value means the family is unresolved.
type Addresses struct {
	IPv4 netip.Addr
	IPv6 netip.Addr
}

// For returns the address published by records of type t.
func (a Addresses) For(t provider.RecordType) (netip.Addr, error) {
	var (
		addr   netip.Addr
		family publicip.Family
	)
	switch provider.ParseRecordType(string(t)) {
	case provider.RecordTypeA:
		addr, family = a.IPv4, publicip.IPv4
	case provider.RecordTypeAAAA:
		addr, family = a.IPv6, publicip.IPv6
	default:
		return netip.Addr{}, fmt.Errorf("%w: %s", provider.ErrUnsupportedRecordType, t)
	}
	if !addr.IsValid() {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrAddressUnresolved, family)
	}
	return addr, nil
}

// Any reports whether at least one family was resolved.
func (a Addresses) Any() bool {
	return a.IPv4.IsValid() || a.IPv6.IsValid()
}

// Selector picks the IPv6 address to publish.
type Selector interface {
	Select(outgoing netip.Addr, policy addrselect.Policy) (netip.Addr, error)
}

// Detector resolves both families and applies the IPv6 policy.
type Detector struct {
	resolver publicip.Resolver
	selector Selector
	policy   addrselect.Policy
	logger   *slog.Logger
}

// Option is a functional option for configuring the Detector.
type Option func(*Detector)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithPolicy sets the IPv6 selection policy.
func WithPolicy(policy addrselect.Policy) Option {
	return func(d *Detector) {
		d.policy = policy
	}
}

// WithSelector replaces the IPv6 selector.
func WithSelector(selector Selector) Option {
	return func(d *Detector) {
		if selector != nil {
			d.selector = selector
		}
	}
}

// New creates a Detector using resolver for both families.
func New(resolver publicip.Resolver, opts ...Option) *Detector {
	d := &Detector{
		resolver: resolver,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.selector == nil {
		d.selector = addrselect.New(addrselect.WithLogger(d.logger))
	}
	return d
}

// Detect resolves IPv4, then IPv6. It never fails; unresolved families are zero.
func (d *Detector) Detect(ctx context.Context) Addresses {
	var addrs Addresses

	v4, err := d.resolver.Resolve(ctx, publicip.IPv4)
	if err != nil {
		d.logger.Warn("IPv4 address unresolved", slog.String("error", err.Error()))
	} else {
		addrs.IPv4 = v4
		d.logger.Info("resolved IPv4 address", slog.String("address", v4.String()))
	}

	addrs.IPv6 = d.detectIPv6(ctx)

	metrics.SetAddressResolved(publicip.IPv4.String(), addrs.IPv4.IsValid())
	metrics.SetAddressResolved(publicip.IPv6.String(), addrs.IPv6.IsValid())

	return addrs
}

func (d *Detector) detectIPv6(ctx context.Context) netip.Addr {
	outgoing, err := d.resolver.Resolve(ctx, publicip.IPv6)
	if err != nil {
		d.logger.Warn("IPv6 address unresolved", slog.String("error", err.Error()))
		return netip.Addr{}
	}

	selected, err := d.selector.Select(outgoing, d.policy)
	if err != nil {
		d.logger.Warn("IPv6 address unresolved",
			slog.String("outgoing", outgoing.String()),
			slog.String("error", err.Error()),
		)
		return netip.Addr{}
	}

	d.logger.Info("resolved IPv6 address",
		slog.String("address", selected.String()),
		slog.String("outgoing", outgoing.String()),
	)
	return selected
}
