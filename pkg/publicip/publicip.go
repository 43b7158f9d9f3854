// Package publicip determines the host's public IPv4 and IPv6 addresses by
// asking an external address-echo service.
package publicip

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
)

// Family selects the address family of a lookup.
type Family int

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Matches reports whether addr belongs to the family.
// addr must already be unmapped.
func (f Family) Matches(addr netip.Addr) bool {
	switch f {
	case IPv4:
		return addr.Is4()
	case IPv6:
		return addr.Is6()
	default:
		return false
	}
}

var (
	// ErrNoAddress is returned when the echo response carried no address.
	ErrNoAddress = errors.New("no address in response")

	// ErrFamilyMismatch is returned when the echoed address has the wrong family.
	ErrFamilyMismatch = errors.New("address family mismatch")

	// ErrUnsupportedFamily is returned for families other than IPv4 and IPv6.
	ErrUnsupportedFamily = errors.New("unsupported address family")
)

// Resolver looks up the public address of one family.
type Resolver interface {
	Resolve(ctx context.Context, family Family) (netip.Addr, error)
}

// checkFamily unmaps addr and verifies it belongs to family.
func checkFamily(addr netip.Addr, family Family) (netip.Addr, error) {
	addr = addr.Unmap()
	if !family.Matches(addr) {
		return netip.Addr{}, fmt.Errorf("%w: got %s, want %s", ErrFamilyMismatch, addr, family)
	}
	return addr, nil
}
