// Package addrselect picks which of the host's IPv6 addresses to publish.
//
// The OS may originate traffic from a temporary privacy address. Selector
// looks at every global address bound on the same /64 as that outgoing
// address and applies a policy to choose a stable one.
package addrselect

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
)

var (
	// ErrNoCandidates means no local global address shares the outgoing /64.
	ErrNoCandidates = errors.New("no local IPv6 address on the outgoing prefix")

	// ErrOnlyOutgoing means every candidate equals the outgoing address and
	// the policy asked for something else.
	ErrOnlyOutgoing = errors.New("no candidate other than the outgoing address")

	// ErrNotIPv6 means the outgoing address is not an IPv6 address.
	ErrNotIPv6 = errors.New("outgoing address is not IPv6")
)

// Policy holds the IPv6 selection flags.
type Policy struct {
	// PreferEUI64 picks the candidate whose interface identifier was derived
	// from a local MAC address.
	PreferEUI64 bool

	// PreferOutgoing publishes the outgoing address as is.
	PreferOutgoing bool
}

// Interface is a snapshot of one local network interface.
type Interface struct {
	Name         string
	HardwareAddr net.HardwareAddr
	Addrs        []netip.Addr
}

// InterfaceLister enumerates local interfaces.
type InterfaceLister interface {
	Interfaces() ([]Interface, error)
}

// SystemInterfaces lists the host's interfaces through the net package.
type SystemInterfaces struct{}

// Interfaces implements InterfaceLister. Interfaces whose addresses cannot be
// read are returned without addresses; the errors are joined.
func (SystemInterfaces) Interfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}

	var errs []error
	result := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		entry := Interface{
			Name:         iface.Name,
			HardwareAddr: iface.HardwareAddr,
		}

		addrs, err := iface.Addrs()
		if err != nil {
			errs = append(errs, fmt.Errorf("listing addresses of %s: %w", iface.Name, err))
			result = append(result, entry)
			continue
		}
		for _, addr := range addrs {
			prefix, err := netip.ParsePrefix(addr.String())
			if err != nil {
				errs = append(errs, fmt.Errorf("parsing address %s of %s: %w", addr.String(), iface.Name, err))
				continue
			}
			entry.Addrs = append(entry.Addrs, prefix.Addr())
		}
		result = append(result, entry)
	}

	return result, errors.Join(errs...)
}

// Selector applies a Policy to the host's IPv6 addresses.
type Selector struct {
	lister InterfaceLister
	logger *slog.Logger
}

// Option is a functional option for configuring the Selector.
type Option func(*Selector)

// WithLister sets the interface source.
func WithLister(lister InterfaceLister) Option {
	return func(s *Selector) {
		if lister != nil {
			s.lister = lister
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Selector reading the system's interfaces.
func New(opts ...Option) *Selector {
	s := &Selector{
		lister: SystemInterfaces{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the address to publish given the outgoing address.
//
// Candidates are global addresses on the outgoing /64 in interface
// enumeration order. With a single candidate it is returned as is.
// Otherwise PreferEUI64 wins over PreferOutgoing, and with neither set the
// first candidate that differs from outgoing is used.
func (s *Selector) Select(outgoing netip.Addr, policy Policy) (netip.Addr, error) {
	outgoing = outgoing.Unmap()
	if !outgoing.Is6() {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrNotIPv6, outgoing)
	}

	ifaces, err := s.lister.Interfaces()
	if err != nil {
		s.logger.Warn("interface enumeration incomplete", slog.String("error", err.Error()))
	}

	candidates := Candidates(ifaces, outgoing)
	s.logger.Debug("IPv6 candidates",
		slog.String("outgoing", outgoing.String()),
		slog.Int("count", len(candidates)),
	)

	switch len(candidates) {
	case 0:
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrNoCandidates, Prefix64(outgoing))
	case 1:
		return candidates[0], nil
	}

	if policy.PreferEUI64 {
		if addr, ok := matchEUI64(ifaces, candidates); ok {
			s.logger.Debug("selected EUI-64 address", slog.String("address", addr.String()))
			return addr, nil
		}
		s.logger.Debug("no EUI-64 candidate found")
	}

	if policy.PreferOutgoing {
		return outgoing, nil
	}

	for _, c := range candidates {
		if c != outgoing {
			return c, nil
		}
	}
	return netip.Addr{}, ErrOnlyOutgoing
}

// Candidates returns the global IPv6 addresses of ifaces that share the
// outgoing /64, in enumeration order.
func Candidates(ifaces []Interface, outgoing netip.Addr) []netip.Addr {
	want := Prefix64(outgoing.Unmap())
	if !want.IsValid() {
		return nil
	}

	var out []netip.Addr
	for _, iface := range ifaces {
		for _, addr := range iface.Addrs {
			addr = addr.Unmap().WithZone("")
			if !IsGlobal(addr) {
				continue
			}
			if Prefix64(addr) != want {
				continue
			}
			out = append(out, addr)
		}
	}
	return out
}

// matchEUI64 returns the first candidate whose suffix was derived from any
// interface MAC, trying MACs in enumeration order.
func matchEUI64(ifaces []Interface, candidates []netip.Addr) (netip.Addr, bool) {
	for _, iface := range ifaces {
		id, ok := EUI64(iface.HardwareAddr)
		if !ok {
			continue
		}
		for _, c := range candidates {
			if Suffix64(c) == id {
				return c, true
			}
		}
	}
	return netip.Addr{}, false
}

// EUI64 derives the modified EUI-64 interface identifier from a 48-bit MAC:
// ff:fe is inserted between the two halves and the universal/local bit is
// flipped.
func EUI64(mac net.HardwareAddr) ([8]byte, bool) {
	var id [8]byte
	if len(mac) != 6 {
		return id, false
	}
	id[0] = mac[0] ^ 0x02
	id[1] = mac[1]
	id[2] = mac[2]
	id[3] = 0xff
	id[4] = 0xfe
	id[5] = mac[3]
	id[6] = mac[4]
	id[7] = mac[5]
	return id, true
}

// Prefix64 returns the /64 containing addr, or the zero prefix for non-IPv6.
func Prefix64(addr netip.Addr) netip.Prefix {
	if !addr.Is6() || addr.Is4In6() {
		return netip.Prefix{}
	}
	p, err := addr.WithZone("").Prefix(64)
	if err != nil {
		return netip.Prefix{}
	}
	return p
}

// Suffix64 returns the low 64 bits of an IPv6 address.
func Suffix64(addr netip.Addr) [8]byte {
	var id [8]byte
	b := addr.As16()
	copy(id[:], b[8:])
	return id
}

var (
	uniqueLocal   = netip.MustParsePrefix("fc00::/7")
	documentation = netip.MustParsePrefix("2001:db8::/32")
)

// IsGlobal reports whether addr is a globally routable IPv6 unicast address.
func IsGlobal(addr netip.Addr) bool {
	if !addr.Is6() || addr.Is4In6() || !addr.IsGlobalUnicast() {
		return false
	}
	return !uniqueLocal.Contains(addr) && !documentation.Contains(addr)
}
