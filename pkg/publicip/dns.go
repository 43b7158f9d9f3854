package publicip

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// WhoamiName is the CHAOS TXT name Cloudflare's resolvers answer with the
// querying address.
const WhoamiName = "whoami.cloudflare."

// Default echo resolvers, one per family.
const (
	DefaultIPv4Server = "1.1.1.1:53"
	DefaultIPv6Server = "[2606:4700:4700::1111]:53"
)

// DNSResolver learns the public address from a DNS echo query.
type DNSResolver struct {
	servers map[Family]string
	timeout time.Duration
	logger  *slog.Logger
}

// DNSOption is a functional option for configuring the DNSResolver.
type DNSOption func(*DNSResolver)

// WithServer sets the echo server (host:port) for a family.
func WithServer(family Family, server string) DNSOption {
	return func(r *DNSResolver) {
		if server != "" {
			r.servers[family] = server
		}
	}
}

// WithDNSTimeout sets the query timeout.
func WithDNSTimeout(timeout time.Duration) DNSOption {
	return func(r *DNSResolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithDNSLogger sets a custom logger.
func WithDNSLogger(logger *slog.Logger) DNSOption {
	return func(r *DNSResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewDNSResolver creates a DNSResolver querying Cloudflare's public resolvers.
func NewDNSResolver(opts ...DNSOption) *DNSResolver {
	r := &DNSResolver{
		servers: map[Family]string{
			IPv4: DefaultIPv4Server,
			IPv6: DefaultIPv6Server,
		},
		timeout: 5 * time.Second,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve implements Resolver.
func (r *DNSResolver) Resolve(ctx context.Context, family Family) (netip.Addr, error) {
	server, ok := r.servers[family]
	if !ok {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrUnsupportedFamily, family)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(WhoamiName, dns.TypeTXT)
	msg.Question[0].Qclass = dns.ClassCHAOS
	msg.RecursionDesired = false

	client := &dns.Client{
		Net:     udpNetwork(family),
		Timeout: r.timeout,
	}

	resp, rtt, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("querying %s: %w", server, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, fmt.Errorf("querying %s: %s", server, dns.RcodeToString[resp.Rcode])
	}

	addr, err := addrFromAnswer(resp.Answer)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("querying %s: %w", server, err)
	}

	addr, err = checkFamily(addr, family)
	if err != nil {
		return netip.Addr{}, err
	}

	r.logger.Debug("resolved public address",
		slog.String("family", family.String()),
		slog.String("method", "dns"),
		slog.String("server", server),
		slog.String("address", addr.String()),
		slog.Duration("rtt", rtt),
	)

	return addr, nil
}

func udpNetwork(family Family) string {
	if family == IPv6 {
		return "udp6"
	}
	return "udp4"
}

// addrFromAnswer returns the first parseable address in a TXT answer section.
func addrFromAnswer(answer []dns.RR) (netip.Addr, error) {
	for _, rr := range answer {
		txt, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}
		for _, s := range txt.Txt {
			addr, err := netip.ParseAddr(strings.Trim(strings.TrimSpace(s), `"`))
			if err == nil {
				return addr, nil
			}
		}
	}
	return netip.Addr{}, ErrNoAddress
}
