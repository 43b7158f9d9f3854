package detect

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"testing"

	"gitlab.bluewillows.net/root/ddnsweaver/pkg/addrselect"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/provider"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/publicip"
)

type fakeResolver struct {
	addrs map[publicip.Family]string
	errs  map[publicip.Family]error
	calls []publicip.Family
}

func (f *fakeResolver) Resolve(_ context.Context, family publicip.Family) (netip.Addr, error) {
	f.calls = append(f.calls, family)
	if err := f.errs[family]; err != nil {
		return netip.Addr{}, err
	}
	return netip.ParseAddr(f.addrs[family])
}

type fakeSelector struct {
	result   string
	err      error
	outgoing netip.Addr
	policy   addrselect.Policy
	called   bool
}

func (f *fakeSelector) Select(outgoing netip.Addr, policy addrselect.Policy) (netip.Addr, error) {
	f.called = true
	f.outgoing = outgoing
	f.policy = policy
	if f.err != nil {
		return netip.Addr{}, f.err
	}
	return netip.MustParseAddr(f.result), nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDetect_BothFamilies(t *testing.T) {
	resolver := &fakeResolver{addrs: map[publicip.Family]string{
		publicip.IPv4: "203.0.113.9",
		publicip.IPv6: "2a00:1450:4001:81c::beef",
	}}
	selector := &fakeSelector{result: "2a00:1450:4001:81c::10"}
	policy := addrselect.Policy{PreferEUI64: true}

	d := New(resolver, WithSelector(selector), WithPolicy(policy), WithLogger(discard()))
	addrs := d.Detect(context.Background())

	if addrs.IPv4.String() != "203.0.113.9" {
		t.Errorf("IPv4 = %s", addrs.IPv4)
	}
	if addrs.IPv6.String() != "2a00:1450:4001:81c::10" {
		t.Errorf("IPv6 = %s", addrs.IPv6)
	}
	if selector.outgoing.String() != "2a00:1450:4001:81c::beef" {
		t.Errorf("selector got outgoing %s", selector.outgoing)
	}
	if selector.policy != policy {
		t.Errorf("selector got policy %+v", selector.policy)
	}
	if len(resolver.calls) != 2 || resolver.calls[0] != publicip.IPv4 || resolver.calls[1] != publicip.IPv6 {
		t.Errorf("unexpected resolve order %v", resolver.calls)
	}
}

func TestDetect_IPv4FailureIsSoft(t *testing.T) {
	resolver := &fakeResolver{
		addrs: map[publicip.Family]string{publicip.IPv6: "2a00:1450:4001:81c::beef"},
		errs:  map[publicip.Family]error{publicip.IPv4: errors.New("network unreachable")},
	}

	d := New(resolver, WithSelector(&fakeSelector{result: "2a00:1450:4001:81c::10"}), WithLogger(discard()))
	addrs := d.Detect(context.Background())

	if addrs.IPv4.IsValid() {
		t.Errorf("expected IPv4 unresolved, got %s", addrs.IPv4)
	}
	if !addrs.IPv6.IsValid() {
		t.Error("expected IPv6 resolved")
	}
	if !addrs.Any() {
		t.Error("expected Any to be true")
	}
}

func TestDetect_IPv6EchoFailureSkipsSelector(t *testing.T) {
	resolver := &fakeResolver{
		addrs: map[publicip.Family]string{publicip.IPv4: "203.0.113.9"},
		errs:  map[publicip.Family]error{publicip.IPv6: errors.New("no route")},
	}
	selector := &fakeSelector{result: "2a00:1450:4001:81c::10"}

	addrs := New(resolver, WithSelector(selector), WithLogger(discard())).Detect(context.Background())

	if addrs.IPv6.IsValid() {
		t.Errorf("expected IPv6 unresolved, got %s", addrs.IPv6)
	}
	if selector.called {
		t.Error("selector must not run without an outgoing address")
	}
}

func TestDetect_SelectorFailureLeavesIPv6Unresolved(t *testing.T) {
	resolver := &fakeResolver{addrs: map[publicip.Family]string{
		publicip.IPv4: "203.0.113.9",
		publicip.IPv6: "2a00:1450:4001:81c::beef",
	}}
	selector := &fakeSelector{err: addrselect.ErrNoCandidates}

	addrs := New(resolver, WithSelector(selector), WithLogger(discard())).Detect(context.Background())

	if addrs.IPv6.IsValid() {
		t.Errorf("expected IPv6 unresolved, got %s", addrs.IPv6)
	}
	if !addrs.IPv4.IsValid() {
		t.Error("expected IPv4 resolved")
	}
}

func TestAddresses_For(t *testing.T) {
	addrs := Addresses{IPv4: netip.MustParseAddr("203.0.113.9")}

	got, err := addrs.For(provider.RecordTypeA)
	if err != nil || got.String() != "203.0.113.9" {
		t.Errorf("For(A) = %s, %v", got, err)
	}

	if _, err := addrs.For("a"); err != nil {
		t.Errorf("expected lower-case type to be accepted, got %v", err)
	}

	if _, err := addrs.For(provider.RecordTypeAAAA); !errors.Is(err, ErrAddressUnresolved) {
		t.Errorf("expected ErrAddressUnresolved for AAAA, got %v", err)
	}

	if _, err := addrs.For("CNAME"); !errors.Is(err, provider.ErrUnsupportedRecordType) {
		t.Errorf("expected ErrUnsupportedRecordType for CNAME, got %v", err)
	}
}

func TestAddresses_Any(t *testing.T) {
	if (Addresses{}).Any() {
		t.Error("expected empty Addresses to report nothing resolved")
	}
}
