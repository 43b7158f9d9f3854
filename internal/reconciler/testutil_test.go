package reconciler

import (
	"context"
	"io"
	"log/slog"
	"net/netip"
	"sync"

	"gitlab.bluewillows.net/root/ddnsweaver/internal/detect"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/provider"
)

// patchCall records one UpdateRecord invocation.
type patchCall struct {
	ZoneID   string
	RecordID string
	Content  string
	Patch    provider.RecordPatch
}

// testMockProvider implements provider.Provider for testing.
// It tracks all calls for verification.
type testMockProvider struct {
	name string

	mu      sync.Mutex
	zones   []provider.Zone
	records map[string][]provider.Record // by zone id
	patched []patchCall

	listZonesCalls int

	// listZonesErr returns an error for the n-th (1-based) ListZones call.
	listZonesErr   map[int]error
	listRecordsErr map[string]error // by zone id
	updateErr      map[string]error // by record id
}

func newTestMockProvider() *testMockProvider {
	return &testMockProvider{
		name:           "mock",
		records:        make(map[string][]provider.Record),
		listZonesErr:   make(map[int]error),
		listRecordsErr: make(map[string]error),
		updateErr:      make(map[string]error),
	}
}

func (m *testMockProvider) Name() string { return m.name }
func (m *testMockProvider) Type() string { return "mock" }

func (m *testMockProvider) Ping(_ context.Context) error { return nil }

func (m *testMockProvider) ListZones(_ context.Context) ([]provider.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listZonesCalls++
	if err := m.listZonesErr[m.listZonesCalls]; err != nil {
		return nil, err
	}
	result := make([]provider.Zone, len(m.zones))
	copy(result, m.zones)
	return result, nil
}

func (m *testMockProvider) ListRecords(_ context.Context, zoneID string) ([]provider.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.listRecordsErr[zoneID]; err != nil {
		return nil, err
	}
	result := make([]provider.Record, len(m.records[zoneID]))
	copy(result, m.records[zoneID])
	return result, nil
}

func (m *testMockProvider) UpdateRecord(_ context.Context, zoneID, recordID string, patch provider.RecordPatch) (provider.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.updateErr[recordID]; err != nil {
		return provider.Record{}, err
	}

	call := patchCall{ZoneID: zoneID, RecordID: recordID, Patch: patch}
	if patch.Content != nil {
		call.Content = *patch.Content
	}
	m.patched = append(m.patched, call)

	for _, r := range m.records[zoneID] {
		if r.ID == recordID {
			r.Content = call.Content
			return r, nil
		}
	}
	return provider.Record{ID: recordID, ZoneID: zoneID, Content: call.Content}, nil
}

func (m *testMockProvider) addZone(id, name string, records ...provider.Record) {
	m.zones = append(m.zones, provider.Zone{ID: id, Name: name})
	for i := range records {
		records[i].ZoneID = id
		records[i].ZoneName = name
	}
	m.records[id] = append(m.records[id], records...)
}

func (m *testMockProvider) patches() []patchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]patchCall, len(m.patched))
	copy(out, m.patched)
	return out
}

func record(id, name string, typ provider.RecordType, content string) provider.Record {
	return provider.Record{ID: id, Name: name, Type: typ, Content: content, TTL: 1, Proxied: true}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReconciler(p provider.Provider, cfg Config) *Reconciler {
	return New(p, WithConfig(cfg), WithLogger(testLogger()))
}

func bothFamilies() detect.Addresses {
	return detect.Addresses{
		IPv4: netip.MustParseAddr("203.0.113.9"),
		IPv6: netip.MustParseAddr("2a00:1450:4001:81c::10"),
	}
}

func transportErr(op string) error {
	return &provider.APIError{Kind: provider.KindTransport, Operation: op, Err: io.ErrUnexpectedEOF}
}

func httpErr(op string, status int) error {
	return &provider.APIError{Kind: provider.KindHTTPStatus, Operation: op, StatusCode: status}
}

func bodyErr(op string) error {
	return &provider.APIError{Kind: provider.KindBodyInvalid, Operation: op, Err: io.ErrUnexpectedEOF}
}

func noSuccessErr(op string) error {
	return &provider.APIError{Kind: provider.KindNoSuccess, Operation: op, Messages: []string{"rejected"}}
}
