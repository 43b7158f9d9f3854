// Package provider defines the provider-neutral DNS model and the interface a
// REST DNS provider must implement to be reconciled.
package provider

import (
	"context"
	"strings"
)

// RecordType represents the type of DNS record.
type RecordType string

const (
	RecordTypeA    RecordType = "A"
	RecordTypeAAAA RecordType = "AAAA"
)

// ParseRecordType normalizes a provider-reported type discriminator.
// Matching is case-insensitive; unknown types are returned upper-cased.
func ParseRecordType(s string) RecordType {
	return RecordType(strings.ToUpper(strings.TrimSpace(s)))
}

// IsAddress returns true for the record types that carry an IP address.
func (t RecordType) IsAddress() bool {
	return t == RecordTypeA || t == RecordTypeAAAA
}

// Zone is a provider-side DNS zone.
type Zone struct {
	ID   string
	Name string
}

// Record is a snapshot of a provider-side DNS record.
type Record struct {
	ID       string
	Name     string // fully-qualified name
	Type     RecordType
	Content  string
	TTL      int
	Proxied  bool
	ZoneID   string
	ZoneName string
}

// RecordPatch carries the fields of a partial record update.
// Nil fields are left untouched by the provider.
type RecordPatch struct {
	Content *string
	TTL     *int
	Proxied *bool
	Comment *string
}

// ContentPatch returns a patch that only replaces the record content.
func ContentPatch(content string) RecordPatch {
	return RecordPatch{Content: &content}
}

// Provider defines the operations the reconciler needs from a DNS provider.
type Provider interface {
	// Name returns the provider instance name.
	Name() string

	// Type returns the provider type (e.g., "cloudflare").
	Type() string

	// Ping verifies the credential against the provider.
	Ping(ctx context.Context) error

	// ListZones returns every zone visible to the credential.
	ListZones(ctx context.Context) ([]Zone, error)

	// ListRecords returns every record in the zone.
	ListRecords(ctx context.Context, zoneID string) ([]Record, error)

	// UpdateRecord applies a partial update and returns the updated record.
	UpdateRecord(ctx context.Context, zoneID, recordID string, patch RecordPatch) (Record, error)
}
