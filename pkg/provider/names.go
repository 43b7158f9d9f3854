package provider

// ZoneID returns the id of the zone whose name equals name exactly.
// A zone named "example.com" never matches a lookup for "sub.example.com".
func ZoneID(zones []Zone, name string) (string, bool) {
	for _, z := range zones {
		if z.Name == name {
			return z.ID, true
		}
	}
	return "", false
}

// MatchRecords filters records down to the address records named fqdn.
//
// Records that carry fqdn but are neither A nor AAAA are excluded from the
// candidates and reported as *UnsupportedTypeError, one per record.
func MatchRecords(records []Record, fqdn string) ([]Record, []error) {
	var (
		candidates  []Record
		unsupported []error
	)
	for _, r := range records {
		if r.Name != fqdn {
			continue
		}
		t := ParseRecordType(string(r.Type))
		if !t.IsAddress() {
			unsupported = append(unsupported, &UnsupportedTypeError{
				Name:     r.Name,
				Type:     t,
				RecordID: r.ID,
			})
			continue
		}
		r.Type = t
		candidates = append(candidates, r)
	}
	return candidates, unsupported
}

// FQDN joins a record fragment with its zone name.
// The fragments "@" and "" denote the zone apex.
func FQDN(fragment, zone string) string {
	if fragment == "" || fragment == "@" {
		return zone
	}
	return fragment + "." + zone
}
