package skus

// Deriver expands a matched variant SKU into per-location stock codes. A
// catalog SKU carries a location prefix ("L-ABC123"); the derived map holds
// one code per configured location with that location's prefix swapped in.
type Deriver struct {
	prefixLength int
	prefixes     map[string]string
}

// NewDeriver builds a Deriver from the configured prefix table, keyed by
// location name ("London" -> "L-").
func NewDeriver(prefixLength int, prefixes map[string]string) *Deriver {
	copied := make(map[string]string, len(prefixes))
	for location, prefix := range prefixes {
		copied[location] = prefix
	}
	return &Deriver{prefixLength: prefixLength, prefixes: copied}
}

// DeriveLocationSKUs rewrites the SKU for every configured location. SKUs too
// short to carry a prefix yield an empty map; the caller decides how loudly to
// report that.
func (d *Deriver) DeriveLocationSKUs(sku string) map[string]string {
	if len(sku) <= d.prefixLength {
		return map[string]string{}
	}
	base := sku[d.prefixLength:]
	derived := make(map[string]string, len(d.prefixes))
	for location, prefix := range d.prefixes {
		derived[location] = prefix + base
	}
	return derived
}

// Locations returns the configured location names.
func (d *Deriver) Locations() []string {
	locations := make([]string, 0, len(d.prefixes))
	for location := range d.prefixes {
		locations = append(locations, location)
	}
	return locations
}
