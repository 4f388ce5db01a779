package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringMap is a jsonb-backed map used for per-location values on a line item
// (derived stock codes, resolved external product IDs). A missing key means
// the value could not be derived or resolved.
type StringMap map[string]string

// Value marshals the map into jsonb.
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("string map: marshal: %w", err)
	}
	return string(raw), nil
}

// Scan decodes jsonb into the map.
func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("string map: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*m = StringMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}
