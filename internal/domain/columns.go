// JSON-backed column types for Profile.
//
// SQLite has no native map or array column, so the completions set and the
// progress map are serialized as JSON text. Implementing sql.Scanner and
// driver.Valuer keeps the merge semantics in Go code (read, merge one key,
// write back inside a transaction) instead of relying on a string-path update
// syntax the store does not have.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringSet is an ordered set of course identifiers stored as a JSON array.
type StringSet []string

// Contains reports whether id is a member of the set.
func (s StringSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Value serializes the set as JSON. A nil set is stored as "[]" so scans
// never yield null.
func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		s = StringSet{}
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// Scan decodes a JSON array from the database column.
func (s *StringSet) Scan(src any) error {
	return scanJSON(src, s)
}

// ProgressMap maps a course identifier to a progress value in [0,100],
// stored as a JSON object.
type ProgressMap map[string]float64

// Value serializes the map as JSON. A nil map is stored as "{}".
func (m ProgressMap) Value() (driver.Value, error) {
	if m == nil {
		m = ProgressMap{}
	}
	b, err := json.Marshal(m)
	return string(b), err
}

// Scan decodes a JSON object from the database column.
func (m *ProgressMap) Scan(src any) error {
	return scanJSON(src, m)
}

// scanJSON unmarshals a text or blob column into dst, treating NULL and the
// empty string as the zero value.
func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
