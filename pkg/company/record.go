// Package company holds the normalized company record produced from raw
// registry entities, together with its presentation helpers (sorting and
// CSV export).
package company

import (
	"bytes"
	"encoding/json"
)

// RawEntity is one upstream entity exactly as it appeared in a page's
// "content" array. The upstream shape is not fixed; any key may be missing.
type RawEntity map[string]json.RawMessage

// Upstream entity keys read by Normalize.
const (
	KeyName               = "name"
	KeyCity               = "city"
	KeyFoundingDate       = "foundingDate"
	KeyStatus             = "status"
	KeyRegistrationNumber = "officialRegistrationNumber"
	KeyID                 = "id"
)

// Record is the flattened projection of a registry entity.
// A nil field means the upstream omitted it (or sent null).
type Record struct {
	Name               *string `json:"name"`
	City               *string `json:"city"`
	FoundingDate       *string `json:"founding_date"`
	Status             *string `json:"status"`
	RegistrationNumber *string `json:"registration_number"`
	UUID               *string `json:"uuid"`
}

// Normalize projects a raw entity onto a Record.
func Normalize(e RawEntity) Record {
	return Record{
		Name:               e.field(KeyName),
		City:               e.field(KeyCity),
		FoundingDate:       e.field(KeyFoundingDate),
		Status:             e.field(KeyStatus),
		RegistrationNumber: e.field(KeyRegistrationNumber),
		UUID:               e.field(KeyID),
	}
}

// NormalizeAll normalizes entities preserving their order.
func NormalizeAll(entities []RawEntity) []Record {
	records := make([]Record, 0, len(entities))
	for _, e := range entities {
		records = append(records, Normalize(e))
	}
	return records
}

// field returns the value under key as text. JSON strings are unquoted,
// other scalars keep their literal form; absent keys and null yield nil.
func (e RawEntity) field(key string) *string {
	raw, ok := e[key]
	if !ok {
		return nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return &s
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		s := string(raw)
		return &s
	}
	s := buf.String()
	return &s
}

// Value dereferences an optional field, returning "" when missing.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
