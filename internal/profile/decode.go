package profile

import (
	"encoding/json"
	"strings"
)

// The backend sometimes returns string fields with an extra layer of JSON
// encoding (`"\"https://...\""`), and array fields as a JSON array serialized
// into a string. These helpers unwrap both shapes at the data-access boundary
// so every caller sees plain values.

// decodeString normalizes a raw JSON value into a plain string, peeling any
// extra quoting layers. Invalid input decodes to the empty string.
func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	s := string(raw)
	for strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal([]byte(s), &unquoted); err != nil {
			return ""
		}
		if unquoted == s {
			break
		}
		s = unquoted
	}
	return s
}

// decodeStringSlice normalizes a raw JSON value into a string slice, whether
// it arrives as a plain array, a string-wrapped array or a single URL.
func decodeStringSlice(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var direct []string
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct
	}

	// Either a string-wrapped array or a bare string value
	s := decodeString(raw)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var wrapped []string
		if err := json.Unmarshal([]byte(s), &wrapped); err == nil {
			return wrapped
		}
		return nil
	}
	return []string{s}
}
