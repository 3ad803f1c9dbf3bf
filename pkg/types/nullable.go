package types

import (
	"bytes"
	"encoding/json"
)

// NullableString tracks whether a string field was present in JSON, so a
// PATCH can tell "unset" (absent) from "clear" (null) from "set".
type NullableString struct {
	Valid bool
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if bytes.Equal(trimmed, []byte("null")) {
		n.Valid = true
		n.Value = nil
		return nil
	}

	var parsed string
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Valid = true
	n.Value = &parsed
	return nil
}

// Set returns a present, non-null value.
func Set(v string) NullableString {
	return NullableString{Valid: true, Value: &v}
}

// Null returns a present null.
func Null() NullableString {
	return NullableString{Valid: true}
}
