// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openreview

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Value is one content field of a note. The API wraps most fields as
// {"value": ...} but older venues return bare scalars; Value unwraps either
// form and keeps the inner JSON.
type Value struct {
	raw json.RawMessage
}

// UnmarshalJSON accepts either a bare scalar/array or a {"value": ...}
// wrapper and stores the unwrapped payload.
func (v *Value) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Value != nil {
		v.raw = wrapper.Value
		return nil
	}
	v.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the unwrapped payload, so notes survive a cache
// round-trip.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// IsZero reports whether the field carried no payload.
func (v Value) IsZero() bool {
	return len(v.raw) == 0 || string(v.raw) == "null"
}

// String renders the field as a string. JSON strings are unquoted; numbers,
// booleans, and composite values render as their compact JSON text.
func (v Value) String() string {
	if v.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v.raw))
}

// StringList renders the field as a string slice. A scalar string becomes a
// one-element slice; anything else yields nil.
func (v Value) StringList() []string {
	if v.IsZero() {
		return nil
	}
	var list []string
	if err := json.Unmarshal(v.raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err == nil && s != "" {
		return []string{s}
	}
	return nil
}

// Float renders the field as a number. String payloads like "8: accept" parse
// via the numeric prefix before the first colon.
func (v Value) Float() (float64, bool) {
	if v.IsZero() {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(v.raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err != nil {
		return 0, false
	}
	head, _, _ := strings.Cut(s, ":")
	var parsed float64
	if _, err := fmt.Sscanf(strings.TrimSpace(head), "%g", &parsed); err != nil {
		return 0, false
	}
	return parsed, true
}

// Note is one note returned by the notes API: a submission, review, decision,
// meta-review, or comment, distinguished by its invitations.
type Note struct {
	ID          string           `json:"id"`
	Forum       string           `json:"forum"`
	Invitations []string         `json:"invitations"`
	Content     map[string]Value `json:"content"`
}

// HasInvitation reports whether any of the note's invitations contains the
// given fragment (e.g. "Official_Review", "Decision").
func (n Note) HasInvitation(fragment string) bool {
	for _, inv := range n.Invitations {
		if strings.Contains(inv, fragment) {
			return true
		}
	}
	return false
}

// FieldString returns the named content field as a string, or "" when absent.
func (n Note) FieldString(name string) string {
	return n.Content[name].String()
}
