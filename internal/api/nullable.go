package api

import (
	"bytes"
	"encoding/json"
)

// nullableString tells an absent key apart from an explicit null. Update
// bodies use it for references that can be cleared.
type nullableString struct {
	Set   bool
	Value string // "" when the key was null
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = ""
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// ptr returns nil when the key was absent.
func (n nullableString) ptr() *string {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}
