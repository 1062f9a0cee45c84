package models

// BPMNRef is a soft reference from an issue to a node inside a diagram's XML.
// Both fields are opaque identifiers; the store enforces no integrity on them.
type BPMNRef struct {
	DiagramID string `json:"diagramId"`
	ElementID string `json:"elementId"`
}

// Equal is exact string match on both fields.
func (r BPMNRef) Equal(o BPMNRef) bool {
	return r.DiagramID == o.DiagramID && r.ElementID == o.ElementID
}
