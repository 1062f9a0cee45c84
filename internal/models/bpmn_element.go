package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BPMN element kinds. No behavior differs per kind.
const (
	ElementTask       = "task"
	ElementGateway    = "gateway"
	ElementEvent      = "event"
	ElementSubprocess = "subprocess"
)

func ValidElementType(s string) bool {
	switch s {
	case ElementTask, ElementGateway, ElementEvent, ElementSubprocess:
		return true
	}
	return false
}

// BPMNElement is a tracked node of a diagram. ElementID matches the node id in the XML.
type BPMNElement struct {
	ID             string                      `gorm:"primaryKey;size:36" json:"id"`
	DiagramID      string                      `gorm:"size:36;not null;index" json:"diagramId"`
	ElementID      string                      `gorm:"size:255;not null;index" json:"elementId"`
	Type           string                      `gorm:"size:16;not null" json:"type"`
	Name           string                      `gorm:"size:255;not null" json:"name"`
	LinkedIssueIDs datatypes.JSONSlice[string] `gorm:"column:linked_issue_ids" json:"linkedIssueIds"`
}

func (BPMNElement) TableName() string { return "bpmn_elements" }

func (e *BPMNElement) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	if e.LinkedIssueIDs == nil {
		e.LinkedIssueIDs = datatypes.JSONSlice[string]{}
	}
	return nil
}

// Ref returns the soft reference issues use to point at this element.
func (e *BPMNElement) Ref() BPMNRef {
	return BPMNRef{DiagramID: e.DiagramID, ElementID: e.ElementID}
}

// HasIssue reports whether issueID is in the element's linked set.
func (e *BPMNElement) HasIssue(issueID string) bool {
	for _, id := range e.LinkedIssueIDs {
		if id == issueID {
			return true
		}
	}
	return false
}
