package models

import "time"

// Change log event kinds.
const (
	ChangeAdded   = "added"
	ChangeDeleted = "deleted"
	ChangeUpdate  = "update"
	ChangeLink    = "link"
	ChangeUnlink  = "unlink"
)

func ValidChangeType(s string) bool {
	switch s {
	case ChangeAdded, ChangeDeleted, ChangeUpdate, ChangeLink, ChangeUnlink:
		return true
	}
	return false
}

// BPMNChangeLog is one append-only audit entry for a diagram.
type BPMNChangeLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	DiagramID   string    `gorm:"column:bpmn_diagram_id;size:36;not null;index" json:"bpmnDiagramId"`
	ElementID   string    `gorm:"size:255;not null" json:"elementId"`
	ElementName string    `gorm:"size:255" json:"elementName"`
	ElementType string    `gorm:"size:64;not null" json:"elementType"`
	ChangeType  string    `gorm:"size:8;not null" json:"changeType"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (BPMNChangeLog) TableName() string { return "bpmn_change_logs" }
