package models

import "time"

// Derived element statuses.
const (
	ElementNotStarted = "not_started"
	ElementInProgress = "in_progress"
	ElementCompleted  = "completed"
	ElementBlocked    = "blocked"
)

func ValidElementStatus(s string) bool {
	switch s {
	case ElementNotStarted, ElementInProgress, ElementCompleted, ElementBlocked:
		return true
	}
	return false
}

// BPMNElementStatus is the derived completion state of an element.
// Keyed by ElementID alone, so diagrams sharing an element id share a row.
type BPMNElementStatus struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ElementID   string    `gorm:"size:255;uniqueIndex;not null" json:"elementId"`
	Status      string    `gorm:"size:16;default:not_started" json:"status"`
	Progress    int       `gorm:"default:0" json:"progress"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func (BPMNElementStatus) TableName() string { return "bpmn_element_statuses" }
