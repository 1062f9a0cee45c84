package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Issue types.
const (
	IssueTask      = "TASK"
	IssueBug       = "BUG"
	IssueUserStory = "USER_STORY"
)

// Issue statuses.
const (
	IssueToDo       = "TO_DO"
	IssueInProgress = "IN_PROGRESS"
	IssueDone       = "DONE"
)

// Issue priorities.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

func ValidIssueType(s string) bool {
	return s == IssueTask || s == IssueBug || s == IssueUserStory
}

func ValidIssueStatus(s string) bool {
	return s == IssueToDo || s == IssueInProgress || s == IssueDone
}

func ValidPriority(s string) bool {
	switch s {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Dependency notes that an issue depends on another one.
type Dependency struct {
	IssueID string `json:"issueId"`
	Note    string `json:"note"`
}

// CustomField is a free-form label/description pair attached to an issue.
type CustomField struct {
	TextField   string `json:"textField"`
	Description string `json:"description"`
}

// Issue is a tracked unit of work.
type Issue struct {
	ID                 string                           `gorm:"primaryKey;size:36" json:"id"`
	Title              string                           `gorm:"size:255;not null" json:"title"`
	Description        string                           `gorm:"type:text" json:"description,omitempty"`
	Type               string                           `gorm:"size:16;not null" json:"type"`
	Status             string                           `gorm:"size:16;default:TO_DO;index" json:"status"`
	Priority           string                           `gorm:"size:8;default:MEDIUM" json:"priority"`
	AssigneeID         *string                          `gorm:"size:36" json:"assigneeId"`
	ReporterID         string                           `gorm:"size:36;not null" json:"reporterId"`
	ProjectID          string                           `gorm:"size:36;not null;index" json:"projectId"`
	SprintID           *string                          `gorm:"size:36;index" json:"sprintId"`
	EstimatedHours     *float64                         `json:"estimatedHours,omitempty"`
	LinkedBPMNElements datatypes.JSONSlice[BPMNRef]     `gorm:"column:linked_bpmn_elements" json:"linkedBPMNElements"`
	CustomFields       datatypes.JSONSlice[CustomField] `json:"customFields"`
	Dependencies       datatypes.JSONSlice[Dependency]  `json:"dependencies"`
	Progress           *int                             `json:"progress,omitempty"`
	CreatedAt          time.Time                        `json:"createdAt"`
	UpdatedAt          time.Time                        `json:"updatedAt"`
}

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	if i.Status == "" {
		i.Status = IssueToDo
	}
	if i.Priority == "" {
		i.Priority = PriorityMedium
	}
	if i.LinkedBPMNElements == nil {
		i.LinkedBPMNElements = datatypes.JSONSlice[BPMNRef]{}
	}
	if i.CustomFields == nil {
		i.CustomFields = datatypes.JSONSlice[CustomField]{}
	}
	if i.Dependencies == nil {
		i.Dependencies = datatypes.JSONSlice[Dependency]{}
	}
	return nil
}

// HasLink reports whether the issue already carries ref.
func (i *Issue) HasLink(ref BPMNRef) bool {
	for _, l := range i.LinkedBPMNElements {
		if l.Equal(ref) {
			return true
		}
	}
	return false
}

// InSprint reports whether the issue is assigned to sprintID.
func (i *Issue) InSprint(sprintID string) bool {
	return i.SprintID != nil && *i.SprintID == sprintID
}
