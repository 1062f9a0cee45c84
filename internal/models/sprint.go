package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Sprint statuses. COMPLETED is terminal.
const (
	SprintPlanning  = "PLANNING"
	SprintActive    = "ACTIVE"
	SprintCompleted = "COMPLETED"
)

// ValidSprintStatus reports whether s is a known sprint status.
func ValidSprintStatus(s string) bool {
	switch s {
	case SprintPlanning, SprintActive, SprintCompleted:
		return true
	}
	return false
}

// Sprint is a fixed date range of work within one project.
type Sprint struct {
	ID          string                      `gorm:"primaryKey;size:36" json:"id"`
	Name        string                      `gorm:"size:255;not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description,omitempty"`
	StartDate   time.Time                   `gorm:"not null" json:"startDate"`
	EndDate     time.Time                   `gorm:"not null" json:"endDate"`
	ProjectID   string                      `gorm:"size:36;not null;index" json:"projectId"`
	IssueIDs    datatypes.JSONSlice[string] `gorm:"column:issue_ids" json:"issueIds"`
	Status      string                      `gorm:"size:16;default:PLANNING;index" json:"status"`
	CompletedAt *time.Time                  `json:"completedAt,omitempty"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

func (s *Sprint) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	if s.IssueIDs == nil {
		s.IssueIDs = datatypes.JSONSlice[string]{}
	}
	if s.Status == "" {
		s.Status = SprintPlanning
	}
	return nil
}

// HasIssue reports whether issueID is in the sprint's issue set.
func (s *Sprint) HasIssue(issueID string) bool {
	for _, id := range s.IssueIDs {
		if id == issueID {
			return true
		}
	}
	return false
}
