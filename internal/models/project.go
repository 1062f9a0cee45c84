package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project groups sprints, issues and BPMN diagrams.
type Project struct {
	ID          string                      `gorm:"primaryKey;size:36" json:"id"`
	Name        string                      `gorm:"size:255;not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description,omitempty"`
	OwnerID     string                      `gorm:"size:36;not null;index" json:"ownerId"`
	MemberIDs   datatypes.JSONSlice[string] `gorm:"column:member_ids" json:"memberIds"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	if p.MemberIDs == nil {
		p.MemberIDs = datatypes.JSONSlice[string]{}
	}
	return nil
}
