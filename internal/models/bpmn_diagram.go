package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SprintSnapshot is an immutable copy of a diagram taken at sprint completion.
type SprintSnapshot struct {
	SprintID     string    `json:"sprintId"`
	SprintName   string    `json:"sprintName"`
	SprintNumber *int      `json:"sprintNumber,omitempty"`
	TakenAt      time.Time `json:"takenAt"`
	XML          string    `json:"xml"`
}

// BPMNDiagram holds a serialized process graph and its per-sprint history.
// SprintSnapshots is append-only.
type BPMNDiagram struct {
	ID               string                              `gorm:"primaryKey;size:36" json:"id"`
	Name             string                              `gorm:"size:255;not null" json:"name"`
	Description      string                              `gorm:"type:text" json:"description,omitempty"`
	ProjectID        string                              `gorm:"size:36;not null;index" json:"projectId"`
	XML              string                              `gorm:"column:xml;type:longtext" json:"xml"`
	LastCommittedXML string                              `gorm:"column:last_committed_xml;type:longtext" json:"lastCommittedXml,omitempty"`
	SprintSnapshots  datatypes.JSONSlice[SprintSnapshot] `gorm:"column:sprint_snapshots" json:"sprintSnapshots"`
	CreatedAt        time.Time                           `json:"createdAt"`
	UpdatedAt        time.Time                           `json:"updatedAt"`
}

func (BPMNDiagram) TableName() string { return "bpmn_diagrams" }

func (d *BPMNDiagram) BeforeCreate(tx *gorm.DB) error {
	assignID(&d.ID)
	if d.SprintSnapshots == nil {
		d.SprintSnapshots = datatypes.JSONSlice[SprintSnapshot]{}
	}
	return nil
}
