package bpmn

import (
	"fmt"
	"time"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/gorm"
)

// DuplicateWindow suppresses repeated change entries for the same element and
// change type arriving within this interval.
const DuplicateWindow = 5 * time.Second

// ChangeLimit caps how many entries ListChanges returns.
const ChangeLimit = 100

// Change is one entry submitted to AppendChanges.
type Change struct {
	ElementID   string
	ElementName string
	ElementType string
	ChangeType  string
}

// AppendChanges records changes for a diagram and returns the entries it
// stored. Entries duplicating one stored within DuplicateWindow are dropped.
func AppendChanges(db *gorm.DB, diagramID string, changes []Change) ([]models.BPMNChangeLog, error) {
	if _, err := GetDiagram(db, diagramID); err != nil {
		return nil, err
	}
	for i, c := range changes {
		if c.ElementID == "" || c.ElementType == "" {
			return nil, apperr.Invalid("changelog", "change %d: elementId and elementType are required", i)
		}
		if !models.ValidChangeType(c.ChangeType) {
			return nil, apperr.Invalid("changelog", "change %d: changeType %q is not valid", i, c.ChangeType)
		}
	}

	saved := make([]models.BPMNChangeLog, 0, len(changes))
	for _, c := range changes {
		var recent int64
		err := db.Model(&models.BPMNChangeLog{}).
			Where("bpmn_diagram_id = ? AND element_id = ? AND change_type = ? AND created_at >= ?",
				diagramID, c.ElementID, c.ChangeType, time.Now().Add(-DuplicateWindow)).
			Count(&recent).Error
		if err != nil {
			return nil, fmt.Errorf("bpmn: check duplicate change: %w", err)
		}
		if recent > 0 {
			continue
		}

		entry := models.BPMNChangeLog{
			DiagramID:   diagramID,
			ElementID:   c.ElementID,
			ElementName: c.ElementName,
			ElementType: c.ElementType,
			ChangeType:  c.ChangeType,
		}
		if err := db.Create(&entry).Error; err != nil {
			return nil, fmt.Errorf("bpmn: append change: %w", err)
		}
		saved = append(saved, entry)
	}
	return saved, nil
}

// ListChanges returns the newest ChangeLimit entries of a diagram, newest first.
func ListChanges(db *gorm.DB, diagramID string) ([]models.BPMNChangeLog, error) {
	var out []models.BPMNChangeLog
	err := db.Where("bpmn_diagram_id = ?", diagramID).
		Order("created_at DESC, id DESC").
		Limit(ChangeLimit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("bpmn: list changes %s: %w", diagramID, err)
	}
	return out, nil
}

// ResetChanges clears a diagram's change log and returns how many entries
// were removed.
func ResetChanges(db *gorm.DB, diagramID string) (int64, error) {
	res := db.Where("bpmn_diagram_id = ?", diagramID).Delete(&models.BPMNChangeLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("bpmn: reset changes %s: %w", diagramID, res.Error)
	}
	return res.RowsAffected, nil
}
