package bpmn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/gorm"
)

// CreateElementOpts holds parameters for tracking a diagram node.
type CreateElementOpts struct {
	DiagramID string
	ElementID string
	Type      string
	Name      string
}

// ElementUpdate holds optional element changes. Nil fields are left alone.
type ElementUpdate struct {
	Name *string
	Type *string
}

// CreateElement starts tracking a node of an existing diagram.
// ElementID must be unique within the diagram.
func CreateElement(db *gorm.DB, opts CreateElementOpts) (*models.BPMNElement, error) {
	opts.ElementID = strings.TrimSpace(opts.ElementID)
	if opts.DiagramID == "" {
		return nil, apperr.Invalid("element", "diagramId is required")
	}
	if opts.ElementID == "" {
		return nil, apperr.Invalid("element", "elementId is required")
	}
	if strings.TrimSpace(opts.Name) == "" {
		return nil, apperr.Invalid("element", "name is required")
	}
	if !models.ValidElementType(opts.Type) {
		return nil, apperr.Invalid("element", "type %q must be task, gateway, event or subprocess", opts.Type)
	}
	if _, err := GetDiagram(db, opts.DiagramID); err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&models.BPMNElement{}).
		Where("diagram_id = ? AND element_id = ?", opts.DiagramID, opts.ElementID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("bpmn: check element: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("element", "%s already tracked in diagram %s", opts.ElementID, opts.DiagramID)
	}

	e := models.BPMNElement{
		DiagramID: opts.DiagramID,
		ElementID: opts.ElementID,
		Type:      opts.Type,
		Name:      opts.Name,
	}
	if err := db.Create(&e).Error; err != nil {
		return nil, fmt.Errorf("bpmn: create element: %w", err)
	}
	return &e, nil
}

// GetElement retrieves an element record by its row ID.
func GetElement(db *gorm.DB, id string) (*models.BPMNElement, error) {
	var e models.BPMNElement
	if err := db.Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("element", id)
		}
		return nil, fmt.Errorf("bpmn: get element %s: %w", id, err)
	}
	return &e, nil
}

// FindElement looks an element up by its soft reference. It returns nil, nil
// when the diagram does not track that node.
func FindElement(db *gorm.DB, ref models.BPMNRef) (*models.BPMNElement, error) {
	var e models.BPMNElement
	err := db.Where("diagram_id = ? AND element_id = ?", ref.DiagramID, ref.ElementID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bpmn: find element %s/%s: %w", ref.DiagramID, ref.ElementID, err)
	}
	return &e, nil
}

// ListElements returns the tracked elements, optionally limited to one diagram.
func ListElements(db *gorm.DB, diagramID string) ([]models.BPMNElement, error) {
	q := db.Model(&models.BPMNElement{})
	if diagramID != "" {
		q = q.Where("diagram_id = ?", diagramID)
	}
	var elements []models.BPMNElement
	if err := q.Order("element_id ASC").Find(&elements).Error; err != nil {
		return nil, fmt.Errorf("bpmn: list elements: %w", err)
	}
	return elements, nil
}

// UpdateElement renames or retypes an element. Its identity is fixed.
func UpdateElement(db *gorm.DB, id string, u ElementUpdate) (*models.BPMNElement, error) {
	e, err := GetElement(db, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return nil, apperr.Invalid("element", "name cannot be empty")
		}
		updates["name"] = *u.Name
	}
	if u.Type != nil {
		if !models.ValidElementType(*u.Type) {
			return nil, apperr.Invalid("element", "type %q must be task, gateway, event or subprocess", *u.Type)
		}
		updates["type"] = *u.Type
	}
	if len(updates) > 0 {
		if err := db.Model(e).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("bpmn: update element %s: %w", id, err)
		}
	}
	return GetElement(db, id)
}

// DeleteElement stops tracking a node and removes its reference from every
// issue that linked it.
func DeleteElement(db *gorm.DB, id string) error {
	e, err := GetElement(db, id)
	if err != nil {
		return err
	}
	ref := e.Ref()

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&models.BPMNElement{}).Error; err != nil {
			return err
		}
		issues, err := IssuesLinkedTo(tx, []string{ref.ElementID})
		if err != nil {
			return err
		}
		for i := range issues {
			if !issues[i].HasLink(ref) {
				continue
			}
			if err := saveIssueLinks(tx, issues[i].ID, withoutRef(issues[i].LinkedBPMNElements, ref)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bpmn: delete element %s: %w", id, err)
	}
	return nil
}
