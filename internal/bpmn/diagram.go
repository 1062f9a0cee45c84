// Package bpmn manages process diagrams, their tracked elements, the links
// between elements and issues, derived element statuses and change logs.
package bpmn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/gorm"
)

// CreateDiagramOpts holds parameters for creating a diagram.
type CreateDiagramOpts struct {
	Name        string
	Description string
	ProjectID   string
	XML         string
}

// DiagramUpdate holds optional diagram changes. Nil fields are left alone.
// Snapshots are never touched through an update.
type DiagramUpdate struct {
	Name             *string
	Description      *string
	XML              *string
	LastCommittedXML *string
}

// CreateDiagram stores a new diagram for an existing project.
func CreateDiagram(db *gorm.DB, opts CreateDiagramOpts) (*models.BPMNDiagram, error) {
	opts.Name = strings.TrimSpace(opts.Name)
	if opts.Name == "" {
		return nil, apperr.Invalid("diagram", "name is required")
	}
	if opts.ProjectID == "" {
		return nil, apperr.Invalid("diagram", "projectId is required")
	}
	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", opts.ProjectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("bpmn: check project %s: %w", opts.ProjectID, err)
	}
	if count == 0 {
		return nil, apperr.NotFound("project", opts.ProjectID)
	}

	d := models.BPMNDiagram{
		Name:        opts.Name,
		Description: opts.Description,
		ProjectID:   opts.ProjectID,
		XML:         opts.XML,
	}
	if err := db.Create(&d).Error; err != nil {
		return nil, fmt.Errorf("bpmn: create diagram: %w", err)
	}
	return &d, nil
}

// GetDiagram retrieves a diagram by ID.
func GetDiagram(db *gorm.DB, id string) (*models.BPMNDiagram, error) {
	var d models.BPMNDiagram
	if err := db.Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("diagram", id)
		}
		return nil, fmt.Errorf("bpmn: get diagram %s: %w", id, err)
	}
	return &d, nil
}

// ListDiagrams returns diagrams, optionally limited to one project, newest first.
func ListDiagrams(db *gorm.DB, projectID string) ([]models.BPMNDiagram, error) {
	q := db.Model(&models.BPMNDiagram{})
	if projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}
	var diagrams []models.BPMNDiagram
	if err := q.Order("created_at DESC").Find(&diagrams).Error; err != nil {
		return nil, fmt.Errorf("bpmn: list diagrams: %w", err)
	}
	return diagrams, nil
}

// UpdateDiagram applies changes and returns the updated diagram.
func UpdateDiagram(db *gorm.DB, id string, u DiagramUpdate) (*models.BPMNDiagram, error) {
	d, err := GetDiagram(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, apperr.Invalid("diagram", "name cannot be empty")
		}
		updates["name"] = name
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.XML != nil {
		updates["xml"] = *u.XML
	}
	if u.LastCommittedXML != nil {
		updates["last_committed_xml"] = *u.LastCommittedXML
	}

	if len(updates) > 0 {
		if err := db.Model(d).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("bpmn: update diagram %s: %w", id, err)
		}
	}
	return GetDiagram(db, id)
}

// DeleteDiagram removes a diagram with its elements and change log, and
// drops references to it from linked issues.
func DeleteDiagram(db *gorm.DB, id string) error {
	if _, err := GetDiagram(db, id); err != nil {
		return err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("diagram_id = ?", id).Delete(&models.BPMNElement{}).Error; err != nil {
			return fmt.Errorf("delete elements: %w", err)
		}
		if err := tx.Where("bpmn_diagram_id = ?", id).Delete(&models.BPMNChangeLog{}).Error; err != nil {
			return fmt.Errorf("delete change logs: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.BPMNDiagram{}).Error; err != nil {
			return err
		}

		issues, err := IssuesInDiagram(tx, id)
		if err != nil {
			return err
		}
		for i := range issues {
			kept := issues[i].LinkedBPMNElements[:0]
			for _, ref := range issues[i].LinkedBPMNElements {
				if ref.DiagramID != id {
					kept = append(kept, ref)
				}
			}
			if err := saveIssueLinks(tx, issues[i].ID, kept); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bpmn: delete diagram %s: %w", id, err)
	}
	return nil
}
