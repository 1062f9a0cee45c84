// Package project provides project CRUD with cascading delete.
package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a project.
type CreateOpts struct {
	Name        string
	Description string
	OwnerID     string
	MemberIDs   []string
}

// UpdateOpts holds optional project changes. Nil fields are left alone.
type UpdateOpts struct {
	Name        *string
	Description *string
	OwnerID     *string
	MemberIDs   []string
}

// Create creates a project. The owner is always a member.
func Create(db *gorm.DB, opts CreateOpts) (*models.Project, error) {
	opts.Name = strings.TrimSpace(opts.Name)
	if opts.Name == "" {
		return nil, apperr.Invalid("project", "name is required")
	}
	if opts.OwnerID == "" {
		return nil, apperr.Invalid("project", "owner is required")
	}

	p := models.Project{
		Name:        opts.Name,
		Description: opts.Description,
		OwnerID:     opts.OwnerID,
		MemberIDs:   memberSet(opts.OwnerID, opts.MemberIDs),
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("project: create: %w", err)
	}
	return &p, nil
}

// Get retrieves a project by ID.
func Get(db *gorm.DB, id string) (*models.Project, error) {
	var p models.Project
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project", id)
		}
		return nil, fmt.Errorf("project: get %s: %w", id, err)
	}
	return &p, nil
}

// Exists reports whether a project with id is stored.
func Exists(db *gorm.DB, id string) (bool, error) {
	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("project: check %s: %w", id, err)
	}
	return count > 0, nil
}

// List returns all projects, newest first.
func List(db *gorm.DB) ([]models.Project, error) {
	var projects []models.Project
	if err := db.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	return projects, nil
}

// Update applies changes and returns the updated project.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Project, error) {
	p, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if opts.Name != nil {
		name := strings.TrimSpace(*opts.Name)
		if name == "" {
			return nil, apperr.Invalid("project", "name cannot be empty")
		}
		updates["name"] = name
	}
	if opts.Description != nil {
		updates["description"] = *opts.Description
	}
	owner := p.OwnerID
	if opts.OwnerID != nil && *opts.OwnerID != "" {
		owner = *opts.OwnerID
		updates["owner_id"] = owner
	}
	if opts.MemberIDs != nil || owner != p.OwnerID {
		members := opts.MemberIDs
		if members == nil {
			members = p.MemberIDs
		}
		updates["member_ids"] = memberSet(owner, members)
	}

	if len(updates) > 0 {
		if err := db.Model(p).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("project: update %s: %w", id, err)
		}
	}
	return Get(db, id)
}

// Delete removes a project with its issues, sprints, diagrams, diagram
// elements and change logs in one transaction.
func Delete(db *gorm.DB, id string) error {
	if _, err := Get(db, id); err != nil {
		return err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		diagramIDs := tx.Model(&models.BPMNDiagram{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("diagram_id IN (?)", diagramIDs).Delete(&models.BPMNElement{}).Error; err != nil {
			return fmt.Errorf("delete elements: %w", err)
		}
		if err := tx.Where("bpmn_diagram_id IN (?)", diagramIDs).Delete(&models.BPMNChangeLog{}).Error; err != nil {
			return fmt.Errorf("delete change logs: %w", err)
		}
		for _, m := range []interface{}{&models.BPMNDiagram{}, &models.Issue{}, &models.Sprint{}} {
			if err := tx.Where("project_id = ?", id).Delete(m).Error; err != nil {
				return fmt.Errorf("delete %T: %w", m, err)
			}
		}
		return tx.Where("id = ?", id).Delete(&models.Project{}).Error
	})
	if err != nil {
		return fmt.Errorf("project: delete %s: %w", id, err)
	}
	return nil
}

// memberSet returns members with owner first and duplicates removed.
func memberSet(owner string, members []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{owner}
	seen := map[string]bool{owner: true}
	for _, m := range members {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
