// Package issue provides issue CRUD, status changes and the issue side of
// sprint and BPMN element links.
package issue

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/bpmn"
	"github.com/zulandar/aegis/internal/models"
	"github.com/zulandar/aegis/internal/sprint"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NoSprint is the ListFilters.SprintID value selecting backlog issues.
const NoSprint = "null"

// CreateOpts holds parameters for creating an issue.
type CreateOpts struct {
	Title              string
	Description        string
	Type               string
	Status             string
	Priority           string
	AssigneeID         string
	ReporterID         string
	ProjectID          string
	SprintID           string
	EstimatedHours     *float64
	Progress           *int
	LinkedBPMNElements []models.BPMNRef
	CustomFields       []models.CustomField
	Dependencies       []models.Dependency
}

// UpdateOpts holds optional issue changes. Nil fields are left alone.
// An empty AssigneeID or SprintID clears the field.
type UpdateOpts struct {
	Title          *string
	Description    *string
	Type           *string
	Status         *string
	Priority       *string
	AssigneeID     *string
	SprintID       *string
	EstimatedHours *float64
	Progress       *int
	CustomFields   []models.CustomField
	Dependencies   []models.Dependency
}

// ListFilters holds optional filters for listing issues.
type ListFilters struct {
	ProjectID  string
	SprintID   string // NoSprint selects issues without a sprint
	Type       string
	Status     string
	AssigneeID string
}

func validateEnums(typ, status, priority string) error {
	if typ != "" && !models.ValidIssueType(typ) {
		return apperr.Invalid("issue", "type %q must be TASK, BUG or USER_STORY", typ)
	}
	if status != "" && !models.ValidIssueStatus(status) {
		return apperr.Invalid("issue", "status %q must be TO_DO, IN_PROGRESS or DONE", status)
	}
	if priority != "" && !models.ValidPriority(priority) {
		return apperr.Invalid("issue", "priority %q must be LOW, MEDIUM, HIGH or URGENT", priority)
	}
	return nil
}

func validateProgress(p *int) error {
	if p != nil && (*p < 0 || *p > 100) {
		return apperr.Invalid("issue", "progress %d must be between 0 and 100", *p)
	}
	return nil
}

// Create creates an issue. A sprint assignment and element links given at
// creation are mirrored onto the sprint and any tracked elements.
func Create(db *gorm.DB, opts CreateOpts) (*models.Issue, error) {
	opts.Title = strings.TrimSpace(opts.Title)
	if opts.Title == "" {
		return nil, apperr.Invalid("issue", "title is required")
	}
	if opts.Type == "" {
		return nil, apperr.Invalid("issue", "type is required")
	}
	if opts.ProjectID == "" {
		return nil, apperr.Invalid("issue", "projectId is required")
	}
	if opts.ReporterID == "" {
		return nil, apperr.Invalid("issue", "reporterId is required")
	}
	if err := validateEnums(opts.Type, opts.Status, opts.Priority); err != nil {
		return nil, err
	}
	if err := validateProgress(opts.Progress); err != nil {
		return nil, err
	}
	for _, ref := range opts.LinkedBPMNElements {
		if ref.DiagramID == "" || ref.ElementID == "" {
			return nil, apperr.Invalid("issue", "linked elements need diagramId and elementId")
		}
	}

	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", opts.ProjectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("issue: check project %s: %w", opts.ProjectID, err)
	}
	if count == 0 {
		return nil, apperr.NotFound("project", opts.ProjectID)
	}

	is := models.Issue{
		Title:          opts.Title,
		Description:    opts.Description,
		Type:           opts.Type,
		Status:         opts.Status,
		Priority:       opts.Priority,
		ReporterID:     opts.ReporterID,
		ProjectID:      opts.ProjectID,
		EstimatedHours: opts.EstimatedHours,
		Progress:       opts.Progress,
		CustomFields:   datatypes.JSONSlice[models.CustomField](opts.CustomFields),
		Dependencies:   datatypes.JSONSlice[models.Dependency](opts.Dependencies),
	}
	if opts.AssigneeID != "" {
		is.AssigneeID = &opts.AssigneeID
	}
	if err := db.Create(&is).Error; err != nil {
		return nil, fmt.Errorf("issue: create: %w", err)
	}

	if opts.SprintID != "" {
		if _, err := sprint.AssignIssue(db, is.ID, opts.SprintID); err != nil {
			return nil, err
		}
	}
	for _, ref := range opts.LinkedBPMNElements {
		if _, err := bpmn.LinkRef(db, is.ID, ref); err != nil {
			return nil, err
		}
	}
	return Get(db, is.ID)
}

// Get retrieves an issue by ID.
func Get(db *gorm.DB, id string) (*models.Issue, error) {
	var is models.Issue
	if err := db.Where("id = ?", id).First(&is).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("issue", id)
		}
		return nil, fmt.Errorf("issue: get %s: %w", id, err)
	}
	return &is, nil
}

// List returns issues matching filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.Issue, error) {
	q := db.Model(&models.Issue{})
	if filters.ProjectID != "" {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	switch filters.SprintID {
	case "":
	case NoSprint:
		q = q.Where("sprint_id IS NULL")
	default:
		q = q.Where("sprint_id = ?", filters.SprintID)
	}
	if filters.Type != "" {
		q = q.Where("type = ?", filters.Type)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.AssigneeID != "" {
		q = q.Where("assignee_id = ?", filters.AssigneeID)
	}

	var issues []models.Issue
	if err := q.Order("created_at DESC").Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("issue: list: %w", err)
	}
	return issues, nil
}

// UserStories returns a project's USER_STORY issues, newest first, leaving
// out excludeID when set.
func UserStories(db *gorm.DB, projectID, excludeID string) ([]models.Issue, error) {
	q := db.Where("type = ?", models.IssueUserStory)
	if projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var issues []models.Issue
	if err := q.Order("created_at DESC").Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("issue: list user stories: %w", err)
	}
	return issues, nil
}

// Update applies changes and returns the updated issue. Sprint moves keep
// sprint membership in step; status changes refresh the derived status of
// every element the issue links.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Issue, error) {
	is, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	var typ, status, priority string
	if opts.Type != nil {
		typ = *opts.Type
		if typ == "" {
			return nil, apperr.Invalid("issue", "type cannot be empty")
		}
	}
	if opts.Status != nil {
		status = *opts.Status
		if status == "" {
			return nil, apperr.Invalid("issue", "status cannot be empty")
		}
	}
	if opts.Priority != nil {
		priority = *opts.Priority
		if priority == "" {
			return nil, apperr.Invalid("issue", "priority cannot be empty")
		}
	}
	if err := validateEnums(typ, status, priority); err != nil {
		return nil, err
	}
	if err := validateProgress(opts.Progress); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if opts.Title != nil {
		title := strings.TrimSpace(*opts.Title)
		if title == "" {
			return nil, apperr.Invalid("issue", "title cannot be empty")
		}
		updates["title"] = title
	}
	if opts.Description != nil {
		updates["description"] = *opts.Description
	}
	if typ != "" {
		updates["type"] = typ
	}
	if status != "" {
		updates["status"] = status
	}
	if priority != "" {
		updates["priority"] = priority
	}
	if opts.AssigneeID != nil {
		if *opts.AssigneeID == "" {
			updates["assignee_id"] = nil
		} else {
			updates["assignee_id"] = *opts.AssigneeID
		}
	}
	if opts.EstimatedHours != nil {
		updates["estimated_hours"] = *opts.EstimatedHours
	}
	if opts.Progress != nil {
		updates["progress"] = *opts.Progress
	}
	if opts.CustomFields != nil {
		updates["custom_fields"] = datatypes.JSONSlice[models.CustomField](opts.CustomFields)
	}
	if opts.Dependencies != nil {
		updates["dependencies"] = datatypes.JSONSlice[models.Dependency](opts.Dependencies)
	}

	if opts.SprintID != nil {
		current := ""
		if is.SprintID != nil {
			current = *is.SprintID
		}
		if *opts.SprintID != current {
			if _, err := sprint.AssignIssue(db, id, *opts.SprintID); err != nil {
				return nil, err
			}
		}
	}
	if len(updates) > 0 {
		if err := db.Model(&models.Issue{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("issue: update %s: %w", id, err)
		}
	}
	if status != "" && status != is.Status {
		refreshStatuses(db, id)
	}
	return Get(db, id)
}

// SetStatus changes only the status of an issue.
func SetStatus(db *gorm.DB, id, status string) (*models.Issue, error) {
	if status == "" {
		return nil, apperr.Invalid("issue", "status is required")
	}
	return Update(db, id, UpdateOpts{Status: &status})
}

// SetSprint moves an issue into sprintID, or to the backlog when empty.
func SetSprint(db *gorm.DB, id, sprintID string) (*models.Issue, error) {
	if _, err := sprint.AssignIssue(db, id, sprintID); err != nil {
		return nil, err
	}
	return Get(db, id)
}

// LinkElement links the issue to a diagram node. Exact duplicates are ignored.
func LinkElement(db *gorm.DB, id string, ref models.BPMNRef) (*models.Issue, error) {
	if _, err := bpmn.LinkRef(db, id, ref); err != nil {
		return nil, err
	}
	return Get(db, id)
}

// UnlinkElement removes a link to a diagram node. Missing links are ignored.
func UnlinkElement(db *gorm.DB, id string, ref models.BPMNRef) (*models.Issue, error) {
	if _, err := bpmn.UnlinkRef(db, id, ref); err != nil {
		return nil, err
	}
	return Get(db, id)
}

// ByElement returns the issues linking elementID in any diagram.
func ByElement(db *gorm.DB, elementID string) ([]models.Issue, error) {
	return bpmn.IssuesLinkedTo(db, []string{elementID})
}

// ByDiagram returns the issues linking any node of diagramID.
func ByDiagram(db *gorm.DB, diagramID string) ([]models.Issue, error) {
	return bpmn.IssuesInDiagram(db, diagramID)
}

// Delete removes an issue and every reference to it from sprints and
// element records, then refreshes the statuses of elements it linked.
func Delete(db *gorm.DB, id string) error {
	is, err := Get(db, id)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if is.SprintID != nil {
			if _, err := sprint.AssignIssue(tx, id, ""); err != nil {
				return err
			}
		}
		var elements []models.BPMNElement
		if err := tx.Where(datatypes.JSONArrayQuery("linked_issue_ids").Contains(id)).Find(&elements).Error; err != nil {
			return fmt.Errorf("find linked elements: %w", err)
		}
		for _, e := range elements {
			if !e.HasIssue(id) {
				continue
			}
			kept := make(datatypes.JSONSlice[string], 0, len(e.LinkedIssueIDs))
			for _, v := range e.LinkedIssueIDs {
				if v != id {
					kept = append(kept, v)
				}
			}
			if err := tx.Model(&models.BPMNElement{}).Where("id = ?", e.ID).Update("linked_issue_ids", kept).Error; err != nil {
				return fmt.Errorf("unlink element %s: %w", e.ID, err)
			}
		}
		return tx.Where("id = ?", id).Delete(&models.Issue{}).Error
	})
	if err != nil {
		return fmt.Errorf("issue: delete %s: %w", id, err)
	}

	var elementIDs []string
	for _, ref := range is.LinkedBPMNElements {
		elementIDs = append(elementIDs, ref.ElementID)
	}
	if _, err := bpmn.RecomputeElements(db, elementIDs); err != nil {
		log.Printf("issue: delete %s: recompute statuses: %v", id, err)
	}
	return nil
}

// refreshStatuses recomputes linked element statuses after a status change.
// Failures are logged; the status change itself already succeeded.
func refreshStatuses(db *gorm.DB, id string) {
	if _, err := bpmn.RecomputeForIssue(db, id); err != nil {
		log.Printf("issue: recompute statuses for %s: %v", id, err)
	}
}
