// Package sprint provides sprint lifecycle operations: CRUD, issue membership
// and the completion workflow.
package sprint

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a sprint.
type CreateOpts struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	ProjectID   string
	Status      string // PLANNING (default) or ACTIVE
}

// UpdateOpts holds optional sprint changes. Nil fields are left alone.
type UpdateOpts struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *string
}

// ValidTransitions maps each status to the statuses Update may move it to.
// COMPLETED is reached only through Complete.
var ValidTransitions = map[string][]string{
	models.SprintPlanning: {models.SprintActive, models.SprintCompleted},
	models.SprintActive:   {models.SprintCompleted},
}

func isValidTransition(from, to string) bool {
	for _, s := range ValidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Create creates a sprint in an existing project.
func Create(db *gorm.DB, opts CreateOpts) (*models.Sprint, error) {
	opts.Name = strings.TrimSpace(opts.Name)
	if opts.Name == "" {
		return nil, apperr.Invalid("sprint", "name is required")
	}
	if opts.ProjectID == "" {
		return nil, apperr.Invalid("sprint", "projectId is required")
	}
	if opts.StartDate.IsZero() || opts.EndDate.IsZero() {
		return nil, apperr.Invalid("sprint", "startDate and endDate are required")
	}
	if opts.EndDate.Before(opts.StartDate) {
		return nil, apperr.Invalid("sprint", "endDate is before startDate")
	}
	if opts.Status == "" {
		opts.Status = models.SprintPlanning
	}
	if opts.Status != models.SprintPlanning && opts.Status != models.SprintActive {
		return nil, apperr.Invalid("sprint", "status %q must be PLANNING or ACTIVE", opts.Status)
	}

	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", opts.ProjectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("sprint: check project %s: %w", opts.ProjectID, err)
	}
	if count == 0 {
		return nil, apperr.NotFound("project", opts.ProjectID)
	}

	s := models.Sprint{
		Name:        opts.Name,
		Description: opts.Description,
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		ProjectID:   opts.ProjectID,
		Status:      opts.Status,
	}
	if err := db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("sprint: create: %w", err)
	}
	return &s, nil
}

// Get retrieves a sprint by ID.
func Get(db *gorm.DB, id string) (*models.Sprint, error) {
	var s models.Sprint
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("sprint", id)
		}
		return nil, fmt.Errorf("sprint: get %s: %w", id, err)
	}
	return &s, nil
}

// List returns sprints, optionally limited to one project, by start date.
func List(db *gorm.DB, projectID string) ([]models.Sprint, error) {
	q := db.Model(&models.Sprint{})
	if projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}
	var sprints []models.Sprint
	if err := q.Order("start_date ASC, created_at ASC").Find(&sprints).Error; err != nil {
		return nil, fmt.Errorf("sprint: list: %w", err)
	}
	return sprints, nil
}

// Active returns the project's most recently started ACTIVE sprint, or nil.
func Active(db *gorm.DB, projectID string) (*models.Sprint, error) {
	var s models.Sprint
	err := db.Where("project_id = ? AND status = ?", projectID, models.SprintActive).
		Order("start_date DESC").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sprint: active for project %s: %w", projectID, err)
	}
	return &s, nil
}

// Update applies field changes. A status change to COMPLETED is not applied
// here: callers detect it with CompletesSprint and run Complete.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Sprint, error) {
	s, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if opts.Name != nil {
		name := strings.TrimSpace(*opts.Name)
		if name == "" {
			return nil, apperr.Invalid("sprint", "name cannot be empty")
		}
		updates["name"] = name
	}
	if opts.Description != nil {
		updates["description"] = *opts.Description
	}
	start, end := s.StartDate, s.EndDate
	if opts.StartDate != nil {
		start = *opts.StartDate
		updates["start_date"] = start
	}
	if opts.EndDate != nil {
		end = *opts.EndDate
		updates["end_date"] = end
	}
	if end.Before(start) {
		return nil, apperr.Invalid("sprint", "endDate is before startDate")
	}
	if opts.Status != nil && *opts.Status != s.Status {
		to := *opts.Status
		if !models.ValidSprintStatus(to) {
			return nil, apperr.Invalid("sprint", "status %q must be PLANNING, ACTIVE or COMPLETED", to)
		}
		if s.Status == models.SprintCompleted {
			return nil, apperr.Conflict("sprint", "%s is already completed", id)
		}
		if !isValidTransition(s.Status, to) {
			return nil, apperr.Invalid("sprint", "cannot move from %s to %s", s.Status, to)
		}
		if to != models.SprintCompleted {
			updates["status"] = to
		}
	}

	if len(updates) > 0 {
		if err := db.Model(s).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("sprint: update %s: %w", id, err)
		}
	}
	return Get(db, id)
}

// CompletesSprint reports whether opts asks for the completion workflow.
func CompletesSprint(opts UpdateOpts) bool {
	return opts.Status != nil && *opts.Status == models.SprintCompleted
}

// AssignIssue moves an issue into sprintID, or out of any sprint when
// sprintID is empty, keeping the issue's sprintId and the sprints' issueIds
// in step. Completed sprints accept no new issues.
func AssignIssue(db *gorm.DB, issueID, sprintID string) (*models.Issue, error) {
	var is models.Issue
	if err := db.Where("id = ?", issueID).First(&is).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("issue", issueID)
		}
		return nil, fmt.Errorf("sprint: get issue %s: %w", issueID, err)
	}

	var target *models.Sprint
	if sprintID != "" {
		s, err := Get(db, sprintID)
		if err != nil {
			return nil, err
		}
		if s.ProjectID != is.ProjectID {
			return nil, apperr.Invalid("sprint", "issue %s belongs to another project", issueID)
		}
		if s.Status == models.SprintCompleted && !is.InSprint(s.ID) {
			return nil, apperr.Conflict("sprint", "%s is completed", sprintID)
		}
		target = s
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if is.SprintID != nil && *is.SprintID != sprintID {
			if err := removeMember(tx, *is.SprintID, issueID); err != nil {
				return err
			}
		}
		if target != nil && !target.HasIssue(issueID) {
			target.IssueIDs = append(target.IssueIDs, issueID)
			if err := tx.Model(&models.Sprint{}).Where("id = ?", target.ID).
				Update("issue_ids", target.IssueIDs).Error; err != nil {
				return fmt.Errorf("add to sprint %s: %w", target.ID, err)
			}
		}
		var value interface{}
		if sprintID != "" {
			value = sprintID
		}
		return tx.Model(&models.Issue{}).Where("id = ?", issueID).Update("sprint_id", value).Error
	})
	if err != nil {
		return nil, fmt.Errorf("sprint: assign issue %s: %w", issueID, err)
	}

	if sprintID == "" {
		is.SprintID = nil
	} else {
		is.SprintID = &sprintID
	}
	return &is, nil
}

// AddIssue assigns issueID to the sprint and returns the updated sprint.
func AddIssue(db *gorm.DB, sprintID, issueID string) (*models.Sprint, error) {
	if _, err := AssignIssue(db, issueID, sprintID); err != nil {
		return nil, err
	}
	return Get(db, sprintID)
}

// RemoveIssue takes issueID out of the sprint and returns the updated sprint.
// Removing an issue that is not a member is a no-op.
func RemoveIssue(db *gorm.DB, sprintID, issueID string) (*models.Sprint, error) {
	s, err := Get(db, sprintID)
	if err != nil {
		return nil, err
	}
	var is models.Issue
	err = db.Where("id = ?", issueID).First(&is).Error
	switch {
	case err == nil && is.InSprint(sprintID):
		if _, err := AssignIssue(db, issueID, ""); err != nil {
			return nil, err
		}
	case err == nil || errors.Is(err, gorm.ErrRecordNotFound):
		if s.HasIssue(issueID) {
			if err := removeMember(db, sprintID, issueID); err != nil {
				return nil, fmt.Errorf("sprint: remove issue %s: %w", issueID, err)
			}
		}
	default:
		return nil, fmt.Errorf("sprint: get issue %s: %w", issueID, err)
	}
	return Get(db, sprintID)
}

// Delete removes a sprint and returns its issues to the backlog.
func Delete(db *gorm.DB, id string) error {
	if _, err := Get(db, id); err != nil {
		return err
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Issue{}).Where("sprint_id = ?", id).Update("sprint_id", nil).Error; err != nil {
			return fmt.Errorf("clear issues: %w", err)
		}
		return tx.Where("id = ?", id).Delete(&models.Sprint{}).Error
	})
	if err != nil {
		return fmt.Errorf("sprint: delete %s: %w", id, err)
	}
	return nil
}

func removeMember(db *gorm.DB, sprintID, issueID string) error {
	var s models.Sprint
	err := db.Where("id = ?", sprintID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load sprint %s: %w", sprintID, err)
	}
	if !s.HasIssue(issueID) {
		return nil
	}
	kept := make(datatypes.JSONSlice[string], 0, len(s.IssueIDs))
	for _, id := range s.IssueIDs {
		if id != issueID {
			kept = append(kept, id)
		}
	}
	if err := db.Model(&models.Sprint{}).Where("id = ?", sprintID).Update("issue_ids", kept).Error; err != nil {
		return fmt.Errorf("remove from sprint %s: %w", sprintID, err)
	}
	return nil
}
