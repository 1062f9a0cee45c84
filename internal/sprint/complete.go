package sprint

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/bpmn"
	"github.com/zulandar/aegis/internal/models"
	"github.com/zulandar/aegis/internal/notify"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CompleteOpts holds optional collaborators for Complete.
type CompleteOpts struct {
	Notifier notify.Notifier  // told about the completion; failures are logged
	Now      func() time.Time // clock override for tests
}

// CompleteResult reports what the completion workflow did.
type CompleteResult struct {
	Sprint      *models.Sprint
	Kept        []string // DONE issues that keep the sprint as history
	Reassigned  []string // open issues returned to the backlog
	Snapshotted []string // diagram ids snapshotted
	Skipped     []string // diagram ids without XML
	Failed      []string // diagram ids whose snapshot save failed
}

// Complete closes a sprint: it marks the sprint COMPLETED, returns every
// issue that is not DONE to the backlog, and snapshots each diagram of the
// sprint's project that has XML.
//
// Completion is not rolled back. Once the status is written the sprint stays
// COMPLETED even if a later step fails. Diagram snapshots are saved
// concurrently and independently; diagrams without XML are skipped.
func Complete(ctx context.Context, db *gorm.DB, id string, opts CompleteOpts) (*CompleteResult, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	s, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if s.Status == models.SprintCompleted {
		return nil, apperr.Conflict("sprint", "%s is already completed", id)
	}

	at := now()
	res := db.Model(&models.Sprint{}).
		Where("id = ? AND status <> ?", id, models.SprintCompleted).
		Updates(map[string]interface{}{"status": models.SprintCompleted, "completed_at": at})
	if res.Error != nil {
		return nil, fmt.Errorf("sprint: complete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("sprint", "%s is already completed", id)
	}
	s.Status = models.SprintCompleted
	s.CompletedAt = &at

	result := &CompleteResult{Sprint: s}
	if err := reassignOpen(db, s, result); err != nil {
		return result, fmt.Errorf("sprint: complete %s: %w", id, err)
	}

	snapErr := snapshotDiagrams(db, s, at, result)

	if fresh, err := Get(db, id); err == nil {
		result.Sprint = fresh
	}
	notify.Send(ctx, opts.Notifier, notify.SprintEvent{
		SprintID:    s.ID,
		SprintName:  s.Name,
		ProjectID:   s.ProjectID,
		CompletedAt: at,
		Kept:        len(result.Kept),
		Reassigned:  len(result.Reassigned),
		Snapshots:   len(result.Snapshotted),
		Skipped:     len(result.Skipped),
		Failed:      len(result.Failed),
	})

	if snapErr != nil {
		return result, fmt.Errorf("sprint: complete %s: %w", id, snapErr)
	}
	return result, nil
}

// reassignOpen clears the sprint of every member issue that is not DONE and
// drops those issues from the sprint's issueIds.
func reassignOpen(db *gorm.DB, s *models.Sprint, result *CompleteResult) error {
	var members []models.Issue
	if err := db.Select("id", "status").Where("sprint_id = ?", s.ID).Find(&members).Error; err != nil {
		return fmt.Errorf("load issues: %w", err)
	}
	done := make(map[string]bool)
	for _, is := range members {
		if is.Status == models.IssueDone {
			done[is.ID] = true
			result.Kept = append(result.Kept, is.ID)
		} else {
			result.Reassigned = append(result.Reassigned, is.ID)
		}
	}

	if len(result.Reassigned) > 0 {
		if err := db.Model(&models.Issue{}).
			Where("sprint_id = ? AND status <> ?", s.ID, models.IssueDone).
			Update("sprint_id", nil).Error; err != nil {
			return fmt.Errorf("reassign issues: %w", err)
		}
	}

	kept := make(datatypes.JSONSlice[string], 0, len(s.IssueIDs))
	for _, issueID := range s.IssueIDs {
		if done[issueID] {
			kept = append(kept, issueID)
		}
	}
	for _, issueID := range result.Kept {
		if !s.HasIssue(issueID) {
			kept = append(kept, issueID)
		}
	}
	if err := db.Model(&models.Sprint{}).Where("id = ?", s.ID).Update("issue_ids", kept).Error; err != nil {
		return fmt.Errorf("prune issue ids: %w", err)
	}
	s.IssueIDs = kept
	return nil
}

// snapshotDiagrams snapshots every diagram of the sprint's project in
// parallel. One failed save does not stop the others; the first error is
// returned after all have finished.
func snapshotDiagrams(db *gorm.DB, s *models.Sprint, at time.Time, result *CompleteResult) error {
	var diagrams []models.BPMNDiagram
	if err := db.Where("project_id = ?", s.ProjectID).Find(&diagrams).Error; err != nil {
		return fmt.Errorf("load diagrams: %w", err)
	}

	var completed int64
	if err := db.Model(&models.Sprint{}).
		Where("project_id = ? AND status = ?", s.ProjectID, models.SprintCompleted).
		Count(&completed).Error; err != nil {
		return fmt.Errorf("count completed sprints: %w", err)
	}
	number := int(completed)

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	for i := range diagrams {
		d := &diagrams[i]
		if d.XML == "" {
			log.Printf("sprint: complete %s: diagram %s has no xml, skipping snapshot", s.ID, d.ID)
			result.Skipped = append(result.Skipped, d.ID)
			continue
		}
		g.Go(func() error {
			snap := models.SprintSnapshot{
				SprintID:     s.ID,
				SprintName:   s.Name,
				SprintNumber: &number,
				TakenAt:      at,
			}
			_, err := bpmn.TakeSnapshot(db, d, snap)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("sprint: complete %s: %v", s.ID, err)
				result.Failed = append(result.Failed, d.ID)
				return err
			}
			result.Snapshotted = append(result.Snapshotted, d.ID)
			return nil
		})
	}
	return g.Wait()
}
