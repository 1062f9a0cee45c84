package bpmn

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tally counts the issues linked to one element by status.
type Tally struct {
	Total      int
	Done       int
	InProgress int
}

// TallyIssues accumulates per-element counts over issues, keyed by element
// id alone. An issue listing the same element twice counts twice.
func TallyIssues(issues []models.Issue) map[string]*Tally {
	tallies := make(map[string]*Tally)
	for _, is := range issues {
		for _, ref := range is.LinkedBPMNElements {
			t, ok := tallies[ref.ElementID]
			if !ok {
				t = &Tally{}
				tallies[ref.ElementID] = t
			}
			t.Total++
			switch is.Status {
			case models.IssueDone:
				t.Done++
			case models.IssueInProgress:
				t.InProgress++
			}
		}
	}
	return tallies
}

// Derive maps a tally to a status and a 0-100 progress.
func Derive(t Tally) (status string, progress int) {
	switch {
	case t.Total > 0 && t.Done == t.Total:
		return models.ElementCompleted, 100
	case t.InProgress > 0 || t.Done > 0:
		return models.ElementInProgress, int(math.Round(100 * float64(t.Done) / float64(t.Total)))
	default:
		return models.ElementNotStarted, 0
	}
}

// UpdateFromIssues recomputes the status of every element linked from the
// given issues and upserts one record per element. This is a full
// recomputation over the supplied set; pass every relevant issue.
func UpdateFromIssues(db *gorm.DB, issueIDs []string) ([]models.BPMNElementStatus, error) {
	if len(issueIDs) == 0 {
		return nil, apperr.Invalid("status", "issueIds is required")
	}
	var issues []models.Issue
	if err := db.Where("id IN ?", issueIDs).Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("bpmn: load issues: %w", err)
	}
	return upsertTallies(db, TallyIssues(issues), nil)
}

// RecomputeElements rebuilds the status of each element id from every issue
// that currently links it. Elements no issue links any more reset to
// not_started.
func RecomputeElements(db *gorm.DB, elementIDs []string) ([]models.BPMNElementStatus, error) {
	if len(elementIDs) == 0 {
		return nil, nil
	}
	issues, err := IssuesLinkedTo(db, elementIDs)
	if err != nil {
		return nil, err
	}
	return upsertTallies(db, TallyIssues(issues), elementIDs)
}

// RecomputeForIssue rebuilds the status of every element issueID links.
func RecomputeForIssue(db *gorm.DB, issueID string) ([]models.BPMNElementStatus, error) {
	is, err := getIssue(db, issueID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(is.LinkedBPMNElements))
	for _, ref := range is.LinkedBPMNElements {
		ids = append(ids, ref.ElementID)
	}
	return RecomputeElements(db, ids)
}

// upsertTallies writes one status per tallied element. When only is set,
// other tallied elements are ignored and listed ones missing from tallies are
// written as untouched.
func upsertTallies(db *gorm.DB, tallies map[string]*Tally, only []string) ([]models.BPMNElementStatus, error) {
	keys := make([]string, 0, len(tallies))
	if only != nil {
		seen := make(map[string]bool, len(only))
		for _, id := range only {
			if !seen[id] {
				seen[id] = true
				keys = append(keys, id)
			}
		}
	} else {
		for id := range tallies {
			keys = append(keys, id)
		}
	}
	sort.Strings(keys)

	now := time.Now()
	out := make([]models.BPMNElementStatus, 0, len(keys))
	for _, id := range keys {
		var t Tally
		if p, ok := tallies[id]; ok {
			t = *p
		}
		status, progress := Derive(t)
		st, err := upsert(db, id, status, progress, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, nil
}

func upsert(db *gorm.DB, elementID, status string, progress int, at time.Time) (*models.BPMNElementStatus, error) {
	st := models.BPMNElementStatus{
		ElementID:   elementID,
		Status:      status,
		Progress:    progress,
		LastUpdated: at,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "element_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "progress", "last_updated"}),
	}).Create(&st).Error
	if err != nil {
		return nil, fmt.Errorf("bpmn: upsert status %s: %w", elementID, err)
	}
	return GetStatus(db, elementID)
}

// GetStatus returns the derived status of an element id.
func GetStatus(db *gorm.DB, elementID string) (*models.BPMNElementStatus, error) {
	var st models.BPMNElementStatus
	if err := db.Where("element_id = ?", elementID).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("status", elementID)
		}
		return nil, fmt.Errorf("bpmn: get status %s: %w", elementID, err)
	}
	return &st, nil
}

// ListStatuses returns every stored element status.
func ListStatuses(db *gorm.DB) ([]models.BPMNElementStatus, error) {
	var out []models.BPMNElementStatus
	if err := db.Order("element_id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("bpmn: list statuses: %w", err)
	}
	return out, nil
}

// SetStatus records a manual status for an element id. The next
// recomputation overwrites it.
func SetStatus(db *gorm.DB, elementID, status string, progress int) (*models.BPMNElementStatus, error) {
	if elementID == "" {
		return nil, apperr.Invalid("status", "elementId is required")
	}
	if !models.ValidElementStatus(status) {
		return nil, apperr.Invalid("status", "status %q must be not_started, in_progress, completed or blocked", status)
	}
	if progress < 0 || progress > 100 {
		return nil, apperr.Invalid("status", "progress %d must be between 0 and 100", progress)
	}
	return upsert(db, elementID, status, progress, time.Now())
}
