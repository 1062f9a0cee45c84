// Package reconcile repairs links that diverged between issues and BPMN
// element records, and between element records and deleted issues.
package reconcile

import (
	"fmt"
	"log"

	"github.com/zulandar/aegis/internal/bpmn"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Opts controls a repair pass.
type Opts struct {
	DryRun bool // report what would change without writing
}

// Report summarizes a repair pass.
type Report struct {
	ElementsScanned   int
	IssuesScanned     int
	IssueLinksAdded   int // refs copied onto issues from element records
	ElementLinksAdded int // issue ids copied onto element records from issues
	DanglingPruned    int // element entries naming deleted issues
	StatusesRefreshed int
}

// Changed reports whether the pass found anything to repair.
func (r Report) Changed() bool {
	return r.IssueLinksAdded+r.ElementLinksAdded+r.DanglingPruned > 0
}

func (r Report) String() string {
	return fmt.Sprintf("scanned %d elements, %d issues: +%d issue links, +%d element links, %d dangling pruned, %d statuses refreshed",
		r.ElementsScanned, r.IssuesScanned, r.IssueLinksAdded, r.ElementLinksAdded, r.DanglingPruned, r.StatusesRefreshed)
}

// Run makes both sides of every link agree by taking their union, and drops
// element entries for issues that no longer exist. Statuses of repaired
// elements are recomputed.
func Run(db *gorm.DB, opts Opts) (*Report, error) {
	var elements []models.BPMNElement
	if err := db.Order("id ASC").Find(&elements).Error; err != nil {
		return nil, fmt.Errorf("reconcile: load elements: %w", err)
	}
	var issues []models.Issue
	if err := db.Order("id ASC").Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("reconcile: load issues: %w", err)
	}
	rep := &Report{ElementsScanned: len(elements), IssuesScanned: len(issues)}

	issueByID := make(map[string]*models.Issue, len(issues))
	for i := range issues {
		issueByID[issues[i].ID] = &issues[i]
	}
	elementByRef := make(map[models.BPMNRef]*models.BPMNElement, len(elements))
	for i := range elements {
		elementByRef[elements[i].Ref()] = &elements[i]
	}

	dirtyIssues := map[string]bool{}
	dirtyElements := map[string]bool{}
	touched := map[string]bool{}

	// Element side first: prune dangling ids, mirror the rest onto issues.
	for i := range elements {
		e := &elements[i]
		kept := make(datatypes.JSONSlice[string], 0, len(e.LinkedIssueIDs))
		for _, issueID := range e.LinkedIssueIDs {
			is, ok := issueByID[issueID]
			if !ok {
				rep.DanglingPruned++
				dirtyElements[e.ID] = true
				touched[e.ElementID] = true
				continue
			}
			kept = append(kept, issueID)
			if ref := e.Ref(); !is.HasLink(ref) {
				is.LinkedBPMNElements = append(is.LinkedBPMNElements, ref)
				rep.IssueLinksAdded++
				dirtyIssues[is.ID] = true
				touched[e.ElementID] = true
			}
		}
		e.LinkedIssueIDs = kept
	}

	// Issue side: mirror refs onto tracked element records.
	for i := range issues {
		is := &issues[i]
		for _, ref := range is.LinkedBPMNElements {
			e, ok := elementByRef[ref]
			if !ok || e.HasIssue(is.ID) {
				continue
			}
			e.LinkedIssueIDs = append(e.LinkedIssueIDs, is.ID)
			rep.ElementLinksAdded++
			dirtyElements[e.ID] = true
			touched[e.ElementID] = true
		}
	}

	if opts.DryRun {
		return rep, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := range elements {
			e := &elements[i]
			if !dirtyElements[e.ID] {
				continue
			}
			if err := tx.Model(&models.BPMNElement{}).Where("id = ?", e.ID).
				Update("linked_issue_ids", e.LinkedIssueIDs).Error; err != nil {
				return fmt.Errorf("save element %s: %w", e.ID, err)
			}
		}
		for i := range issues {
			is := &issues[i]
			if !dirtyIssues[is.ID] {
				continue
			}
			if err := tx.Model(&models.Issue{}).Where("id = ?", is.ID).
				Update("linked_bpmn_elements", is.LinkedBPMNElements).Error; err != nil {
				return fmt.Errorf("save issue %s: %w", is.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	if len(touched) > 0 {
		ids := make([]string, 0, len(touched))
		for id := range touched {
			ids = append(ids, id)
		}
		statuses, err := bpmn.RecomputeElements(db, ids)
		if err != nil {
			log.Printf("reconcile: recompute statuses: %v", err)
		}
		rep.StatusesRefreshed = len(statuses)
	}
	return rep, nil
}
