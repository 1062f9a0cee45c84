package bpmn

import (
	"errors"
	"fmt"
	"log"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/gorm"
)

// Both sides of a link are separate rows written one after the other without
// a transaction. A failure between the writes leaves them diverged until the
// next reconcile pass.

func getIssue(db *gorm.DB, id string) (*models.Issue, error) {
	var is models.Issue
	if err := db.Where("id = ?", id).First(&is).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("issue", id)
		}
		return nil, fmt.Errorf("bpmn: get issue %s: %w", id, err)
	}
	return &is, nil
}

// Link adds issueID to the element's linked issues and the element's
// reference to the issue's linked elements. Both sides are checked before
// either is written; linking twice is a no-op.
func Link(db *gorm.DB, elementRowID, issueID string) (*models.BPMNElement, *models.Issue, error) {
	e, err := GetElement(db, elementRowID)
	if err != nil {
		return nil, nil, err
	}
	is, err := getIssue(db, issueID)
	if err != nil {
		return nil, nil, err
	}
	if err := link(db, e, is); err != nil {
		return nil, nil, err
	}
	recompute(db, e.ElementID)
	return e, is, nil
}

// Unlink removes the link from both sides. Unlinking a pair that is not
// linked is a no-op.
func Unlink(db *gorm.DB, elementRowID, issueID string) (*models.BPMNElement, *models.Issue, error) {
	e, err := GetElement(db, elementRowID)
	if err != nil {
		return nil, nil, err
	}
	is, err := getIssue(db, issueID)
	if err != nil {
		return nil, nil, err
	}
	if err := unlink(db, e, is); err != nil {
		return nil, nil, err
	}
	recompute(db, e.ElementID)
	return e, is, nil
}

// LinkRef links an issue to a soft reference. The reference is recorded on
// the issue even when no element record tracks it; when one does, the issue
// is mirrored onto it.
func LinkRef(db *gorm.DB, issueID string, ref models.BPMNRef) (*models.Issue, error) {
	if ref.DiagramID == "" || ref.ElementID == "" {
		return nil, apperr.Invalid("issue", "diagramId and elementId are required")
	}
	is, err := getIssue(db, issueID)
	if err != nil {
		return nil, err
	}
	e, err := FindElement(db, ref)
	if err != nil {
		return nil, err
	}
	if e != nil {
		err = link(db, e, is)
	} else if !is.HasLink(ref) {
		is.LinkedBPMNElements = append(is.LinkedBPMNElements, ref)
		err = saveIssueLinks(db, is.ID, is.LinkedBPMNElements)
	}
	if err != nil {
		return nil, err
	}
	recompute(db, ref.ElementID)
	return is, nil
}

// UnlinkRef removes a soft reference from an issue and, when an element
// record tracks it, the issue from that element.
func UnlinkRef(db *gorm.DB, issueID string, ref models.BPMNRef) (*models.Issue, error) {
	if ref.DiagramID == "" || ref.ElementID == "" {
		return nil, apperr.Invalid("issue", "diagramId and elementId are required")
	}
	is, err := getIssue(db, issueID)
	if err != nil {
		return nil, err
	}
	e, err := FindElement(db, ref)
	if err != nil {
		return nil, err
	}
	if e != nil {
		err = unlink(db, e, is)
	} else if is.HasLink(ref) {
		is.LinkedBPMNElements = withoutRef(is.LinkedBPMNElements, ref)
		err = saveIssueLinks(db, is.ID, is.LinkedBPMNElements)
	}
	if err != nil {
		return nil, err
	}
	recompute(db, ref.ElementID)
	return is, nil
}

func link(db *gorm.DB, e *models.BPMNElement, is *models.Issue) error {
	if !e.HasIssue(is.ID) {
		e.LinkedIssueIDs = append(e.LinkedIssueIDs, is.ID)
		if err := saveElementIssues(db, e.ID, e.LinkedIssueIDs); err != nil {
			return err
		}
	}
	if ref := e.Ref(); !is.HasLink(ref) {
		is.LinkedBPMNElements = append(is.LinkedBPMNElements, ref)
		if err := saveIssueLinks(db, is.ID, is.LinkedBPMNElements); err != nil {
			return err
		}
	}
	return nil
}

func unlink(db *gorm.DB, e *models.BPMNElement, is *models.Issue) error {
	if e.HasIssue(is.ID) {
		e.LinkedIssueIDs = withoutID(e.LinkedIssueIDs, is.ID)
		if err := saveElementIssues(db, e.ID, e.LinkedIssueIDs); err != nil {
			return err
		}
	}
	if ref := e.Ref(); is.HasLink(ref) {
		is.LinkedBPMNElements = withoutRef(is.LinkedBPMNElements, ref)
		if err := saveIssueLinks(db, is.ID, is.LinkedBPMNElements); err != nil {
			return err
		}
	}
	return nil
}

// recompute refreshes derived statuses after a link change. Failures are
// logged; the link itself already succeeded.
func recompute(db *gorm.DB, elementIDs ...string) {
	if _, err := RecomputeElements(db, elementIDs); err != nil {
		log.Printf("bpmn: recompute status for %v: %v", elementIDs, err)
	}
}
