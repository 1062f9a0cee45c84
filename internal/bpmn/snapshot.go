package bpmn

import (
	"fmt"
	"sort"
	"time"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Snapshots returns a diagram's sprint snapshots in the order they were taken.
func Snapshots(db *gorm.DB, diagramID string) ([]models.SprintSnapshot, error) {
	d, err := GetDiagram(db, diagramID)
	if err != nil {
		return nil, err
	}
	return []models.SprintSnapshot(d.SprintSnapshots), nil
}

// PreviousSnapshot returns the second most recent snapshot by TakenAt.
// With a single snapshot that snapshot is returned; with none, not-found.
func PreviousSnapshot(db *gorm.DB, diagramID string) (*models.SprintSnapshot, error) {
	snaps, err := Snapshots(db, diagramID)
	if err != nil {
		return nil, err
	}
	snap, ok := Previous(snaps)
	if !ok {
		return nil, apperr.NotFound("snapshot", "no sprint snapshots for diagram "+diagramID)
	}
	return &snap, nil
}

// Previous picks the "previous sprint" entry from snaps without reordering them.
func Previous(snaps []models.SprintSnapshot) (models.SprintSnapshot, bool) {
	if len(snaps) == 0 {
		return models.SprintSnapshot{}, false
	}
	sorted := make([]models.SprintSnapshot, len(snaps))
	copy(sorted, snaps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TakenAt.After(sorted[j].TakenAt)
	})
	if len(sorted) == 1 {
		return sorted[0], true
	}
	return sorted[1], true
}

// TakeSnapshot appends snap, filled with a copy of the diagram's current XML,
// and makes that XML the committed baseline. Diagrams with empty XML are
// skipped and reported with taken=false.
func TakeSnapshot(db *gorm.DB, d *models.BPMNDiagram, snap models.SprintSnapshot) (taken bool, err error) {
	if d.XML == "" {
		return false, nil
	}
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now()
	}
	snap.XML = d.XML
	snaps := make(datatypes.JSONSlice[models.SprintSnapshot], 0, len(d.SprintSnapshots)+1)
	snaps = append(snaps, d.SprintSnapshots...)
	snaps = append(snaps, snap)

	err = db.Model(&models.BPMNDiagram{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
		"sprint_snapshots":   snaps,
		"last_committed_xml": d.XML,
	}).Error
	if err != nil {
		return false, fmt.Errorf("bpmn: snapshot diagram %s: %w", d.ID, err)
	}
	d.SprintSnapshots = snaps
	d.LastCommittedXML = d.XML
	return true, nil
}
