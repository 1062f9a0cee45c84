package bpmn

import (
	"fmt"

	"github.com/zulandar/aegis/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// refContains matches issues whose linked elements hold an entry with
// Key equal to Value. It compares parsed JSON, so it does not depend on how
// the driver formats the stored column.
type refContains struct {
	Key   string
	Value string
}

// Build implements clause.Expression.
func (r refContains) Build(builder clause.Builder) {
	stmt, ok := builder.(*gorm.Statement)
	if !ok {
		return
	}
	switch stmt.Dialector.Name() {
	case "mysql":
		builder.WriteString("JSON_CONTAINS(")
		builder.WriteQuoted("linked_bpmn_elements")
		builder.WriteString(", JSON_OBJECT('" + r.Key + "', ")
		builder.AddVar(stmt, r.Value)
		builder.WriteString("))")
	default:
		builder.WriteString("EXISTS(SELECT 1 FROM json_each(")
		builder.WriteQuoted("linked_bpmn_elements")
		builder.WriteString(") WHERE json_extract(json_each.value, '$." + r.Key + "') = ")
		builder.AddVar(stmt, r.Value)
		builder.WriteByte(')')
	}
}

// IssuesLinkedTo returns the issues whose linked elements name any of
// elementIDs, in any diagram.
func IssuesLinkedTo(db *gorm.DB, elementIDs []string) ([]models.Issue, error) {
	if len(elementIDs) == 0 {
		return nil, nil
	}
	want := make(map[string]bool, len(elementIDs))
	conds := make([]clause.Expression, 0, len(elementIDs))
	for _, id := range elementIDs {
		want[id] = true
		conds = append(conds, refContains{Key: "elementId", Value: id})
	}

	var candidates []models.Issue
	if err := db.Where(clause.Or(conds...)).Order("created_at ASC").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("bpmn: issues linked to elements: %w", err)
	}
	var out []models.Issue
	for _, is := range candidates {
		for _, ref := range is.LinkedBPMNElements {
			if want[ref.ElementID] {
				out = append(out, is)
				break
			}
		}
	}
	return out, nil
}

// IssuesInDiagram returns the issues linking at least one node of diagramID.
func IssuesInDiagram(db *gorm.DB, diagramID string) ([]models.Issue, error) {
	var candidates []models.Issue
	if err := db.Where(refContains{Key: "diagramId", Value: diagramID}).
		Order("created_at ASC").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("bpmn: issues in diagram %s: %w", diagramID, err)
	}
	var out []models.Issue
	for _, is := range candidates {
		for _, ref := range is.LinkedBPMNElements {
			if ref.DiagramID == diagramID {
				out = append(out, is)
				break
			}
		}
	}
	return out, nil
}

func saveIssueLinks(db *gorm.DB, issueID string, links datatypes.JSONSlice[models.BPMNRef]) error {
	if links == nil {
		links = datatypes.JSONSlice[models.BPMNRef]{}
	}
	if err := db.Model(&models.Issue{}).Where("id = ?", issueID).Update("linked_bpmn_elements", links).Error; err != nil {
		return fmt.Errorf("bpmn: save links of issue %s: %w", issueID, err)
	}
	return nil
}

func saveElementIssues(db *gorm.DB, elementRowID string, ids datatypes.JSONSlice[string]) error {
	if ids == nil {
		ids = datatypes.JSONSlice[string]{}
	}
	if err := db.Model(&models.BPMNElement{}).Where("id = ?", elementRowID).Update("linked_issue_ids", ids).Error; err != nil {
		return fmt.Errorf("bpmn: save linked issues of element %s: %w", elementRowID, err)
	}
	return nil
}

func withoutRef(links datatypes.JSONSlice[models.BPMNRef], ref models.BPMNRef) datatypes.JSONSlice[models.BPMNRef] {
	out := make(datatypes.JSONSlice[models.BPMNRef], 0, len(links))
	for _, l := range links {
		if !l.Equal(ref) {
			out = append(out, l)
		}
	}
	return out
}

func withoutID(ids datatypes.JSONSlice[string], id string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
