package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertJSONName checks the wire name of a struct field.
func assertJSONName(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	name := strings.Split(f.Tag.Get("json"), ",")[0]
	if name != expected {
		t.Errorf("%s.%s json name = %q, want %q", typ.Name(), fieldName, name, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestUser_Fields(t *testing.T) {
	typ := reflect.TypeOf(User{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "Email", "uniqueIndex")
	assertGormTag(t, typ, "Email", "not null")
	assertGormTag(t, typ, "PasswordHash", "not null")
	assertJSONName(t, typ, "PasswordHash", "-")
	assertFieldType(t, typ, "ID", "string")
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	data, err := json.Marshal(User{ID: "u1", Email: "a@b.c", PasswordHash: "$2a$10$secret"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("password hash leaked into JSON: %s", data)
	}
}

func TestProject_Fields(t *testing.T) {
	typ := reflect.TypeOf(Project{})

	assertGormTag(t, typ, "OwnerID", "index")
	assertJSONName(t, typ, "OwnerID", "ownerId")
	assertJSONName(t, typ, "MemberIDs", "memberIds")
	assertFieldType(t, typ, "MemberIDs", "datatypes.JSONSlice[string]")
}

func TestSprint_Fields(t *testing.T) {
	typ := reflect.TypeOf(Sprint{})

	assertGormTag(t, typ, "ProjectID", "index")
	assertGormTag(t, typ, "Status", "default:PLANNING")
	assertJSONName(t, typ, "IssueIDs", "issueIds")
	assertJSONName(t, typ, "CompletedAt", "completedAt")
	assertFieldType(t, typ, "CompletedAt", "*time.Time")
	assertFieldType(t, typ, "StartDate", "time.Time")
}

func TestIssue_Fields(t *testing.T) {
	typ := reflect.TypeOf(Issue{})

	assertGormTag(t, typ, "Status", "default:TO_DO")
	assertGormTag(t, typ, "Priority", "default:MEDIUM")
	assertGormTag(t, typ, "ProjectID", "index")
	assertGormTag(t, typ, "SprintID", "index")
	assertFieldType(t, typ, "SprintID", "*string")
	assertFieldType(t, typ, "AssigneeID", "*string")
	assertJSONName(t, typ, "LinkedBPMNElements", "linkedBPMNElements")
	assertJSONName(t, typ, "SprintID", "sprintId")
}

func TestBPMNDiagram_Fields(t *testing.T) {
	typ := reflect.TypeOf(BPMNDiagram{})

	assertGormTag(t, typ, "ProjectID", "index")
	assertGormTag(t, typ, "XML", "column:xml")
	assertGormTag(t, typ, "LastCommittedXML", "column:last_committed_xml")
	assertJSONName(t, typ, "LastCommittedXML", "lastCommittedXml")
	assertJSONName(t, typ, "SprintSnapshots", "sprintSnapshots")

	if got := (BPMNDiagram{}).TableName(); got != "bpmn_diagrams" {
		t.Errorf("TableName() = %q, want bpmn_diagrams", got)
	}
}

func TestBPMNElement_Fields(t *testing.T) {
	typ := reflect.TypeOf(BPMNElement{})

	assertGormTag(t, typ, "DiagramID", "index")
	assertGormTag(t, typ, "ElementID", "not null")
	assertJSONName(t, typ, "LinkedIssueIDs", "linkedIssueIds")
}

func TestBPMNElementStatus_GlobalKey(t *testing.T) {
	typ := reflect.TypeOf(BPMNElementStatus{})

	// Keyed by element id alone, not (diagram, element).
	assertGormTag(t, typ, "ElementID", "uniqueIndex")
	if _, ok := typ.FieldByName("DiagramID"); ok {
		t.Error("BPMNElementStatus should not carry a DiagramID")
	}
	assertGormTag(t, typ, "Status", "default:not_started")
}

func TestBPMNChangeLog_Fields(t *testing.T) {
	typ := reflect.TypeOf(BPMNChangeLog{})

	assertGormTag(t, typ, "DiagramID", "column:bpmn_diagram_id")
	assertGormTag(t, typ, "DiagramID", "index")
	assertGormTag(t, typ, "CreatedAt", "index")
	assertJSONName(t, typ, "DiagramID", "bpmnDiagramId")
}

func TestBPMNRef_Equal(t *testing.T) {
	tests := []struct {
		a, b BPMNRef
		want bool
	}{
		{BPMNRef{"d1", "Task_1"}, BPMNRef{"d1", "Task_1"}, true},
		{BPMNRef{"d1", "Task_1"}, BPMNRef{"d2", "Task_1"}, false},
		{BPMNRef{"d1", "Task_1"}, BPMNRef{"d1", "task_1"}, false},
		{BPMNRef{"d1", "Task_1"}, BPMNRef{"d1", "Task_1 "}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIssue_HasLinkAndInSprint(t *testing.T) {
	sprintID := "s1"
	i := Issue{
		SprintID:           &sprintID,
		LinkedBPMNElements: datatypes.JSONSlice[BPMNRef]{{DiagramID: "d1", ElementID: "Task_1"}},
	}
	if !i.HasLink(BPMNRef{"d1", "Task_1"}) {
		t.Error("HasLink should find existing ref")
	}
	if i.HasLink(BPMNRef{"d1", "Task_2"}) {
		t.Error("HasLink should not find missing ref")
	}
	if !i.InSprint("s1") || i.InSprint("s2") {
		t.Error("InSprint mismatch")
	}
	if (&Issue{}).InSprint("s1") {
		t.Error("issue with no sprint should not be in s1")
	}
}

func TestBeforeCreate_Defaults(t *testing.T) {
	var i Issue
	if err := i.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if i.ID == "" || len(i.ID) != 36 {
		t.Errorf("ID = %q, want a uuid", i.ID)
	}
	if i.Status != IssueToDo || i.Priority != PriorityMedium {
		t.Errorf("Status/Priority = %q/%q", i.Status, i.Priority)
	}
	if i.LinkedBPMNElements == nil {
		t.Error("LinkedBPMNElements should default to empty, not nil")
	}

	s := Sprint{ID: "keep-me"}
	if err := s.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if s.ID != "keep-me" {
		t.Errorf("BeforeCreate overwrote explicit ID: %q", s.ID)
	}
	if s.Status != SprintPlanning {
		t.Errorf("Status = %q, want PLANNING", s.Status)
	}
}

func TestSprintSnapshot_JSON(t *testing.T) {
	snap := SprintSnapshot{SprintID: "s1", SprintName: "Sprint 1", TakenAt: time.Unix(0, 0).UTC(), XML: "<X/>"}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"sprintId"`, `"sprintName"`, `"takenAt"`, `"xml"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("snapshot JSON %s missing %s", data, key)
		}
	}
	if strings.Contains(string(data), "sprintNumber") {
		t.Errorf("nil sprintNumber should be omitted: %s", data)
	}
}

func TestValidators(t *testing.T) {
	if !ValidSprintStatus(SprintActive) || ValidSprintStatus("DONE") {
		t.Error("ValidSprintStatus mismatch")
	}
	if !ValidIssueStatus(IssueDone) || ValidIssueStatus("COMPLETED") {
		t.Error("ValidIssueStatus mismatch")
	}
	if !ValidIssueType(IssueUserStory) || ValidIssueType("EPIC") {
		t.Error("ValidIssueType mismatch")
	}
	if !ValidPriority(PriorityUrgent) || ValidPriority("CRITICAL") {
		t.Error("ValidPriority mismatch")
	}
	if !ValidElementType(ElementGateway) || ValidElementType("lane") {
		t.Error("ValidElementType mismatch")
	}
	if !ValidElementStatus(ElementBlocked) || ValidElementStatus("done") {
		t.Error("ValidElementStatus mismatch")
	}
	if !ValidChangeType(ChangeUnlink) || ValidChangeType("moved") {
		t.Error("ValidChangeType mismatch")
	}
}
