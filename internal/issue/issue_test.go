package issue

import (
	"errors"
	"testing"
	"time"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/bpmn"
	"github.com/zulandar/aegis/internal/db/dbtest"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	project *models.Project
	sprint  *models.Sprint
	diagram *models.BPMNDiagram
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	p := &models.Project{Name: "P", OwnerID: "u1"}
	if err := db.Create(p).Error; err != nil {
		t.Fatal(err)
	}
	s := &models.Sprint{Name: "S", ProjectID: p.ID, StartDate: time.Now(), EndDate: time.Now().Add(time.Hour)}
	if err := db.Create(s).Error; err != nil {
		t.Fatal(err)
	}
	d := &models.BPMNDiagram{Name: "D", ProjectID: p.ID, XML: "<X/>"}
	if err := db.Create(d).Error; err != nil {
		t.Fatal(err)
	}
	return &fixture{db: db, project: p, sprint: s, diagram: d}
}

func (f *fixture) create(t *testing.T, opts CreateOpts) *models.Issue {
	t.Helper()
	if opts.Title == "" {
		opts.Title = "Issue"
	}
	if opts.Type == "" {
		opts.Type = models.IssueTask
	}
	opts.ProjectID = f.project.ID
	opts.ReporterID = "u1"
	is, err := Create(f.db, opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return is
}

func strPtr(s string) *string { return &s }

func TestCreate_Defaults(t *testing.T) {
	f := newFixture(t)
	is := f.create(t, CreateOpts{})
	if is.Status != models.IssueToDo || is.Priority != models.PriorityMedium {
		t.Errorf("defaults = %s/%s", is.Status, is.Priority)
	}
	if is.SprintID != nil || is.AssigneeID != nil {
		t.Errorf("optional refs should be nil: sprint=%v assignee=%v", is.SprintID, is.AssigneeID)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	bad := 150
	tests := []struct {
		name string
		opts CreateOpts
		want error
	}{
		{"missing title", CreateOpts{Type: models.IssueTask, ProjectID: f.project.ID, ReporterID: "u1"}, apperr.ErrInvalid},
		{"missing type", CreateOpts{Title: "t", ProjectID: f.project.ID, ReporterID: "u1"}, apperr.ErrInvalid},
		{"bad type", CreateOpts{Title: "t", Type: "EPIC", ProjectID: f.project.ID, ReporterID: "u1"}, apperr.ErrInvalid},
		{"bad status", CreateOpts{Title: "t", Type: models.IssueBug, Status: "CLOSED", ProjectID: f.project.ID, ReporterID: "u1"}, apperr.ErrInvalid},
		{"bad priority", CreateOpts{Title: "t", Type: models.IssueBug, Priority: "P0", ProjectID: f.project.ID, ReporterID: "u1"}, apperr.ErrInvalid},
		{"bad progress", CreateOpts{Title: "t", Type: models.IssueBug, Progress: &bad, ProjectID: f.project.ID, ReporterID: "u1"}, apperr.ErrInvalid},
		{"partial link", CreateOpts{Title: "t", Type: models.IssueBug, ProjectID: f.project.ID, ReporterID: "u1", LinkedBPMNElements: []models.BPMNRef{{ElementID: "x"}}}, apperr.ErrInvalid},
		{"unknown project", CreateOpts{Title: "t", Type: models.IssueBug, ProjectID: "nope", ReporterID: "u1"}, apperr.ErrNotFound},
		{"unknown sprint", CreateOpts{Title: "t", Type: models.IssueBug, ProjectID: f.project.ID, ReporterID: "u1", SprintID: "nope"}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Create(f.db, tt.opts); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreate_MirrorsSprintAndLinks(t *testing.T) {
	f := newFixture(t)
	e, err := bpmn.CreateElement(f.db, bpmn.CreateElementOpts{DiagramID: f.diagram.ID, ElementID: "Task_1", Type: models.ElementTask, Name: "t"})
	if err != nil {
		t.Fatal(err)
	}
	is := f.create(t, CreateOpts{SprintID: f.sprint.ID, LinkedBPMNElements: []models.BPMNRef{e.Ref()}})

	if !is.InSprint(f.sprint.ID) || !is.HasLink(e.Ref()) {
		t.Errorf("issue = sprint %v links %v", is.SprintID, is.LinkedBPMNElements)
	}
	var s models.Sprint
	f.db.First(&s, "id = ?", f.sprint.ID)
	if !s.HasIssue(is.ID) {
		t.Errorf("sprint issueIds = %v, want %s", s.IssueIDs, is.ID)
	}
	ge, _ := bpmn.GetElement(f.db, e.ID)
	if !ge.HasIssue(is.ID) {
		t.Errorf("element linked issues = %v, want %s", ge.LinkedIssueIDs, is.ID)
	}
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	inSprint := f.create(t, CreateOpts{SprintID: f.sprint.ID})
	backlog := f.create(t, CreateOpts{Type: models.IssueBug})
	f.create(t, CreateOpts{Type: models.IssueUserStory, AssigneeID: "u2"})

	tests := []struct {
		name    string
		filters ListFilters
		want    int
	}{
		{"all", ListFilters{}, 3},
		{"project", ListFilters{ProjectID: f.project.ID}, 3},
		{"sprint", ListFilters{SprintID: f.sprint.ID}, 1},
		{"no sprint", ListFilters{SprintID: NoSprint}, 2},
		{"type", ListFilters{Type: models.IssueBug}, 1},
		{"assignee", ListFilters{AssigneeID: "u2"}, 1},
		{"status", ListFilters{Status: models.IssueDone}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := List(f.db, tt.filters)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("List(%+v) = %d issues, want %d", tt.filters, len(got), tt.want)
			}
		})
	}

	got, _ := List(f.db, ListFilters{SprintID: f.sprint.ID})
	if len(got) == 1 && got[0].ID != inSprint.ID {
		t.Errorf("sprint filter returned %s", got[0].ID)
	}
	got, _ = List(f.db, ListFilters{Type: models.IssueBug})
	if len(got) == 1 && got[0].ID != backlog.ID {
		t.Errorf("type filter returned %s", got[0].ID)
	}
}

func TestUserStories(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, CreateOpts{Type: models.IssueUserStory, Title: "a"})
	b := f.create(t, CreateOpts{Type: models.IssueUserStory, Title: "b"})
	f.create(t, CreateOpts{Type: models.IssueTask})

	stories, err := UserStories(f.db, f.project.ID, "")
	if err != nil || len(stories) != 2 {
		t.Fatalf("UserStories = %d, %v", len(stories), err)
	}
	stories, _ = UserStories(f.db, f.project.ID, a.ID)
	if len(stories) != 1 || stories[0].ID != b.ID {
		t.Errorf("UserStories excluding a = %+v", stories)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	is := f.create(t, CreateOpts{AssigneeID: "u2"})
	hours, progress := 3.5, 40

	got, err := Update(f.db, is.ID, UpdateOpts{
		Title:          strPtr("Renamed"),
		Priority:       strPtr(models.PriorityUrgent),
		AssigneeID:     strPtr(""),
		EstimatedHours: &hours,
		Progress:       &progress,
		Dependencies:   []models.Dependency{{IssueID: "other", Note: "blocks"}},
		SprintID:       strPtr(f.sprint.ID),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "Renamed" || got.Priority != models.PriorityUrgent || got.AssigneeID != nil {
		t.Errorf("Update = %+v", got)
	}
	if got.EstimatedHours == nil || *got.EstimatedHours != 3.5 || got.Progress == nil || *got.Progress != 40 {
		t.Errorf("hours/progress = %v/%v", got.EstimatedHours, got.Progress)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0].Note != "blocks" {
		t.Errorf("dependencies = %+v", got.Dependencies)
	}
	if !got.InSprint(f.sprint.ID) {
		t.Errorf("sprint = %v", got.SprintID)
	}

	if _, err := Update(f.db, is.ID, UpdateOpts{Type: strPtr("EPIC")}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad type error = %v, want ErrInvalid", err)
	}
	if _, err := Update(f.db, is.ID, UpdateOpts{Title: strPtr(" ")}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("blank title error = %v, want ErrInvalid", err)
	}
	if _, err := Update(f.db, "missing", UpdateOpts{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing issue error = %v, want ErrNotFound", err)
	}
}

func TestSetStatus_RecomputesElementStatus(t *testing.T) {
	f := newFixture(t)
	ref := models.BPMNRef{DiagramID: f.diagram.ID, ElementID: "Task_1"}
	a := f.create(t, CreateOpts{LinkedBPMNElements: []models.BPMNRef{ref}})
	f.create(t, CreateOpts{LinkedBPMNElements: []models.BPMNRef{ref}})

	if _, err := SetStatus(f.db, a.ID, models.IssueDone); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	st, err := bpmn.GetStatus(f.db, "Task_1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.Status != models.ElementInProgress || st.Progress != 50 {
		t.Errorf("status = %s/%d, want in_progress/50", st.Status, st.Progress)
	}

	if _, err := SetStatus(f.db, a.ID, ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty status error = %v, want ErrInvalid", err)
	}
}

func TestUpdate_StatusChangeRefreshesElement(t *testing.T) {
	f := newFixture(t)
	ref := models.BPMNRef{DiagramID: f.diagram.ID, ElementID: "Task_1"}
	is := f.create(t, CreateOpts{LinkedBPMNElements: []models.BPMNRef{ref}})

	if _, err := Update(f.db, is.ID, UpdateOpts{Status: strPtr(models.IssueInProgress)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	st, err := bpmn.GetStatus(f.db, "Task_1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.Status != models.ElementInProgress || st.Progress != 0 {
		t.Errorf("after IN_PROGRESS status = %s/%d, want in_progress/0", st.Status, st.Progress)
	}

	if _, err := SetStatus(f.db, is.ID, models.IssueDone); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	st, err = bpmn.GetStatus(f.db, "Task_1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.Status != models.ElementCompleted || st.Progress != 100 {
		t.Errorf("after DONE status = %s/%d, want completed/100", st.Status, st.Progress)
	}
}

func TestSetSprint(t *testing.T) {
	f := newFixture(t)
	is := f.create(t, CreateOpts{})
	got, err := SetSprint(f.db, is.ID, f.sprint.ID)
	if err != nil || !got.InSprint(f.sprint.ID) {
		t.Fatalf("SetSprint = %+v, %v", got, err)
	}
	got, err = SetSprint(f.db, is.ID, "")
	if err != nil || got.SprintID != nil {
		t.Fatalf("SetSprint(none) = %+v, %v", got, err)
	}
}

func TestLinkAndLookups(t *testing.T) {
	f := newFixture(t)
	is := f.create(t, CreateOpts{})
	ref := models.BPMNRef{DiagramID: f.diagram.ID, ElementID: "Gateway_1"}

	for i := 0; i < 2; i++ {
		got, err := LinkElement(f.db, is.ID, ref)
		if err != nil {
			t.Fatalf("LinkElement: %v", err)
		}
		if len(got.LinkedBPMNElements) != 1 {
			t.Errorf("links after link #%d = %v", i+1, got.LinkedBPMNElements)
		}
	}

	byElement, err := ByElement(f.db, "Gateway_1")
	if err != nil || len(byElement) != 1 {
		t.Errorf("ByElement = %d, %v", len(byElement), err)
	}
	byDiagram, err := ByDiagram(f.db, f.diagram.ID)
	if err != nil || len(byDiagram) != 1 {
		t.Errorf("ByDiagram = %d, %v", len(byDiagram), err)
	}

	got, err := UnlinkElement(f.db, is.ID, ref)
	if err != nil || len(got.LinkedBPMNElements) != 0 {
		t.Errorf("UnlinkElement = %v, %v", got.LinkedBPMNElements, err)
	}
	if _, err := LinkElement(f.db, "missing", ref); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing issue error = %v, want ErrNotFound", err)
	}
}

func TestDelete_RemovesReferences(t *testing.T) {
	f := newFixture(t)
	e, _ := bpmn.CreateElement(f.db, bpmn.CreateElementOpts{DiagramID: f.diagram.ID, ElementID: "Task_1", Type: models.ElementTask, Name: "t"})
	done := f.create(t, CreateOpts{Status: models.IssueDone, LinkedBPMNElements: []models.BPMNRef{e.Ref()}})
	doomed := f.create(t, CreateOpts{SprintID: f.sprint.ID, LinkedBPMNElements: []models.BPMNRef{e.Ref()}})

	if st, _ := bpmn.GetStatus(f.db, "Task_1"); st == nil || st.Progress != 50 {
		t.Fatalf("status before delete = %+v, want progress 50", st)
	}
	if err := Delete(f.db, doomed.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var s models.Sprint
	f.db.First(&s, "id = ?", f.sprint.ID)
	if s.HasIssue(doomed.ID) {
		t.Error("sprint still lists deleted issue")
	}
	ge, _ := bpmn.GetElement(f.db, e.ID)
	if ge.HasIssue(doomed.ID) || !ge.HasIssue(done.ID) {
		t.Errorf("element linked issues = %v", ge.LinkedIssueIDs)
	}
	if st, _ := bpmn.GetStatus(f.db, "Task_1"); st == nil || st.Status != models.ElementCompleted {
		t.Errorf("status after delete = %+v, want completed", st)
	}
	if err := Delete(f.db, doomed.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}
