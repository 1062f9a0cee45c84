package db

import (
	"strings"
	"testing"

	"github.com/zulandar/aegis/internal/config"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestMySQLDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "root no password",
			cfg:  config.DatabaseConfig{User: "root", Host: "127.0.0.1", Port: 3306, Name: "aegis"},
			want: "root@tcp(127.0.0.1:3306)/aegis?parseTime=true",
		},
		{
			name: "with password",
			cfg:  config.DatabaseConfig{User: "aegis", Password: "pw", Host: "db.internal", Port: 3307, Name: "aegis_prod"},
			want: "aegis:pw@tcp(db.internal:3307)/aegis_prod?parseTime=true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MySQLDSN(tt.cfg); got != tt.want {
				t.Errorf("MySQLDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"silent": logger.Silent,
		"error":  logger.Error,
		"warn":   logger.Warn,
		"info":   logger.Info,
		"":       logger.Silent,
	}
	for in, want := range tests {
		if got := LogLevel(in); got != want {
			t.Errorf("LogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "postgres"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestAllModels_Count(t *testing.T) {
	if got := len(AllModels()); got != 8 {
		t.Errorf("AllModels() returned %d models, want 8", got)
	}
}

func TestAutoMigrate_CreatesTables(t *testing.T) {
	db := openTestDB(t)
	for _, table := range []string{"users", "projects", "sprints", "issues", "bpmn_diagrams", "bpmn_elements", "bpmn_element_statuses", "bpmn_change_logs"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %s not created", table)
		}
	}
}

func TestSeed(t *testing.T) {
	db := openTestDB(t)

	res, err := Seed(db, SeedOpts{AdminEmail: "admin@test.com", AdminPassword: "password123"})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if res.Skipped {
		t.Fatal("first seed should not be skipped")
	}
	if res.Admin.Name != "Admin" {
		t.Errorf("admin name = %q, want Admin", res.Admin.Name)
	}

	var issue models.Issue
	if err := db.First(&issue, "id = ?", res.Issue.ID).Error; err != nil {
		t.Fatalf("load issue: %v", err)
	}
	want := models.BPMNRef{DiagramID: res.Diagram.ID, ElementID: "Activity_1"}
	if !issue.HasLink(want) {
		t.Errorf("issue links = %v, want %v", issue.LinkedBPMNElements, want)
	}
	if !issue.InSprint(res.Sprint.ID) {
		t.Errorf("issue sprint = %v, want %s", issue.SprintID, res.Sprint.ID)
	}

	var element models.BPMNElement
	if err := db.First(&element, "diagram_id = ? AND element_id = ?", res.Diagram.ID, "Activity_1").Error; err != nil {
		t.Fatalf("load element: %v", err)
	}
	if !element.HasIssue(issue.ID) {
		t.Errorf("element linked issues = %v, want %s", element.LinkedIssueIDs, issue.ID)
	}

	var sprint models.Sprint
	if err := db.First(&sprint, "id = ?", res.Sprint.ID).Error; err != nil {
		t.Fatalf("load sprint: %v", err)
	}
	if !sprint.HasIssue(issue.ID) {
		t.Errorf("sprint issue ids = %v, want %s", sprint.IssueIDs, issue.ID)
	}

	var admin models.User
	db.First(&admin, "email = ?", "admin@test.com")
	if admin.PasswordHash == "password123" || admin.PasswordHash == "" {
		t.Errorf("admin password not hashed: %q", admin.PasswordHash)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db := openTestDB(t)
	opts := SeedOpts{AdminEmail: "admin@test.com", AdminPassword: "password123"}
	if _, err := Seed(db, opts); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	res, err := Seed(db, opts)
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if !res.Skipped {
		t.Error("second seed should be skipped")
	}
	var count int64
	db.Model(&models.Project{}).Count(&count)
	if count != 1 {
		t.Errorf("project count = %d, want 1", count)
	}
}

func TestSeed_RequiresCredentials(t *testing.T) {
	if _, err := Seed(nil, SeedOpts{AdminEmail: "a@b.c"}); err == nil {
		t.Fatal("expected error without password")
	}
}
