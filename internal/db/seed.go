package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/aegis/internal/auth"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SampleXML is a minimal process with one task, used by Seed.
const SampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="Definitions_1" targetNamespace="http://bpmn.io/schema/bpmn">
  <bpmn:process id="Process_1" isExecutable="false">
    <bpmn:startEvent id="StartEvent_1"/>
    <bpmn:task id="Activity_1" name="Implement Login"/>
    <bpmn:endEvent id="EndEvent_1"/>
    <bpmn:sequenceFlow id="Flow_1" sourceRef="StartEvent_1" targetRef="Activity_1"/>
    <bpmn:sequenceFlow id="Flow_2" sourceRef="Activity_1" targetRef="EndEvent_1"/>
  </bpmn:process>
</bpmn:definitions>`

// SeedOpts holds the admin account created by Seed.
type SeedOpts struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// SeedResult reports what Seed wrote.
type SeedResult struct {
	Skipped bool
	Admin   models.User
	Project models.Project
	Diagram models.BPMNDiagram
	Sprint  models.Sprint
	Issue   models.Issue
}

// Seed writes a starter dataset: an admin, a project with one sprint, a
// diagram whose Activity_1 element is linked both ways to a user story.
// It is a no-op when the admin email already exists.
func Seed(db *gorm.DB, opts SeedOpts) (*SeedResult, error) {
	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return nil, fmt.Errorf("db: seed: admin email and password are required")
	}
	if opts.AdminName == "" {
		opts.AdminName = "Admin"
	}

	var existing models.User
	err := db.Where("email = ?", opts.AdminEmail).First(&existing).Error
	if err == nil {
		return &SeedResult{Skipped: true, Admin: existing}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("db: seed: check admin: %w", err)
	}

	hash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("db: seed: %w", err)
	}

	res := &SeedResult{}
	err = db.Transaction(func(tx *gorm.DB) error {
		res.Admin = models.User{Name: opts.AdminName, Email: opts.AdminEmail, PasswordHash: hash}
		if err := tx.Create(&res.Admin).Error; err != nil {
			return fmt.Errorf("create admin: %w", err)
		}

		res.Project = models.Project{
			Name:        "Test Project",
			Description: "Initial test environment",
			OwnerID:     res.Admin.ID,
			MemberIDs:   datatypes.JSONSlice[string]{res.Admin.ID},
		}
		if err := tx.Create(&res.Project).Error; err != nil {
			return fmt.Errorf("create project: %w", err)
		}

		res.Diagram = models.BPMNDiagram{
			Name:      "Core Business Process",
			ProjectID: res.Project.ID,
			XML:       SampleXML,
		}
		if err := tx.Create(&res.Diagram).Error; err != nil {
			return fmt.Errorf("create diagram: %w", err)
		}

		start := time.Now().Truncate(24 * time.Hour)
		res.Sprint = models.Sprint{
			Name:      "Sprint 1",
			ProjectID: res.Project.ID,
			StartDate: start,
			EndDate:   start.Add(14 * 24 * time.Hour),
			Status:    models.SprintActive,
		}
		if err := tx.Create(&res.Sprint).Error; err != nil {
			return fmt.Errorf("create sprint: %w", err)
		}

		element := models.BPMNElement{
			DiagramID: res.Diagram.ID,
			ElementID: "Activity_1",
			Type:      models.ElementTask,
			Name:      "Implement Login",
		}
		if err := tx.Create(&element).Error; err != nil {
			return fmt.Errorf("create element: %w", err)
		}

		sprintID := res.Sprint.ID
		res.Issue = models.Issue{
			Title:              "Implement Login",
			Type:               models.IssueUserStory,
			ProjectID:          res.Project.ID,
			ReporterID:         res.Admin.ID,
			SprintID:           &sprintID,
			LinkedBPMNElements: datatypes.JSONSlice[models.BPMNRef]{element.Ref()},
		}
		if err := tx.Create(&res.Issue).Error; err != nil {
			return fmt.Errorf("create issue: %w", err)
		}

		if err := tx.Model(&element).Update("linked_issue_ids", datatypes.JSONSlice[string]{res.Issue.ID}).Error; err != nil {
			return fmt.Errorf("link element: %w", err)
		}
		if err := tx.Model(&res.Sprint).Update("issue_ids", datatypes.JSONSlice[string]{res.Issue.ID}).Error; err != nil {
			return fmt.Errorf("attach issue to sprint: %w", err)
		}
		res.Sprint.IssueIDs = datatypes.JSONSlice[string]{res.Issue.ID}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db: seed: %w", err)
	}
	return res, nil
}
