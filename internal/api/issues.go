package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/auth"
	"github.com/zulandar/aegis/internal/issue"
	"github.com/zulandar/aegis/internal/models"
)

type issueRequest struct {
	Title              string               `json:"title" binding:"required"`
	Description        string               `json:"description"`
	Type               string               `json:"type" binding:"required"`
	Status             string               `json:"status"`
	Priority           string               `json:"priority"`
	AssigneeID         string               `json:"assigneeId"`
	ReporterID         string               `json:"reporterId"`
	ProjectID          string               `json:"projectId" binding:"required"`
	SprintID           string               `json:"sprintId"`
	EstimatedHours     *float64             `json:"estimatedHours"`
	Progress           *int                 `json:"progress"`
	LinkedBPMNElements []models.BPMNRef     `json:"linkedBPMNElements"`
	CustomFields       []models.CustomField `json:"customFields"`
	Dependencies       []models.Dependency  `json:"dependencies"`
}

type issueUpdateRequest struct {
	Title          *string              `json:"title"`
	Description    *string              `json:"description"`
	Type           *string              `json:"type"`
	Status         *string              `json:"status"`
	Priority       *string              `json:"priority"`
	AssigneeID     nullableString       `json:"assigneeId"`
	SprintID       nullableString       `json:"sprintId"`
	EstimatedHours *float64             `json:"estimatedHours"`
	Progress       *int                 `json:"progress"`
	CustomFields   []models.CustomField `json:"customFields"`
	Dependencies   []models.Dependency  `json:"dependencies"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type sprintMoveRequest struct {
	SprintID nullableString `json:"sprintId"`
}

type refRequest struct {
	DiagramID string `json:"diagramId" form:"diagramId" binding:"required"`
	ElementID string `json:"elementId" form:"elementId" binding:"required"`
}

func (r refRequest) ref() models.BPMNRef {
	return models.BPMNRef{DiagramID: r.DiagramID, ElementID: r.ElementID}
}

func handleIssueList(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		issues, err := issue.List(d.DB, issue.ListFilters{
			ProjectID:  c.Query("projectId"),
			SprintID:   c.Query("sprintId"),
			Type:       c.Query("type"),
			Status:     c.Query("status"),
			AssigneeID: c.Query("assigneeId"),
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, issues)
	}
}

func handleUserStories(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		issues, err := issue.UserStories(d.DB, c.Query("projectId"), c.Query("excludeId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, issues)
	}
}

func handleIssueGet(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		is, err := issue.Get(d.DB, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, is)
	}
}

func handleIssueCreate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req issueRequest
		if !bind(c, &req) {
			return
		}
		reporter := req.ReporterID
		if reporter == "" {
			reporter = auth.UserID(c)
		}
		is, err := issue.Create(d.DB, issue.CreateOpts{
			Title:              req.Title,
			Description:        req.Description,
			Type:               req.Type,
			Status:             req.Status,
			Priority:           req.Priority,
			AssigneeID:         req.AssigneeID,
			ReporterID:         reporter,
			ProjectID:          req.ProjectID,
			SprintID:           req.SprintID,
			EstimatedHours:     req.EstimatedHours,
			Progress:           req.Progress,
			LinkedBPMNElements: req.LinkedBPMNElements,
			CustomFields:       req.CustomFields,
			Dependencies:       req.Dependencies,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, is)
	}
}

func handleIssueUpdate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req issueUpdateRequest
		if !bind(c, &req) {
			return
		}
		is, err := issue.Update(d.DB, c.Param("id"), issue.UpdateOpts{
			Title:          req.Title,
			Description:    req.Description,
			Type:           req.Type,
			Status:         req.Status,
			Priority:       req.Priority,
			AssigneeID:     req.AssigneeID.ptr(),
			SprintID:       req.SprintID.ptr(),
			EstimatedHours: req.EstimatedHours,
			Progress:       req.Progress,
			CustomFields:   req.CustomFields,
			Dependencies:   req.Dependencies,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, is)
	}
}

func handleIssueStatus(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if !bind(c, &req) {
			return
		}
		is, err := issue.SetStatus(d.DB, c.Param("id"), req.Status)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, is)
	}
}

func handleIssueSprint(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sprintMoveRequest
		if !bind(c, &req) {
			return
		}
		if !req.SprintID.Set {
			fail(c, apperr.Invalid("issue", "sprintId is required (null moves to backlog)"))
			return
		}
		is, err := issue.SetSprint(d.DB, c.Param("id"), req.SprintID.Value)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, is)
	}
}

func handleIssueLink(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refRequest
		if !bind(c, &req) {
			return
		}
		is, err := issue.LinkElement(d.DB, c.Param("id"), req.ref())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, is)
	}
}

func handleIssueUnlink(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		is, err := issue.UnlinkElement(d.DB, c.Param("id"), req.ref())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, is)
	}
}

func handleIssuesByElement(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		issues, err := issue.ByElement(d.DB, c.Param("elementId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, issues)
	}
}

func handleIssuesByDiagram(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		issues, err := issue.ByDiagram(d.DB, c.Param("diagramId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, issues)
	}
}

func handleIssueDelete(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := issue.Delete(d.DB, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		message(c, "Issue deleted successfully")
	}
}
