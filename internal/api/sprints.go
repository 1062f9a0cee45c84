package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/models"
	"github.com/zulandar/aegis/internal/sprint"
)

type sprintRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	StartDate   string `json:"startDate" binding:"required"`
	EndDate     string `json:"endDate" binding:"required"`
	ProjectID   string `json:"projectId" binding:"required"`
	Status      string `json:"status"`
}

type sprintUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Status      *string `json:"status"`
}

// dateLayouts are tried in order; date pickers send plain dates.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02"}

func parseDate(field, s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Invalid("sprint", "%s %q is not a date", field, s)
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func handleSprintList(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sprints, err := sprint.List(d.DB, c.Query("projectId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sprints)
	}
}

func handleSprintGet(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := sprint.Get(d.DB, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

// handleSprintActive answers null when the project has no active sprint.
func handleSprintActive(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := sprint.Active(d.DB, c.Param("projectId"))
		if err != nil {
			fail(c, err)
			return
		}
		if s == nil {
			c.JSON(http.StatusOK, nil)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func handleSprintCreate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sprintRequest
		if !bind(c, &req) {
			return
		}
		start, err := parseDate("startDate", req.StartDate)
		if err != nil {
			fail(c, err)
			return
		}
		end, err := parseDate("endDate", req.EndDate)
		if err != nil {
			fail(c, err)
			return
		}
		s, err := sprint.Create(d.DB, sprint.CreateOpts{
			Name:        req.Name,
			Description: req.Description,
			StartDate:   start,
			EndDate:     end,
			ProjectID:   req.ProjectID,
			Status:      req.Status,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, s)
	}
}

// handleSprintUpdate applies field changes and, when the body moves the
// sprint to COMPLETED, runs the completion workflow afterwards.
func handleSprintUpdate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sprintUpdateRequest
		if !bind(c, &req) {
			return
		}
		start, err := parseOptionalDate("startDate", req.StartDate)
		if err != nil {
			fail(c, err)
			return
		}
		end, err := parseOptionalDate("endDate", req.EndDate)
		if err != nil {
			fail(c, err)
			return
		}
		opts := sprint.UpdateOpts{
			Name:        req.Name,
			Description: req.Description,
			StartDate:   start,
			EndDate:     end,
			Status:      req.Status,
		}
		s, err := sprint.Update(d.DB, c.Param("id"), opts)
		if err != nil {
			fail(c, err)
			return
		}
		if sprint.CompletesSprint(opts) && s.Status != models.SprintCompleted {
			res, err := sprint.Complete(c.Request.Context(), d.DB, s.ID, sprint.CompleteOpts{Notifier: d.Notifier})
			if err != nil {
				fail(c, err)
				return
			}
			s = res.Sprint
		}
		c.JSON(http.StatusOK, s)
	}
}

func handleSprintAddIssue(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := sprint.AddIssue(d.DB, c.Param("id"), c.Param("issueId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func handleSprintRemoveIssue(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := sprint.RemoveIssue(d.DB, c.Param("id"), c.Param("issueId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func handleSprintDelete(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sprint.Delete(d.DB, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		message(c, "Sprint deleted successfully")
	}
}

func handleSprintComplete(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := sprint.Complete(c.Request.Context(), d.DB, c.Param("id"), sprint.CompleteOpts{Notifier: d.Notifier})
		if err != nil {
			if res == nil {
				fail(c, err)
				return
			}
			// The sprint stayed completed; report what did get done.
			log.Printf("api: complete sprint %s: %v", c.Param("id"), err)
			c.AbortWithStatusJSON(statusFor(err), completionBody(err.Error(), res))
			return
		}
		c.JSON(http.StatusOK, completionBody("Sprint completed and BPMN snapshots recorded", res))
	}
}

func completionBody(msg string, res *sprint.CompleteResult) gin.H {
	nonNil := func(ids []string) []string {
		if ids == nil {
			return []string{}
		}
		return ids
	}
	return gin.H{
		"message":     msg,
		"sprint":      res.Sprint,
		"kept":        nonNil(res.Kept),
		"reassigned":  nonNil(res.Reassigned),
		"snapshotted": nonNil(res.Snapshotted),
		"skipped":     nonNil(res.Skipped),
		"failed":      nonNil(res.Failed),
	}
}
