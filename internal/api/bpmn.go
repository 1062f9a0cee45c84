package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/aegis/internal/bpmn"
)

type diagramRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ProjectID   string `json:"projectId" binding:"required"`
	XML         string `json:"xml"`
}

type diagramUpdateRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	XML              *string `json:"xml"`
	LastCommittedXML *string `json:"lastCommittedXml"`
}

type elementRequest struct {
	DiagramID string `json:"diagramId" binding:"required"`
	ElementID string `json:"elementId" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

type elementUpdateRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

type changeRequest struct {
	ElementID   string `json:"elementId"`
	ElementName string `json:"elementName"`
	ElementType string `json:"elementType"`
	ChangeType  string `json:"changeType"`
}

type changesRequest struct {
	Changes []changeRequest `json:"changes" binding:"required"`
}

type statusPutRequest struct {
	Status   string `json:"status" binding:"required"`
	Progress int    `json:"progress"`
}

type fromIssuesRequest struct {
	IssueIDs []string `json:"issueIds" binding:"required"`
}

// Diagrams.

func handleDiagramList(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		diagrams, err := bpmn.ListDiagrams(d.DB, c.Query("projectId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, diagrams)
	}
}

func handleDiagramGet(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		diagram, err := bpmn.GetDiagram(d.DB, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, diagram)
	}
}

func handleDiagramCreate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req diagramRequest
		if !bind(c, &req) {
			return
		}
		diagram, err := bpmn.CreateDiagram(d.DB, bpmn.CreateDiagramOpts{
			Name:        req.Name,
			Description: req.Description,
			ProjectID:   req.ProjectID,
			XML:         req.XML,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, diagram)
	}
}

// handleDiagramUpdate serves both PUT and PATCH; absent fields are kept.
func handleDiagramUpdate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req diagramUpdateRequest
		if !bind(c, &req) {
			return
		}
		diagram, err := bpmn.UpdateDiagram(d.DB, c.Param("id"), bpmn.DiagramUpdate{
			Name:             req.Name,
			Description:      req.Description,
			XML:              req.XML,
			LastCommittedXML: req.LastCommittedXML,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, diagram)
	}
}

func handleDiagramDelete(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := bpmn.DeleteDiagram(d.DB, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		message(c, "Diagram deleted successfully")
	}
}

func handleSnapshots(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		snaps, err := bpmn.Snapshots(d.DB, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, snaps)
	}
}

func handlePreviousSnapshot(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := bpmn.PreviousSnapshot(d.DB, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// Change log.

func handleChangesAppend(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changesRequest
		if !bind(c, &req) {
			return
		}
		changes := make([]bpmn.Change, 0, len(req.Changes))
		for _, ch := range req.Changes {
			changes = append(changes, bpmn.Change{
				ElementID:   ch.ElementID,
				ElementName: ch.ElementName,
				ElementType: ch.ElementType,
				ChangeType:  ch.ChangeType,
			})
		}
		saved, err := bpmn.AppendChanges(d.DB, c.Param("id"), changes)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, saved)
	}
}

func handleChangesList(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := bpmn.ListChanges(d.DB, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, logs)
	}
}

func handleChangesReset(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := bpmn.ResetChanges(d.DB, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Change logs deleted successfully", "deleted": n})
	}
}

// Elements.

func handleElementList(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		elements, err := bpmn.ListElements(d.DB, c.Query("diagramId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, elements)
	}
}

func handleElementGet(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := bpmn.GetElement(d.DB, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

func handleElementCreate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req elementRequest
		if !bind(c, &req) {
			return
		}
		e, err := bpmn.CreateElement(d.DB, bpmn.CreateElementOpts{
			DiagramID: req.DiagramID,
			ElementID: req.ElementID,
			Type:      req.Type,
			Name:      req.Name,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, e)
	}
}

func handleElementUpdate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req elementUpdateRequest
		if !bind(c, &req) {
			return
		}
		e, err := bpmn.UpdateElement(d.DB, c.Param("id"), bpmn.ElementUpdate{Name: req.Name, Type: req.Type})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

func handleElementDelete(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := bpmn.DeleteElement(d.DB, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		message(c, "Element deleted successfully")
	}
}

func handleElementLink(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, is, err := bpmn.Link(d.DB, c.Param("id"), c.Param("issueId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"element": e, "issue": is})
	}
}

func handleElementUnlink(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, is, err := bpmn.Unlink(d.DB, c.Param("id"), c.Param("issueId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"element": e, "issue": is})
	}
}

// Statuses.

func handleStatusList(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses, err := bpmn.ListStatuses(d.DB)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, statuses)
	}
}

func handleStatusGet(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := bpmn.GetStatus(d.DB, c.Param("elementId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func handleStatusPut(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusPutRequest
		if !bind(c, &req) {
			return
		}
		st, err := bpmn.SetStatus(d.DB, c.Param("elementId"), req.Status, req.Progress)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func handleStatusFromIssues(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req fromIssuesRequest
		if !bind(c, &req) {
			return
		}
		statuses, err := bpmn.UpdateFromIssues(d.DB, req.IssueIDs)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, statuses)
	}
}
