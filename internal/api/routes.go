package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/aegis/internal/auth"
)

// registerRoutes mounts every route under /api. Only signup, login, health
// and the user, project and issue list reads skip the auth gate.
func registerRoutes(router *gin.Engine, d Deps) {
	api := router.Group("/api")
	api.GET("/health", handleHealth())

	gate := auth.Middleware(d.Issuer)

	users := api.Group("/users")
	users.GET("", handleUserList(d))
	users.POST("/signup", handleSignup(d))
	users.POST("/login", handleLogin(d))
	users.GET("/me", gate, handleMe(d))
	users.GET("/:id", handleUserGet(d))
	users.POST("", gate, handleUserCreate(d))
	users.PUT("/:id", gate, handleUserUpdate(d))
	users.DELETE("/:id", gate, handleUserDelete(d))

	projects := api.Group("/projects")
	projects.GET("", handleProjectList(d))
	projects.GET("/:id", gate, handleProjectGet(d))
	projects.POST("", gate, handleProjectCreate(d))
	projects.PUT("/:id", gate, handleProjectUpdate(d))
	projects.DELETE("/:id", gate, handleProjectDelete(d))

	issues := api.Group("/issues")
	issues.GET("", handleIssueList(d))
	authed := issues.Group("", gate)
	authed.GET("/user-stories", handleUserStories(d))
	authed.GET("/bpmn/element/:elementId", handleIssuesByElement(d))
	authed.GET("/bpmn/diagram/:diagramId", handleIssuesByDiagram(d))
	authed.GET("/:id", handleIssueGet(d))
	authed.POST("", handleIssueCreate(d))
	authed.PUT("/:id", handleIssueUpdate(d))
	authed.PATCH("/:id/status", handleIssueStatus(d))
	authed.PATCH("/:id/sprint", handleIssueSprint(d))
	authed.POST("/:id/bpmn/link", handleIssueLink(d))
	authed.DELETE("/:id/bpmn/link", handleIssueUnlink(d))
	authed.DELETE("/:id", handleIssueDelete(d))

	sprints := api.Group("/sprints", gate)
	sprints.GET("", handleSprintList(d))
	sprints.GET("/project/:projectId/active", handleSprintActive(d))
	sprints.GET("/:id", handleSprintGet(d))
	sprints.POST("", handleSprintCreate(d))
	sprints.PUT("/:id", handleSprintUpdate(d))
	sprints.POST("/:id/issues/:issueId", handleSprintAddIssue(d))
	sprints.DELETE("/:id/issues/:issueId", handleSprintRemoveIssue(d))
	sprints.DELETE("/:id", handleSprintDelete(d))
	sprints.POST("/:id/complete", handleSprintComplete(d))

	bpmn := api.Group("/bpmn", gate)
	bpmn.GET("/diagrams", handleDiagramList(d))
	bpmn.GET("/diagrams/:id", handleDiagramGet(d))
	bpmn.POST("/diagrams", handleDiagramCreate(d))
	bpmn.PUT("/diagrams/:id", handleDiagramUpdate(d))
	bpmn.PATCH("/diagrams/:id", handleDiagramUpdate(d))
	bpmn.DELETE("/diagrams/:id", handleDiagramDelete(d))
	bpmn.GET("/diagrams/:id/snapshots", handleSnapshots(d))
	bpmn.GET("/diagrams/:id/previous-sprint-snapshot", handlePreviousSnapshot(d))
	bpmn.POST("/diagrams/:id/changes", handleChangesAppend(d))
	bpmn.GET("/diagrams/:id/changes", handleChangesList(d))
	bpmn.DELETE("/diagrams/:id/changes", handleChangesReset(d))

	bpmn.GET("/elements", handleElementList(d))
	bpmn.GET("/elements/:id", handleElementGet(d))
	bpmn.POST("/elements", handleElementCreate(d))
	bpmn.PUT("/elements/:id", handleElementUpdate(d))
	bpmn.DELETE("/elements/:id", handleElementDelete(d))
	bpmn.POST("/elements/:id/issues/:issueId", handleElementLink(d))
	bpmn.DELETE("/elements/:id/issues/:issueId", handleElementUnlink(d))

	bpmn.GET("/statuses", handleStatusList(d))
	bpmn.POST("/statuses/update-from-issues", handleStatusFromIssues(d))
	bpmn.GET("/statuses/:elementId", handleStatusGet(d))
	bpmn.PUT("/statuses/:elementId", handleStatusPut(d))
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
