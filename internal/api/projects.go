package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/aegis/internal/auth"
	"github.com/zulandar/aegis/internal/project"
)

type projectRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	OwnerID     string   `json:"ownerId"`
	MemberIDs   []string `json:"memberIds"`
}

type projectUpdateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	OwnerID     *string  `json:"ownerId"`
	MemberIDs   []string `json:"memberIds"`
}

func handleProjectList(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := project.List(d.DB)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, projects)
	}
}

func handleProjectGet(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := project.Get(d.DB, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func handleProjectCreate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req projectRequest
		if !bind(c, &req) {
			return
		}
		owner := req.OwnerID
		if owner == "" {
			owner = auth.UserID(c)
		}
		p, err := project.Create(d.DB, project.CreateOpts{
			Name:        req.Name,
			Description: req.Description,
			OwnerID:     owner,
			MemberIDs:   req.MemberIDs,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func handleProjectUpdate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req projectUpdateRequest
		if !bind(c, &req) {
			return
		}
		p, err := project.Update(d.DB, c.Param("id"), project.UpdateOpts{
			Name:        req.Name,
			Description: req.Description,
			OwnerID:     req.OwnerID,
			MemberIDs:   req.MemberIDs,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func handleProjectDelete(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := project.Delete(d.DB, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		message(c, "Project deleted successfully")
	}
}
