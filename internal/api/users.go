package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/aegis/internal/auth"
	"github.com/zulandar/aegis/internal/user"
)

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Avatar   string `json:"avatar"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Avatar   *string `json:"avatar"`
	Password *string `json:"password"`
}

func handleUserList(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := user.List(d.DB)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

func handleSignup(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if !bind(c, &req) {
			return
		}
		u, token, err := user.Signup(d.DB, d.Issuer, user.CreateOpts{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Avatar:   req.Avatar,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"token": token, "user": u})
	}
}

func handleLogin(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bind(c, &req) {
			return
		}
		u, token, err := user.Authenticate(d.DB, d.Issuer, req.Email, req.Password)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
	}
}

func handleMe(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := user.Get(d.DB, auth.UserID(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

func handleUserGet(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := user.Get(d.DB, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

func handleUserCreate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if !bind(c, &req) {
			return
		}
		u, err := user.Create(d.DB, user.CreateOpts{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Avatar:   req.Avatar,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

func handleUserUpdate(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req userUpdateRequest
		if !bind(c, &req) {
			return
		}
		u, err := user.Update(d.DB, c.Param("id"), user.UpdateOpts{
			Name:     req.Name,
			Email:    req.Email,
			Avatar:   req.Avatar,
			Password: req.Password,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

func handleUserDelete(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := user.Delete(d.DB, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		message(c, "User deleted successfully")
	}
}
