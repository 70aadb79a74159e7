package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexora-ai/nexora/pkg/services"
)

func (s *Server) handleCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleGetUser(c *gin.Context) {
	caller := currentUser(c)
	id := c.Param("id")
	if id != caller.ID && !caller.IsAdmin {
		respondError(c, services.ErrNotFound)
		return
	}
	user, err := s.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	var req services.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := s.users.Update(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	caller := currentUser(c)
	id := c.Param("id")
	if id != caller.ID && !caller.IsAdmin {
		respondError(c, services.ErrNotFound)
		return
	}
	if err := s.users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	if id == caller.ID {
		s.clearAuthCookies(c)
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (s *Server) handleChangePassword(c *gin.Context) {
	caller := currentUser(c)
	id := c.Param("id")
	if id != caller.ID && !caller.IsAdmin {
		respondError(c, services.ErrNotFound)
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.users.ChangePassword(c.Request.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}
