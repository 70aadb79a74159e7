package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexora-ai/nexora/pkg/models"
)

type noteRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) handleListNotes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cid, ok := pathID(c, "cid")
	if !ok {
		return
	}
	notes, err := s.notes.List(c.Request.Context(), currentUser(c), id, cid)
	if err != nil {
		respondError(c, err)
		return
	}
	if notes == nil {
		notes = []*models.Note{}
	}
	c.JSON(http.StatusOK, notes)
}

func (s *Server) handleCreateNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cid, ok := pathID(c, "cid")
	if !ok {
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	note, err := s.notes.Create(c.Request.Context(), currentUser(c), id, cid, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (s *Server) handleUpdateNote(c *gin.Context) {
	nid, ok := pathID(c, "nid")
	if !ok {
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	note, err := s.notes.Update(c.Request.Context(), currentUser(c), nid, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (s *Server) handleDeleteNote(c *gin.Context) {
	nid, ok := pathID(c, "nid")
	if !ok {
		return
	}
	if err := s.notes.Delete(c.Request.Context(), currentUser(c), nid); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
