package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexora-ai/nexora/pkg/services"
)

func (s *Server) handleUsagePing(c *gin.Context) {
	var ev services.VisibilityEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.stats.RecordVisibility(c.Request.Context(), currentUser(c).ID, ev); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "recorded"})
}

func (s *Server) handleStatsSummary(c *gin.Context) {
	summary, err := s.stats.Summary(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
