package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexora-ai/nexora/pkg/database"
)

func (s *Server) handleHealth(c *gin.Context) {
	status, err := database.Health(c.Request.Context(), s.db.DB())
	code := http.StatusOK
	if err != nil {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
