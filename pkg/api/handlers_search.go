package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexora-ai/nexora/pkg/store"
)

func (s *Server) handleSearch(c *gin.Context) {
	results, err := s.search.Search(c.Request.Context(), currentUser(c).ID, c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []store.SearchResult{}
	}
	c.JSON(http.StatusOK, results)
}
