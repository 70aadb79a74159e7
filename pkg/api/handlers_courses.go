package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/services"
)

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func (s *Server) handleCreateCourse(c *gin.Context) {
	var req models.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := s.courses.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleListCourses(c *gin.Context) {
	courses, err := s.courses.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (s *Server) handleListPublicCourses(c *gin.Context) {
	courses, err := s.courses.ListPublic(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (s *Server) handleGetCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	course, err := s.courses.GetOwned(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

type updateCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) handleUpdateCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.courses.UpdateInfo(c.Request.Context(), currentUser(c), id, req.Title, req.Description); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

type setPublicRequest struct {
	IsPublic *bool `json:"is_public" binding:"required"`
}

func (s *Server) handleSetCoursePublic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setPublicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.courses.SetPublic(c.Request.Context(), currentUser(c), id, *req.IsPublic); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (s *Server) handleDeleteCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.courses.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (s *Server) handleListChapters(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	chapters, err := s.courses.Chapters(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapters)
}

func (s *Server) handleGetChapter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cid, ok := pathID(c, "cid")
	if !ok {
		return
	}
	chapter, err := s.courses.Chapter(c.Request.Context(), currentUser(c), id, cid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

type updateChapterRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *Server) handleUpdateChapter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cid, ok := pathID(c, "cid")
	if !ok {
		return
	}
	var req updateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.courses.UpdateChapterContent(c.Request.Context(), currentUser(c), id, cid, req.Content); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (s *Server) handleCompleteChapter(c *gin.Context) {
	s.setChapterCompletion(c, true)
}

func (s *Server) handleIncompleteChapter(c *gin.Context) {
	s.setChapterCompletion(c, false)
}

func (s *Server) setChapterCompletion(c *gin.Context, completed bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cid, ok := pathID(c, "cid")
	if !ok {
		return
	}
	if err := s.courses.SetChapterCompletion(c.Request.Context(), currentUser(c), id, cid, completed); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (s *Server) handleListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.ListByUser(currentUser(c).ID))
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.registry.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	caller := currentUser(c)
	if task.Config.UserID != caller.ID && !caller.IsAdmin {
		respondError(c, services.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleCancelTask(c *gin.Context) {
	task, err := s.registry.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	caller := currentUser(c)
	if task.Config.UserID != caller.ID && !caller.IsAdmin {
		respondError(c, services.ErrNotFound)
		return
	}
	if err := s.registry.Cancel(task.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancellation requested"})
}

func (s *Server) handleRetryTask(c *gin.Context) {
	if err := s.courses.RetryTask(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "retry scheduled"})
}
