package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListQuestions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cid, ok := pathID(c, "cid")
	if !ok {
		return
	}
	questions, err := s.question.ListByChapter(c.Request.Context(), currentUser(c), id, cid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (s *Server) handleSaveAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cid, ok := pathID(c, "cid")
	if !ok {
		return
	}
	qid, ok := pathID(c, "qid")
	if !ok {
		return
	}
	question, err := s.question.SaveAnswer(c.Request.Context(), currentUser(c), id, cid, qid, c.Query("users_answer"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (s *Server) handleFeedback(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cid, ok := pathID(c, "cid")
	if !ok {
		return
	}
	qid, ok := pathID(c, "qid")
	if !ok {
		return
	}
	result, err := s.question.Feedback(c.Request.Context(), currentUser(c), id, cid, qid, c.Query("users_answer"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
