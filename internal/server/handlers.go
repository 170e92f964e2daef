package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/spigell/interview-prepper/internal/difficulty"
	"github.com/spigell/interview-prepper/internal/interview"
	"github.com/spigell/interview-prepper/internal/speech"
	"github.com/spigell/interview-prepper/internal/store"
)

type startRequest struct {
	Resume         string `json:"resume" binding:"required"`
	JobDescription string `json:"job_description"`
	JobTitle       string `json:"job_title"`
	Difficulty     string `json:"difficulty"`
}

type chatRequest struct {
	Message           string `json:"message"`
	CurrentDifficulty string `json:"current_difficulty"`
}

type transcriptRequest struct {
	Transcript      string  `json:"transcript"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type confidenceRequest struct {
	ConfidenceScore *float64 `json:"confidence_score" binding:"required"`
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)
	router.POST("/analyze", s.handleAnalyze)

	sessions := router.Group("/sessions")
	sessions.POST("", s.handleStart)
	sessions.POST("/:id/chat", s.handleChat)
	sessions.POST("/:id/transcript", s.handleTranscript)
	sessions.GET("/:id/feedback", s.handleFeedback)
	sessions.GET("/:id/difficulty", s.handleDifficulty)
	sessions.DELETE("/:id", s.handleEnd)

	router.POST("/answers/:id/confidence", s.handleConfidence)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := s.interviews.Start(c.Request.Context(), interview.StartRequest{
		Resume:         req.Resume,
		JobDescription: req.JobDescription,
		JobTitle:       req.JobTitle,
		Difficulty:     req.Difficulty,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":                   session.ID,
		"difficulty":           session.Level().String(),
		"job_description":      session.JobDescription,
		"resume_strengthening": session.Advice,
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reply, err := s.interviews.Chat(c.Request.Context(), c.Param("id"), req.Message, req.CurrentDifficulty)
	if err != nil {
		s.fail(c, err)
		return
	}

	if reply.Report != nil {
		c.JSON(http.StatusOK, reply.Report)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) handleTranscript(c *gin.Context) {
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := s.interviews.SubmitTranscript(c.Request.Context(), c.Param("id"), req.Transcript, req.DurationSeconds)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleFeedback(c *gin.Context) {
	items, err := s.interviews.Feedback(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "feedback": items})
}

func (s *Server) handleDifficulty(c *gin.Context) {
	status, err := s.interviews.Difficulty(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleEnd(c *gin.Context) {
	if err := s.interviews.End(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleConfidence(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answer id"})
		return
	}

	var req confidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	qa, err := s.interviews.UpdateConfidence(c.Request.Context(), id, *req.ConfidenceScore)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"id":                  qa.ID,
		"confidence_score":    qa.ConfidenceScore,
		"confidence_feedback": qa.ConfidenceFeedback,
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, speech.Analyze(req.Transcript, req.DurationSeconds))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, interview.ErrSessionNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, interview.ErrResumeRequired), errors.Is(err, difficulty.ErrUnknownLevel):
		status = http.StatusBadRequest
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
