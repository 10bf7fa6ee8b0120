package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/SAP-F-2025/quizhub-practice/internal/services"
	"github.com/SAP-F-2025/quizhub-practice/internal/utils"
	"github.com/SAP-F-2025/quizhub-practice/internal/validator"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	BaseHandler
	sessions  *services.SessionManager
	validator *validator.Validator
	api       APIProvider
}

func NewSessionHandler(
	sessions *services.SessionManager,
	validator *validator.Validator,
	api APIProvider,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
		validator:   validator,
		api:         api,
	}
}

type FlagResponse struct {
	QuestionID int  `json:"question_id"`
	Flagged    bool `json:"flagged"`
}

type ProgressResponse struct {
	models.Progress
	FlaggedCount   int `json:"flagged_count"`
	ElapsedSeconds int `json:"elapsed_seconds"`
}

// StartSession loads a quiz and starts a new practice session on it
// @Summary Start session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body models.StartSessionRequest true "Quiz to start"
// @Success 201 {object} models.SessionView
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Starting practice session", "quiz_id", req.QuizID)

	session, err := h.sessions.Create(c.Request.Context(), getUserID(c), h.api(getToken(c), getUserID(c)), req.QuizID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session.View())
}

// GetSession returns the current state of a live session
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	c.JSON(http.StatusOK, session.View())
}

// ResumeSession reattaches to a session, rebuilding it from its snapshot when
// this instance no longer holds it
// @Router /sessions/{id}/resume [post]
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Resuming practice session", "session_id", id)

	session, err := h.sessions.Resume(c.Request.Context(), getUserID(c), id, h.api(getToken(c), getUserID(c)))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.View())
}

// CloseSession abandons the session without submitting
// @Router /sessions/{id} [delete]
func (h *SessionHandler) CloseSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.sessions.Close(c.Request.Context(), getUserID(c), id, "abandoned"); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SelectAnswer records the learner's option for a question
// @Router /sessions/{id}/answers/{question_id} [put]
func (h *SessionHandler) SelectAnswer(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}
	questionID := parseIntParam(c, "question_id")
	if questionID == 0 {
		return
	}

	var req models.SelectAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	if err := session.SelectAnswer(questionID, req.OptionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sessions.Save(c.Request.Context(), session)

	c.JSON(http.StatusOK, h.progress(session))
}

// ToggleFlag marks or unmarks a question for review
// @Router /sessions/{id}/flags/{question_id} [post]
func (h *SessionHandler) ToggleFlag(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}
	questionID := parseIntParam(c, "question_id")
	if questionID == 0 {
		return
	}

	flagged, err := session.ToggleFlag(questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sessions.Save(c.Request.Context(), session)

	c.JSON(http.StatusOK, FlagResponse{QuestionID: questionID, Flagged: flagged})
}

// GetProgress returns answered/total, flagged count and elapsed time
// @Router /sessions/{id}/progress [get]
func (h *SessionHandler) GetProgress(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	c.JSON(http.StatusOK, h.progress(session))
}

// SubmitSession submits the attempt. When questions are flagged for review the
// learner must confirm first.
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req models.SubmitSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if flagged := session.FlaggedCount(); flagged > 0 && !req.Confirm {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Some questions are flagged for review. Submit anyway?",
			Details: map[string]interface{}{"flagged_count": flagged},
			Code:    "confirmation_required",
		})
		return
	}

	h.LogRequest(c, "Submitting practice attempt", "session_id", session.ID())

	result, err := session.Submit(c.Request.Context())
	if err != nil {
		if services.IsSubmission(err) {
			// Keep the snapshot current so a retry survives a reload
			h.sessions.Save(c.Request.Context(), session)
		}
		h.handleServiceError(c, err)
		return
	}

	if err := h.sessions.Close(c.Request.Context(), getUserID(c), session.ID(), "submitted"); err != nil {
		h.LogWarn(c, "Failed to close submitted session", "session_id", session.ID(), "error", err)
	}

	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) session(c *gin.Context) *services.Session {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return nil
	}

	session, err := h.sessions.Get(getUserID(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return nil
	}
	session.BindAPI(h.api(getToken(c), getUserID(c)))
	return session
}

func (h *SessionHandler) progress(session *services.Session) ProgressResponse {
	return ProgressResponse{
		Progress:       session.Progress(),
		FlaggedCount:   session.FlaggedCount(),
		ElapsedSeconds: session.Elapsed(),
	}
}
