package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vocabmaster/quiz-service/internal/models"
	"github.com/vocabmaster/quiz-service/internal/services"
	"github.com/vocabmaster/quiz-service/internal/utils"
	"github.com/vocabmaster/quiz-service/internal/validator"
)

// SessionHandler exposes the quiz run lifecycle over HTTP.
type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	validator      *validator.Validator
}

func NewSessionHandler(sessionService services.SessionService, validator *validator.Validator, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		validator:      validator,
	}
}

// ===== REQUEST STRUCTURES =====

type StartSessionRequest struct {
	Email      string `json:"email" validate:"omitempty,email"`
	Category   string `json:"category" validate:"required,quiz_category"`
	Difficulty string `json:"difficulty" validate:"required,difficulty_level"`
}

type SubmitAnswerRequest struct {
	Option string `json:"option" validate:"required"`
}

// StartSession generates a question set and begins a new run.
// POST /api/v1/sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err)
		return
	}

	id, snapshot, err := h.sessionService.StartSession(c.Request.Context(), req.Email,
		models.QuizCategory(req.Category), models.Difficulty(req.Difficulty))
	if err != nil {
		h.respondServiceError(c, err, "Failed to start session")
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Session started", gin.H{
		"session_id": id,
		"state":      snapshot,
	}, "session_id", id)
}

// GetSession returns the current view of a run.
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	snapshot, err := h.sessionService.GetSession(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to get session")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// SubmitAnswer submits an option for the current question.
// POST /api/v1/sessions/:id/answer
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err)
		return
	}

	correct, snapshot, err := h.sessionService.SubmitAnswer(c.Request.Context(), id, req.Option)
	if err != nil {
		h.respondServiceError(c, err, "Failed to submit answer")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"correct": correct,
		"state":   snapshot,
	})
}

// UseFiftyFifty applies the 50-50 lifeline to the current question.
// POST /api/v1/sessions/:id/lifeline/fifty
func (h *SessionHandler) UseFiftyFifty(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	hidden, snapshot, err := h.sessionService.UseFiftyFifty(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to apply 50-50")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hidden_options": hidden,
		"state":          snapshot,
	})
}

// UseHint applies the hint lifeline to the current question.
// POST /api/v1/sessions/:id/lifeline/hint
func (h *SessionHandler) UseHint(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	hint, snapshot, err := h.sessionService.UseHint(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to apply hint")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hint":  hint,
		"state": snapshot,
	})
}

// Advance moves the run to the next question.
// POST /api/v1/sessions/:id/advance
func (h *SessionHandler) Advance(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	snapshot, err := h.sessionService.Advance(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to advance session")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// HandleTimeout reports client-observed countdown expiry.
// POST /api/v1/sessions/:id/timeout
func (h *SessionHandler) HandleTimeout(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	snapshot, err := h.sessionService.Timeout(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to handle timeout")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetTimeRemaining returns the countdown position for the current question.
// GET /api/v1/sessions/:id/time-remaining
func (h *SessionHandler) GetTimeRemaining(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	remaining, err := h.sessionService.TimeRemaining(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to get time remaining")
		return
	}

	c.JSON(http.StatusOK, gin.H{"time_remaining": remaining})
}

// Finish closes the run and returns the summary.
// POST /api/v1/sessions/:id/finish
func (h *SessionHandler) Finish(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	summary, err := h.sessionService.Finish(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to finish session")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Session finished", summary, "session_id", id)
}

// Abandon tears the run down without a summary.
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) Abandon(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.sessionService.Abandon(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, err, "Failed to abandon session")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) respondServiceError(c *gin.Context, err error, message string) {
	switch {
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, message, err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, message, err)
	case services.IsSessionContractViolation(err):
		h.RespondWithError(c, http.StatusConflict, message, err)
	case services.IsGenerationFailure(err):
		h.RespondWithError(c, http.StatusBadGateway, message, err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, message, err)
	}
}
