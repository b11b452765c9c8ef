package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vocabmaster/quiz-service/internal/services"
	"github.com/vocabmaster/quiz-service/internal/utils"
	"github.com/vocabmaster/quiz-service/internal/validator"
)

// AuthHandler implements the simulated sign-in flow: an email is the whole
// identity, no credentials involved.
type AuthHandler struct {
	BaseHandler
	userService services.UserService
	validator   *validator.Validator
}

func NewAuthHandler(userService services.UserService, validator *validator.Validator, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
		validator:   validator,
	}
}

type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Login remembers the email as the active user.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err)
		return
	}

	email, err := h.userService.Login(c.Request.Context(), req.Email)
	if err != nil {
		if services.IsValidation(err) {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid email", err)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to log in", err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Logged in", gin.H{"email": email}, "email", email)
}

// GetSession returns the remembered user, if any.
// GET /api/v1/auth/session
func (h *AuthHandler) GetSession(c *gin.Context) {
	email, err := h.userService.CurrentUser(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to load session", err)
		return
	}
	if email == "" {
		h.RespondWithError(c, http.StatusNotFound, "No active session", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": email})
}

// Logout forgets the remembered user.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.userService.Logout(c.Request.Context()); err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to log out", err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Logged out", nil)
}
