package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vocabmaster/quiz-service/internal/services"
	"github.com/vocabmaster/quiz-service/internal/utils"
)

// StatsHandler exposes the per-user statistics views.
type StatsHandler struct {
	BaseHandler
	statsService  services.StatsService
	exportService services.ExportService
}

func NewStatsHandler(statsService services.StatsService, exportService services.ExportService, logger utils.Logger) *StatsHandler {
	return &StatsHandler{
		BaseHandler:   NewBaseHandler(logger),
		statsService:  statsService,
		exportService: exportService,
	}
}

// GetStats returns the reconciled stats for a user.
// GET /api/v1/stats/:email
func (h *StatsHandler) GetStats(c *gin.Context) {
	email := ParseStringIDParam(c, "email")
	if email == "" {
		return
	}

	stats, err := h.statsService.GetStats(c.Request.Context(), email)
	if err != nil {
		h.respondServiceError(c, err, "Failed to get stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetCategoryStats returns the per-category accuracy breakdown.
// GET /api/v1/stats/:email/categories
func (h *StatsHandler) GetCategoryStats(c *gin.Context) {
	email := ParseStringIDParam(c, "email")
	if email == "" {
		return
	}

	categories, err := h.statsService.GetCategoryStats(c.Request.Context(), email)
	if err != nil {
		h.respondServiceError(c, err, "Failed to get category stats")
		return
	}

	c.JSON(http.StatusOK, categories)
}

// GetMasteredWords returns the user's mastered word list.
// GET /api/v1/stats/:email/mastered
func (h *StatsHandler) GetMasteredWords(c *gin.Context) {
	email := ParseStringIDParam(c, "email")
	if email == "" {
		return
	}

	words, err := h.statsService.GetMasteredWords(c.Request.Context(), email)
	if err != nil {
		h.respondServiceError(c, err, "Failed to get mastered words")
		return
	}

	c.JSON(http.StatusOK, gin.H{"mastered_words": words})
}

// ExportStats streams the stats workbook as an XLSX download.
// GET /api/v1/stats/:email/export
func (h *StatsHandler) ExportStats(c *gin.Context) {
	email := ParseStringIDParam(c, "email")
	if email == "" {
		return
	}

	workbook, err := h.exportService.ExportStats(c.Request.Context(), email)
	if err != nil {
		h.respondServiceError(c, err, "Failed to export stats")
		return
	}

	filename := fmt.Sprintf("vocab-stats-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}

// ClearStats wipes the user's local statistics.
// DELETE /api/v1/stats/:email
func (h *StatsHandler) ClearStats(c *gin.Context) {
	email := ParseStringIDParam(c, "email")
	if email == "" {
		return
	}

	if err := h.statsService.ClearData(c.Request.Context(), email); err != nil {
		h.respondServiceError(c, err, "Failed to clear stats")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Stats cleared", nil, "email", email)
}

func (h *StatsHandler) respondServiceError(c *gin.Context, err error, message string) {
	switch {
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, message, err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, message, err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, message, err)
	}
}
