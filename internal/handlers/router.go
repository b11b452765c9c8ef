package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/vocabmaster/quiz-service/internal/services"
	"github.com/vocabmaster/quiz-service/internal/utils"
	"github.com/vocabmaster/quiz-service/internal/validator"
)

type HandlerManager struct {
	authHandler    *AuthHandler
	sessionHandler *SessionHandler
	statsHandler   *StatsHandler
}

func NewHandlerManager(
	userService services.UserService,
	sessionService services.SessionService,
	statsService services.StatsService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authHandler:    NewAuthHandler(userService, validator, logger),
		sessionHandler: NewSessionHandler(sessionService, validator, logger),
		statsHandler:   NewStatsHandler(statsService, exportService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Auth routes (simulated sign-in)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", hm.authHandler.Login)
			auth.GET("/session", hm.authHandler.GetSession)
			auth.POST("/logout", hm.authHandler.Logout)
		}

		// Session routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/answer", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/lifeline/fifty", hm.sessionHandler.UseFiftyFifty)
			sessions.POST("/:id/lifeline/hint", hm.sessionHandler.UseHint)
			sessions.POST("/:id/advance", hm.sessionHandler.Advance)
			sessions.POST("/:id/timeout", hm.sessionHandler.HandleTimeout)
			sessions.GET("/:id/time-remaining", hm.sessionHandler.GetTimeRemaining)
			sessions.POST("/:id/finish", hm.sessionHandler.Finish)
			sessions.DELETE("/:id", hm.sessionHandler.Abandon)
		}

		// Stats routes
		stats := v1.Group("/stats")
		{
			stats.GET("/:email", hm.statsHandler.GetStats)
			stats.GET("/:email/categories", hm.statsHandler.GetCategoryStats)
			stats.GET("/:email/mastered", hm.statsHandler.GetMasteredWords)
			stats.GET("/:email/export", hm.statsHandler.ExportStats)
			stats.DELETE("/:email", hm.statsHandler.ClearStats)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})
}
