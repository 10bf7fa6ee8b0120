package handlers

import (
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/services"
	"github.com/SAP-F-2025/quizhub-practice/internal/utils"
	"github.com/gin-gonic/gin"
)

// APIProvider returns a backend client acting for one learner
type APIProvider func(token, principal string) services.RemoteAPI

type HandlerManager struct {
	verifier        *TokenVerifier
	logger          utils.Logger
	quizHandler     *QuizHandler
	sessionHandler  *SessionHandler
	liveHandler     *LiveHandler
	bookmarkHandler *BookmarkHandler
	attemptHandler  *AttemptHandler
	practiceHandler *PracticeHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	api APIProvider,
	verifier *TokenVerifier,
	logger utils.Logger,
) *HandlerManager {
	sessions := serviceManager.Sessions()
	validator := serviceManager.Validator()

	return &HandlerManager{
		verifier:        verifier,
		logger:          logger,
		quizHandler:     NewQuizHandler(api, logger),
		sessionHandler:  NewSessionHandler(sessions, validator, api, logger),
		liveHandler:     NewLiveHandler(sessions, time.Second, logger),
		bookmarkHandler: NewBookmarkHandler(sessions, validator, api, logger),
		attemptHandler:  NewAttemptHandler(serviceManager.Attempts(), api, logger),
		practiceHandler: NewPracticeHandler(serviceManager.Practice(), api, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(RequestIDMiddleware(), utils.ContextLogger(hm.logger))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quizhub-practice",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1", AuthMiddleware(hm.verifier))
	{
		v1.GET("/quizzes", hm.quizHandler.ListQuizzes)

		// Session routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.CloseSession)
			sessions.POST("/:id/resume", hm.sessionHandler.ResumeSession)
			sessions.PUT("/:id/answers/:question_id", hm.sessionHandler.SelectAnswer)
			sessions.POST("/:id/flags/:question_id", hm.sessionHandler.ToggleFlag)
			sessions.GET("/:id/progress", hm.sessionHandler.GetProgress)
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitSession)
			sessions.GET("/:id/live", hm.liveHandler.Stream)
		}

		// Bookmark routes
		bookmarks := v1.Group("/bookmarks")
		{
			bookmarks.GET("", hm.bookmarkHandler.ListBookmarks)
			bookmarks.GET("/ids", hm.bookmarkHandler.ListBookmarkIDs)
			bookmarks.POST("", hm.bookmarkHandler.AddBookmark)
			bookmarks.GET("/:question_id", hm.bookmarkHandler.GetBookmark)
			bookmarks.DELETE("/:question_id", hm.bookmarkHandler.RemoveBookmark)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("/history", hm.attemptHandler.GetHistory)
			attempts.GET("/history/export", hm.attemptHandler.ExportHistory)
			attempts.GET("/archive", hm.attemptHandler.ListArchived)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.GET("/:id/export", hm.attemptHandler.ExportAttempt)
		}

		// Practice routes
		practice := v1.Group("/practice")
		{
			practice.GET("/subjects", hm.practiceHandler.ListSubjects)
			practice.GET("/subjects/:slug", hm.practiceHandler.GetSubject)
			practice.GET("/bookmarks", hm.practiceHandler.GetBookmarkRevision)
		}
	}
}
