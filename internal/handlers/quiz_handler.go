package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quizhub-practice/internal/services"
	"github.com/SAP-F-2025/quizhub-practice/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	BaseHandler
	api APIProvider
}

func NewQuizHandler(api APIProvider, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		api:         api,
	}
}

// ListQuizzes returns the quizzes the learner can practice
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.api(getToken(c), getUserID(c)).ListQuizzes(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, &services.LoadError{Resource: "quizzes", Err: err})
		return
	}

	c.JSON(http.StatusOK, quizzes)
}
