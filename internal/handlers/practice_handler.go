package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/SAP-F-2025/quizhub-practice/internal/services"
	"github.com/SAP-F-2025/quizhub-practice/internal/utils"
	"github.com/gin-gonic/gin"
)

type PracticeHandler struct {
	BaseHandler
	practice services.PracticeService
	api      APIProvider
}

func NewPracticeHandler(practice services.PracticeService, api APIProvider, logger utils.Logger) *PracticeHandler {
	return &PracticeHandler{
		BaseHandler: NewBaseHandler(logger),
		practice:    practice,
		api:         api,
	}
}

// ListSubjects returns the practice catalog
// @Router /practice/subjects [get]
func (h *PracticeHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.practice.Subjects(c.Request.Context(), h.api(getToken(c), getUserID(c)), getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, subjects)
}

// GetSubject returns one subject with its practice questions
// @Param limit query int false "Questions to return, 1 to 200"
// @Router /practice/subjects/{slug} [get]
func (h *PracticeHandler) GetSubject(c *gin.Context) {
	slug := c.Param("slug")
	detail, err := h.practice.Subject(c.Request.Context(), h.api(getToken(c), getUserID(c)), getUserID(c),
		slug, parseIntQuery(c, "limit", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetBookmarkRevision returns the bookmarked questions as a practice set
// @Param limit query int false "Questions to return, 1 to 200"
// @Param difficulty query string false "Difficulty filter"
// @Param subject_id query int false "Subject filter"
// @Router /practice/bookmarks [get]
func (h *PracticeHandler) GetBookmarkRevision(c *gin.Context) {
	filter := models.PracticeBookmarkFilter{
		Limit:      parseIntQuery(c, "limit", 0),
		Difficulty: c.Query("difficulty"),
		SubjectID:  parseIntQueryPtr(c, "subject_id"),
	}

	detail, err := h.practice.BookmarkRevision(c.Request.Context(), h.api(getToken(c), getUserID(c)), getUserID(c), filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}
