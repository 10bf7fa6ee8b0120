package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/quizhub-practice/internal/repositories"
	"github.com/SAP-F-2025/quizhub-practice/internal/services"
	"github.com/SAP-F-2025/quizhub-practice/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttemptHandler struct {
	BaseHandler
	attempts services.AttemptService
	api      APIProvider
}

func NewAttemptHandler(attempts services.AttemptService, api APIProvider, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler: NewBaseHandler(logger),
		attempts:    attempts,
		api:         api,
	}
}

// GetAttempt returns a scored attempt with its answer review
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := parseIntParam(c, "id")
	if id == 0 {
		return
	}

	result, err := h.attempts.GetResult(c.Request.Context(), h.api(getToken(c), getUserID(c)), getUserID(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetHistory lists the learner's past attempts
// @Router /attempts/history [get]
func (h *AttemptHandler) GetHistory(c *gin.Context) {
	entries, err := h.attempts.History(c.Request.Context(), h.api(getToken(c), getUserID(c)), getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// ListArchived pages through the locally archived attempts
// @Param quiz_id query int false "Quiz filter"
// @Param page query int false "Page, from 1"
// @Param size query int false "Page size"
// @Param sort_by query string false "submitted_at, score or quiz_title"
// @Param sort_order query string false "asc or desc"
// @Router /attempts/archive [get]
func (h *AttemptHandler) ListArchived(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	filters := repositories.ArchiveFilters{
		Owner:     getUserID(c),
		QuizID:    parseIntQueryPtr(c, "quiz_id"),
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	attempts, total, err := h.attempts.ListArchived(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items:  attempts,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

// ExportAttempt downloads the attempt as an XLSX workbook
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /attempts/{id}/export [get]
func (h *AttemptHandler) ExportAttempt(c *gin.Context) {
	id := parseIntParam(c, "id")
	if id == 0 {
		return
	}

	data, err := h.attempts.ExportResult(c.Request.Context(), h.api(getToken(c), getUserID(c)), getUserID(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attempt_%d.xlsx"`, id))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ExportHistory downloads the attempt history as an XLSX workbook
// @Router /attempts/history/export [get]
func (h *AttemptHandler) ExportHistory(c *gin.Context) {
	data, err := h.attempts.ExportHistory(c.Request.Context(), h.api(getToken(c), getUserID(c)), getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="attempt_history.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
