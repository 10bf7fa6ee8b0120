package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/SAP-F-2025/quizhub-practice/internal/services"
	"github.com/SAP-F-2025/quizhub-practice/internal/utils"
	"github.com/SAP-F-2025/quizhub-practice/internal/validator"
	"github.com/gin-gonic/gin"
)

type BookmarkHandler struct {
	BaseHandler
	sessions  *services.SessionManager
	validator *validator.Validator
	api       APIProvider
}

func NewBookmarkHandler(
	sessions *services.SessionManager,
	validator *validator.Validator,
	api APIProvider,
	logger utils.Logger,
) *BookmarkHandler {
	return &BookmarkHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
		validator:   validator,
		api:         api,
	}
}

type BookmarkStatusResponse struct {
	QuestionID int  `json:"question_id"`
	Bookmarked bool `json:"bookmarked"`
}

type BookmarkIDsResponse struct {
	QuestionIDs []int `json:"question_ids"`
}

// ListBookmarkIDs returns the bookmarked question ids, loading them once.
// ?refresh=true forces a reload.
// @Router /bookmarks/ids [get]
func (h *BookmarkHandler) ListBookmarkIDs(c *gin.Context) {
	set := h.bookmarks(c)
	if err := set.EnsureLoaded(c.Request.Context(), c.Query("refresh") == "true"); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, BookmarkIDsResponse{QuestionIDs: set.IDs()})
}

// ListBookmarks returns the full bookmark rows
// @Router /bookmarks [get]
func (h *BookmarkHandler) ListBookmarks(c *gin.Context) {
	bookmarks, err := h.bookmarks(c).List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookmarks)
}

// AddBookmark bookmarks a question
// @Router /bookmarks [post]
func (h *BookmarkHandler) AddBookmark(c *gin.Context) {
	var req models.BookmarkRequest
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

	if err := h.bookmarks(c).Add(c.Request.Context(), req.QuestionID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, BookmarkStatusResponse{QuestionID: req.QuestionID, Bookmarked: true})
}

// RemoveBookmark removes a bookmark
// @Router /bookmarks/{question_id} [delete]
func (h *BookmarkHandler) RemoveBookmark(c *gin.Context) {
	questionID := parseIntParam(c, "question_id")
	if questionID == 0 {
		return
	}

	if err := h.bookmarks(c).Remove(c.Request.Context(), questionID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, BookmarkStatusResponse{QuestionID: questionID, Bookmarked: false})
}

// GetBookmark reports whether a question is bookmarked
// @Router /bookmarks/{question_id} [get]
func (h *BookmarkHandler) GetBookmark(c *gin.Context) {
	questionID := parseIntParam(c, "question_id")
	if questionID == 0 {
		return
	}

	set := h.bookmarks(c)
	if err := set.EnsureLoaded(c.Request.Context(), false); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, BookmarkStatusResponse{QuestionID: questionID, Bookmarked: set.IsBookmarked(questionID)})
}

func (h *BookmarkHandler) bookmarks(c *gin.Context) *services.BookmarkSet {
	return h.sessions.Bookmarks(getUserID(c), h.api(getToken(c), getUserID(c)))
}
