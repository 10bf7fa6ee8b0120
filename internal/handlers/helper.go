package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quizhub-practice/internal/services"
	"github.com/SAP-F-2025/quizhub-practice/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey    = utils.UserIDKey
	tokenKey     = "token"
	requestIDKey = utils.RequestIDKey
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// parseIntParam writes a 400 and returns 0 when the path parameter is not a
// positive integer
func parseIntParam(c *gin.Context, param string) int {
	id, err := strconv.Atoi(c.Param(param))
	if err != nil || id <= 0 {
		details := "must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: details,
		})
		return 0
	}
	return id
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseIntQueryPtr(c *gin.Context, param string) *int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return nil
	}
	return &value
}

func getUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func getToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// handleServiceError maps service errors to HTTP responses. The message is
// always the learner-facing one from services.UserMessage.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	message := services.UserMessage(err)

	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: message,
			Details: validationErrors,
			Code:    "validation_failed",
		})
		return
	}
	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: message,
			Details: services.ValidationErrors{*validationError},
			Code:    "validation_failed",
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.LogWarn(c, "Permission denied", "resource", permissionError.Resource, "resource_id", permissionError.ResourceID)
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: message,
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
			},
			Code: "forbidden",
		})
		return
	}

	switch {
	case services.IsUnauthenticated(err):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: message, Code: "unauthenticated"})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: message, Code: "session_not_found"})
	case errors.Is(err, services.ErrSubmitInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{Message: message, Code: "submit_in_progress"})
	case errors.Is(err, services.ErrSessionNotStarted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: message, Code: "session_not_started"})
	case services.IsLoad(err):
		if services.IsNotFound(err) || errors.Is(err, services.ErrQuizEmpty) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: message, Code: "not_found"})
			return
		}
		h.LogError(c, err, "Backend load failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: message, Code: "load_failed"})
	case services.IsSubmission(err):
		h.LogError(c, err, "Attempt submission failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: message, Code: "submission_failed"})
	case services.IsBookmarkSync(err):
		h.LogError(c, err, "Bookmark sync failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: message, Code: "bookmark_sync_failed"})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: message, Code: "not_found"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
