// Package quizapi is a typed client for the QuizHub REST backend.
package quizapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/go-resty/resty/v2"
)

// UnauthenticatedHandler is notified of every 401 the backend returns
type UnauthenticatedHandler func(ctx context.Context, principal, method, path string, statusCode int)

type Config struct {
	BaseURL           string
	Timeout           time.Duration
	Logger            *slog.Logger
	OnUnauthenticated UnauthenticatedHandler
}

// Client calls the backend on behalf of one principal. WithToken derives
// per-learner clients that share the underlying connection pool and hooks.
type Client struct {
	http      *resty.Client
	logger    *slog.Logger
	token     string
	principal string
}

type principalKey struct{}

func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}

	onUnauthenticated := cfg.OnUnauthenticated
	httpClient.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if resp.StatusCode() != http.StatusUnauthorized {
			return nil
		}

		ctx := resp.Request.Context()
		principal, _ := ctx.Value(principalKey{}).(string)
		path := requestPath(resp.Request)

		logger.Warn("Backend rejected credentials",
			"principal", principal,
			"method", resp.Request.Method,
			"path", path)

		if onUnauthenticated != nil {
			onUnauthenticated(ctx, principal, resp.Request.Method, path, resp.StatusCode())
		}
		return nil
	})

	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// WithToken returns a client that authenticates as principal with a bearer token
func (c *Client) WithToken(token, principal string) *Client {
	clone := *c
	clone.token = token
	clone.principal = principal
	return &clone
}

// Principal returns the identity this client acts for
func (c *Client) Principal() string {
	return c.principal
}

func (c *Client) ListQuizzes(ctx context.Context) ([]models.QuizSummary, error) {
	var quizzes []models.QuizSummary
	resp, err := c.request(ctx, &quizzes).Get("/quizzes")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// GetQuiz fetches a quiz with its questions and options
func (c *Client) GetQuiz(ctx context.Context, quizID int) (*models.Quiz, error) {
	var quiz models.Quiz
	resp, err := c.request(ctx, &quiz).
		SetPathParam("id", strconv.Itoa(quizID)).
		Get("/quizzes/{id}")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// SubmitAttempt posts a completed attempt and returns the scored result
func (c *Client) SubmitAttempt(ctx context.Context, req *models.SubmitAttemptRequest) (*models.AttemptResult, error) {
	var result models.AttemptResult
	resp, err := c.request(ctx, &result).
		SetBody(req).
		Post("/attempts")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetAttempt(ctx context.Context, attemptID int) (*models.AttemptResult, error) {
	var result models.AttemptResult
	resp, err := c.request(ctx, &result).
		SetPathParam("id", strconv.Itoa(attemptID)).
		Get("/attempts/{id}")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAttemptHistory(ctx context.Context) ([]models.AttemptHistoryEntry, error) {
	var entries []models.AttemptHistoryEntry
	resp, err := c.request(ctx, &entries).Get("/attempts/history")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListBookmarkIDs returns the ids of every bookmarked question
func (c *Client) ListBookmarkIDs(ctx context.Context) ([]int, error) {
	var ids []int
	resp, err := c.request(ctx, &ids).Get("/bookmarks/ids")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) ListBookmarks(ctx context.Context) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	resp, err := c.request(ctx, &bookmarks).Get("/bookmarks")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// AddBookmark stars a question. The backend treats repeated adds as a no-op.
func (c *Client) AddBookmark(ctx context.Context, questionID int) (*models.Bookmark, error) {
	var bookmark models.Bookmark
	resp, err := c.request(ctx, &bookmark).
		SetBody(models.BookmarkRequest{QuestionID: questionID}).
		Post("/bookmarks")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return &bookmark, nil
}

func (c *Client) RemoveBookmark(ctx context.Context, questionID int) error {
	resp, err := c.request(ctx, nil).
		SetPathParam("id", strconv.Itoa(questionID)).
		Delete("/bookmarks/{id}")
	return c.check(resp, err)
}

// ListPracticeSubjects returns the learner's practice catalog
func (c *Client) ListPracticeSubjects(ctx context.Context) ([]models.PracticeSubjectSummary, error) {
	var subjects []models.PracticeSubjectSummary
	resp, err := c.request(ctx, &subjects).Get("/practice/subjects")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (c *Client) GetPracticeSubject(ctx context.Context, slug string, limit int) (*models.PracticeSubjectDetail, error) {
	var detail models.PracticeSubjectDetail
	req := c.request(ctx, &detail).SetPathParam("slug", slug)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	resp, err := req.Get("/practice/subjects/{slug}")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetBookmarkRevision returns the bookmarked questions as a practice set
func (c *Client) GetBookmarkRevision(ctx context.Context, filter models.PracticeBookmarkFilter) (*models.PracticeSubjectDetail, error) {
	var detail models.PracticeSubjectDetail
	req := c.request(ctx, &detail)
	if filter.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Difficulty != "" {
		req.SetQueryParam("difficulty", filter.Difficulty)
	}
	if filter.SubjectID != nil {
		req.SetQueryParam("subject_id", strconv.Itoa(*filter.SubjectID))
	}
	resp, err := req.Get("/practice/bookmarks")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) request(ctx context.Context, result interface{}) *resty.Request {
	req := c.http.R().
		SetContext(context.WithValue(ctx, principalKey{}, c.principal)).
		SetError(&errorBody{})
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	if result != nil {
		req.SetResult(result)
	}
	return req
}

func (c *Client) check(resp *resty.Response, err error) error {
	if err != nil {
		method, path := "", ""
		if resp != nil && resp.Request != nil {
			method, path = resp.Request.Method, requestPath(resp.Request)
		}
		c.logger.Error("Backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrRequestFailed, err)
	}

	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Method:     resp.Request.Method,
		Path:       requestPath(resp.Request),
	}
	if body, ok := resp.Error().(*errorBody); ok {
		apiErr.Detail = body.message()
	}
	if apiErr.Detail == "" && resp.StatusCode() >= http.StatusInternalServerError {
		apiErr.Detail = http.StatusText(resp.StatusCode())
	}

	c.logger.Debug("Backend returned error",
		"method", apiErr.Method,
		"path", apiErr.Path,
		"status", apiErr.StatusCode,
		"detail", apiErr.Detail)
	return apiErr
}

func requestPath(r *resty.Request) string {
	if r.RawRequest != nil && r.RawRequest.URL != nil {
		return r.RawRequest.URL.Path
	}
	return r.URL
}
