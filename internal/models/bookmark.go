package models

import "time"

type BookmarkRequest struct {
	QuestionID int `json:"question_id" validate:"required,min=1"`
}

// Bookmark is the full row returned by the bookmarks endpoints
type Bookmark struct {
	ID           int       `json:"id"`
	QuestionID   int       `json:"question_id"`
	CreatedAt    time.Time `json:"created_at"`
	Prompt       string    `json:"prompt"`
	Subject      *string   `json:"subject"`
	Difficulty   *string   `json:"difficulty"`
	CategoryID   int       `json:"category_id"`
	CategoryName string    `json:"category_name"`
	TopicID      *int      `json:"topic_id"`
	TopicName    *string   `json:"topic_name"`
}
