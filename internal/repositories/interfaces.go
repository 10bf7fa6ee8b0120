package repositories

// ===== SHARED FILTER STRUCTS =====

type ArchiveFilters struct {
	Owner     string `json:"owner"`
	QuizID    *int   `json:"quiz_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`    // "submitted_at", "score", "quiz_title"
	SortOrder string `json:"sort_order"` // "asc", "desc"
}
