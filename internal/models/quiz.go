package models

// Option is one selectable answer of a question. Correctness is not part of
// the payload before an attempt is scored.
type Option struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type Question struct {
	ID         int      `json:"id"`
	Prompt     string   `json:"prompt"`
	Subject    *string  `json:"subject"`
	Difficulty *string  `json:"difficulty"`
	Options    []Option `json:"options"`
}

// HasOption reports whether optionID is one of the question's options
func (q *Question) HasOption(optionID int) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// DifficultyLabel returns the normalized difficulty, or "" when unset
func (q *Question) DifficultyLabel() string {
	if q.Difficulty == nil {
		return ""
	}
	return NormalizeDifficulty(*q.Difficulty)
}

// Quiz is the detail view returned by GET /quizzes/{id}. Questions keep the
// backend's position order.
type Quiz struct {
	ID             int        `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	IsActive       bool       `json:"is_active"`
	OrganizationID *int       `json:"organization_id,omitempty"`
	Questions      []Question `json:"questions"`
}

// QuestionIDs returns the question ids in quiz order
func (q *Quiz) QuestionIDs() []int {
	ids := make([]int, len(q.Questions))
	for i, question := range q.Questions {
		ids[i] = question.ID
	}
	return ids
}

// Question looks a question up by id
func (q *Quiz) Question(id int) (*Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i], true
		}
	}
	return nil, false
}

// Difficulty summarizes the quiz's question difficulties ("Mixed" when they differ)
func (q *Quiz) Difficulty() string {
	labels := make([]string, 0, len(q.Questions))
	for i := range q.Questions {
		if label := q.Questions[i].DifficultyLabel(); label != "" {
			labels = append(labels, label)
		}
	}
	return DifficultySummary(labels)
}

type QuizSummary struct {
	ID             int     `json:"id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	IsActive       bool    `json:"is_active"`
	QuestionCount  int     `json:"question_count"`
	OrganizationID *int    `json:"organization_id,omitempty"`
}
