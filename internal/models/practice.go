package models

import "sort"

// PracticeSubjectSummary is one entry of the learner's practice catalog
type PracticeSubjectSummary struct {
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Description    *string  `json:"description"`
	Icon           *string  `json:"icon"`
	TotalQuestions int      `json:"total_questions"`
	Difficulty     string   `json:"difficulty"`
	Difficulties   []string `json:"difficulties"`
	QuizID         *int     `json:"quiz_id"`
	OrganizationID *int     `json:"organization_id"`
}

// Normalize rewrites Difficulties as sorted, distinct normalized labels and
// derives Difficulty from them
func (s *PracticeSubjectSummary) Normalize() {
	unique := make(map[string]struct{}, len(s.Difficulties))
	for _, d := range s.Difficulties {
		if normalized := NormalizeDifficulty(d); normalized != "" {
			unique[normalized] = struct{}{}
		}
	}

	s.Difficulties = make([]string, 0, len(unique))
	for d := range unique {
		s.Difficulties = append(s.Difficulties, d)
	}
	sort.Strings(s.Difficulties)
	s.Difficulty = DifficultySummary(s.Difficulties)
}

// PracticeQuestionOption carries correctness: practice mode reveals answers
type PracticeQuestionOption struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type PracticeQuestion struct {
	ID          int                      `json:"id"`
	Prompt      string                   `json:"prompt"`
	Explanation *string                  `json:"explanation"`
	Difficulty  *string                  `json:"difficulty"`
	Options     []PracticeQuestionOption `json:"options"`
}

// PracticeSubjectDetail is a subject's question set, or the learner's
// bookmark revision set
type PracticeSubjectDetail struct {
	Slug           string             `json:"slug"`
	Name           string             `json:"name"`
	Description    *string            `json:"description"`
	Icon           *string            `json:"icon"`
	TotalQuestions int                `json:"total_questions"`
	Difficulty     string             `json:"difficulty"`
	Questions      []PracticeQuestion `json:"questions"`
	OrganizationID *int               `json:"organization_id"`
}

// Normalize derives TotalQuestions and Difficulty from the questions
func (d *PracticeSubjectDetail) Normalize() {
	difficulties := make([]string, 0, len(d.Questions))
	for _, question := range d.Questions {
		if question.Difficulty != nil {
			difficulties = append(difficulties, *question.Difficulty)
		}
	}
	d.TotalQuestions = len(d.Questions)
	d.Difficulty = DifficultySummary(difficulties)
}

// PracticeBookmarkFilter narrows the bookmark revision set
type PracticeBookmarkFilter struct {
	Limit      int
	Difficulty string
	SubjectID  *int
}
