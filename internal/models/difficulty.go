package models

import "strings"

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "Easy"
	DifficultyMedium DifficultyLevel = "Medium"
	DifficultyHard   DifficultyLevel = "Hard"
	DifficultyMixed  DifficultyLevel = "Mixed"
)

// NormalizeDifficulty maps free-form difficulty strings onto Easy/Medium/Hard.
// Unknown values are returned trimmed, blanks become "".
func NormalizeDifficulty(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	switch strings.ToLower(trimmed) {
	case "easy":
		return string(DifficultyEasy)
	case "medium":
		return string(DifficultyMedium)
	case "hard":
		return string(DifficultyHard)
	default:
		return trimmed
	}
}

// DifficultySummary labels a group of questions: the single shared
// difficulty, or Mixed when there is none or several.
func DifficultySummary(difficulties []string) string {
	unique := make(map[string]struct{})
	for _, d := range difficulties {
		if normalized := NormalizeDifficulty(d); normalized != "" {
			unique[normalized] = struct{}{}
		}
	}

	if len(unique) != 1 {
		return string(DifficultyMixed)
	}
	for label := range unique {
		return label
	}
	return string(DifficultyMixed)
}
