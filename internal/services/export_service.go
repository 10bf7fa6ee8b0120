package services

import (
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/xuri/excelize/v2"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportService renders attempts as XLSX workbooks for offline review
type ExportService interface {
	ExportResult(result *models.AttemptResult) ([]byte, error)
	ExportHistory(entries []models.AttemptHistoryEntry) ([]byte, error)
}

type exportService struct {
	logger *slog.Logger
}

func NewExportService(logger *slog.Logger) ExportService {
	return &exportService{logger: logger}
}

// ExportResult writes a "Summary" sheet and one "Answers" row per question
func (s *exportService) ExportResult(result *models.AttemptResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Attempt ID", result.ID},
		{"Quiz", result.QuizTitle},
		{"Submitted At", result.SubmittedAt.Format(exportTimeLayout)},
		{"Total Questions", result.TotalQuestions},
		{"Correct Answers", result.CorrectAnswers},
		{"Score", result.Score},
	}
	for rowIndex, row := range rows {
		writeRow(f, summary, rowIndex+1, row)
	}

	answers := "Answers"
	if _, err := f.NewSheet(answers); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	writeRow(f, answers, 1, []interface{}{"Question ID", "Question", "Your Answer", "Correct Answer", "Result", "Explanation"})
	for rowIndex, review := range result.Answers {
		outcome := "Incorrect"
		if review.IsCorrect {
			outcome = "Correct"
		}
		explanation := ""
		if review.Explanation != nil {
			explanation = *review.Explanation
		}

		writeRow(f, answers, rowIndex+2, []interface{}{
			review.QuestionID,
			review.Prompt,
			optionText(review.Options, review.SelectedOptionID),
			optionText(review.Options, review.CorrectOptionID),
			outcome,
			explanation,
		})
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Debug("Exported attempt result", "attempt_id", result.ID, "answers", len(result.Answers))
	return buf.Bytes(), nil
}

func (s *exportService) ExportHistory(entries []models.AttemptHistoryEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "History"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []interface{}{
		"Attempt ID", "Quiz", "Submitted At", "Total Questions", "Correct Answers",
		"Score", "Time Spent (seconds)", "Category", "Difficulty",
	}
	writeRow(f, sheetName, 1, headers)

	for rowIndex, entry := range entries {
		category := ""
		if entry.CategoryName != nil {
			category = *entry.CategoryName
		}

		writeRow(f, sheetName, rowIndex+2, []interface{}{
			entry.ID,
			entry.QuizTitle,
			entry.SubmittedAt.Format(exportTimeLayout),
			entry.TotalQuestions,
			entry.CorrectAnswers,
			entry.Score,
			entry.DurationSeconds,
			category,
			models.NormalizeDifficulty(entry.Difficulty),
		})
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for colIndex, value := range values {
		cell := fmt.Sprintf("%c%d", 'A'+colIndex, row)
		f.SetCellValue(sheet, cell, value)
	}
}

func optionText(options []models.AttemptAnswerOption, optionID *int) string {
	if optionID == nil {
		return ""
	}
	for _, opt := range options {
		if opt.ID == *optionID {
			return opt.Text
		}
	}
	return fmt.Sprintf("#%d", *optionID)
}
