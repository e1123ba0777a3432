package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/appsarion/training-service/internal/cache"
	"github.com/appsarion/training-service/internal/events"
	"github.com/appsarion/training-service/internal/models"
	"github.com/appsarion/training-service/internal/repositories"
	"github.com/appsarion/training-service/internal/utils"
	"github.com/xuri/excelize/v2"
)

// ImportService loads questions into the bank from uploaded spreadsheets.
type ImportService interface {
	ImportQuestionsFromFile(ctx context.Context, file multipart.File, filename string) (*ImportResult, error)
	ImportQuestionsFromCSV(ctx context.Context, reader io.Reader) (*ImportResult, error)
	ImportQuestionsFromExcel(ctx context.Context, reader io.Reader) (*ImportResult, error)
}

type importService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    utils.Logger
}

func NewImportService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger utils.Logger,
) ImportService {
	return &importService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger.With("service", "import"),
	}
}

type ImportResult struct {
	TotalRows    int             `json:"total_rows"`
	SuccessCount int             `json:"success_count"`
	ErrorCount   int             `json:"error_count"`
	Errors       []ImportRowError `json:"errors,omitempty"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Expected columns. "answer_1" must hold the correct option; the rest are
// distractors and may be blank past the second.
var requiredImportColumns = []string{"question_text", "answer_1", "answer_2"}

const maxImportAnswers = 6

func (s *importService) ImportQuestionsFromFile(ctx context.Context, file multipart.File, filename string) (*ImportResult, error) {
	s.logger.InfoContext(ctx, "starting question import", "filename", filename)

	ext := strings.ToLower(filepath.Ext(filename))
	var result *ImportResult
	var err error
	switch ext {
	case ".csv":
		result, err = s.ImportQuestionsFromCSV(ctx, file)
	case ".xlsx", ".xls":
		result, err = s.ImportQuestionsFromExcel(ctx, file)
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
	if err != nil {
		return nil, err
	}

	s.publishImported(result, filename)
	return result, nil
}

func (s *importService) ImportQuestionsFromCSV(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return s.importRows(ctx, records)
}

func (s *importService) ImportQuestionsFromExcel(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return s.importRows(ctx, rows)
}

func (s *importService) importRows(ctx context.Context, rows [][]string) (*ImportResult, error) {
	if len(rows) < 2 {
		return nil, NewValidationError("file", "file must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range requiredImportColumns {
		if _, exists := headerMap[col]; !exists {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}
	var questions []*models.Question

	for rowIndex, row := range rows[1:] {
		question, rowErr := parseImportRow(row, headerMap)
		if rowErr != "" {
			result.ErrorCount++
			result.Errors = append(result.Errors, ImportRowError{Row: rowIndex + 2, Message: rowErr})
			continue
		}
		questions = append(questions, question)
	}

	if len(questions) > 0 {
		if err := s.repo.Question().CreateBatch(ctx, questions); err != nil {
			return nil, fmt.Errorf("failed to persist imported questions: %w", err)
		}
		if err := s.cache.DeletePattern(ctx, questionCachePattern); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate question cache after import", "error", err)
		}
	}
	result.SuccessCount = len(questions)

	s.logger.InfoContext(ctx, "question import finished",
		"total", result.TotalRows,
		"imported", result.SuccessCount,
		"errors", result.ErrorCount)
	return result, nil
}

func parseImportRow(row []string, headerMap map[string]int) (*models.Question, string) {
	cell := func(name string) string {
		idx, ok := headerMap[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	text := cell("question_text")
	if text == "" {
		return nil, "question_text is empty"
	}

	question := &models.Question{Text: text}
	if category := cell("category"); category != "" {
		question.Category = &category
	}

	for i := 1; i <= maxImportAnswers; i++ {
		answerText := cell(fmt.Sprintf("answer_%d", i))
		if answerText == "" {
			continue
		}
		isCorrect := i == 1
		question.Answers = append(question.Answers, models.Answer{
			Text:      answerText,
			IsCorrect: &isCorrect,
		})
	}

	if len(question.Answers) < 2 {
		return nil, "question needs at least two answers"
	}
	return question, ""
}

func (s *importService) publishImported(result *ImportResult, filename string) {
	if s.publisher == nil || result.SuccessCount == 0 {
		return
	}
	event := events.NewQuestionsImportedEvent(result.SuccessCount, result.ErrorCount, filename)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			s.logger.Error("failed to publish import event", "filename", filename, "error", err)
		}
	}()
}
