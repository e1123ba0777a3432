package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/appsarion/training-service/internal/events"
	"github.com/appsarion/training-service/internal/models"
	"github.com/appsarion/training-service/internal/repositories"
	"github.com/appsarion/training-service/internal/utils"
	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// passingScore is the minimum 0-5 score for a COMPLETED evaluation.
const passingScore = 3.5

// EvaluationService grades submitted exams and records the attempts.
type EvaluationService interface {
	Evaluate(ctx context.Context, req *models.EvaluateRequest) (*models.EvaluationResponse, error)
	GetByID(ctx context.Context, id uint) (*models.EvaluationResponse, error)
	GetByUser(ctx context.Context, userID uint, filters repositories.EvaluationFilters) ([]*models.EvaluationResponse, int64, error)
}

type evaluationService struct {
	repo      repositories.Repository
	validator *validator.Validate
	publisher events.EventPublisher
	logger    utils.Logger
}

func NewEvaluationService(
	repo repositories.Repository,
	validator *validator.Validate,
	publisher events.EventPublisher,
	logger utils.Logger,
) EvaluationService {
	return &evaluationService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		logger:    logger.With("service", "evaluation"),
	}
}

// Evaluate grades a submission against the stored question bank. When the
// payload carries several answers for the same question, the last one wins
// but the question keeps its first-seen position.
func (s *evaluationService) Evaluate(ctx context.Context, req *models.EvaluateRequest) (*models.EvaluationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	answers := dedupeAnswers(req.UserAnswers)
	if len(answers) == 0 {
		return nil, ErrNoAnswersSubmitted
	}

	questionIDs := make([]uint, 0, len(answers))
	for _, ua := range answers {
		questionIDs = append(questionIDs, ua.QuestionID)
	}

	questions, err := s.repo.Question().GetByIDs(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for grading: %w", err)
	}
	questionsByID := make(map[uint]*models.Question, len(questions))
	for _, q := range questions {
		questionsByID[q.ID] = q
	}

	results := make([]models.EvaluationResult, 0, len(answers))
	correctCount := 0
	for _, ua := range answers {
		question, ok := questionsByID[ua.QuestionID]
		if !ok {
			return nil, NewGradingError(ua.QuestionID, ua.AnswerID, "question not found", ErrQuestionNotFound)
		}
		if _, ok := question.AnswerByID(ua.AnswerID); !ok {
			return nil, NewGradingError(ua.QuestionID, ua.AnswerID, "selected answer does not belong to question", ErrAnswerNotFound)
		}
		correctAnswer, ok := question.CorrectAnswer()
		if !ok {
			return nil, NewGradingError(ua.QuestionID, ua.AnswerID, "question has no correct answer", ErrNoCorrectAnswer)
		}

		isCorrect := ua.AnswerID == correctAnswer.ID
		if isCorrect {
			correctCount++
		}
		results = append(results, models.EvaluationResult{
			QuestionID:        ua.QuestionID,
			SelectedAnswerID:  ua.AnswerID,
			CorrectAnswerID:   correctAnswer.ID,
			CorrectAnswerText: correctAnswer.Text,
			Correct:           isCorrect,
		})
	}

	total := len(answers)
	scoreDecimal := round1(float64(correctCount) * 5.0 / float64(total))
	status := models.EvaluationFailed
	if scoreDecimal >= passingScore {
		status = models.EvaluationCompleted
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to encode grading results: %w", err)
	}

	evaluation := &models.Evaluation{
		UserID:  req.UserID,
		Score:   int(math.Round(scoreDecimal)),
		Status:  status,
		Results: datatypes.JSON(resultsJSON),
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Evaluation().Create(ctx, evaluation); err != nil {
			return fmt.Errorf("failed to persist evaluation: %w", err)
		}

		stored := make([]*models.EvaluationAnswer, 0, len(answers))
		for _, ua := range answers {
			stored = append(stored, &models.EvaluationAnswer{
				EvaluationID: evaluation.ID,
				QuestionID:   ua.QuestionID,
				AnswerID:     ua.AnswerID,
			})
		}
		return txRepo.Evaluation().CreateAnswersBatch(ctx, stored)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "evaluation graded",
		"evaluation_id", evaluation.ID,
		"user_id", req.UserID,
		"score", scoreDecimal,
		"correct", correctCount,
		"total", total,
		"status", status)

	s.publishGraded(evaluation, scoreDecimal, correctCount, total)

	return s.buildResponse(evaluation, &scoreDecimal, correctCount, total, results), nil
}

func (s *evaluationService) GetByID(ctx context.Context, id uint) (*models.EvaluationResponse, error) {
	evaluation, err := s.repo.Evaluation().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return s.responseFromStored(evaluation), nil
}

func (s *evaluationService) GetByUser(ctx context.Context, userID uint, filters repositories.EvaluationFilters) ([]*models.EvaluationResponse, int64, error) {
	evaluations, total, err := s.repo.Evaluation().GetByUser(ctx, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list evaluations: %w", err)
	}

	responses := make([]*models.EvaluationResponse, 0, len(evaluations))
	for _, evaluation := range evaluations {
		responses = append(responses, s.responseFromStored(evaluation))
	}
	return responses, total, nil
}

// publishGraded emits the graded event without blocking the request. A
// publish failure is logged and dropped; grading already committed.
func (s *evaluationService) publishGraded(evaluation *models.Evaluation, score float64, correct, total int) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvaluationGradedEvent(
		evaluation.ID,
		evaluation.UserID,
		score,
		correct,
		total,
		evaluation.Status == models.EvaluationCompleted,
	)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			s.logger.Error("failed to publish evaluation event",
				"evaluation_id", evaluation.ID,
				"error", err)
		}
	}()
}

func (s *evaluationService) buildResponse(evaluation *models.Evaluation, score *float64, correct, total int, results []models.EvaluationResult) *models.EvaluationResponse {
	return &models.EvaluationResponse{
		ID:             evaluation.ID,
		UserID:         evaluation.UserID,
		Score:          score,
		Status:         string(evaluation.Status),
		CorrectAnswers: correct,
		TotalQuestions: total,
		Results:        results,
		CreatedAt:      evaluation.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      evaluation.UpdatedAt.Format(time.RFC3339),
	}
}

// responseFromStored rebuilds a response from the persisted row. The decimal
// score is not stored, so the integer column is surfaced instead.
func (s *evaluationService) responseFromStored(evaluation *models.Evaluation) *models.EvaluationResponse {
	var results []models.EvaluationResult
	if len(evaluation.Results) > 0 {
		if err := json.Unmarshal(evaluation.Results, &results); err != nil {
			s.logger.Warn("failed to decode stored results", "evaluation_id", evaluation.ID, "error", err)
			results = nil
		}
	}

	correct := 0
	for _, r := range results {
		if r.Correct {
			correct++
		}
	}

	score := float64(evaluation.Score)
	return &models.EvaluationResponse{
		ID:             evaluation.ID,
		UserID:         evaluation.UserID,
		Score:          &score,
		Status:         string(evaluation.Status),
		CorrectAnswers: correct,
		TotalQuestions: len(results),
		Results:        results,
		CreatedAt:      evaluation.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      evaluation.UpdatedAt.Format(time.RFC3339),
	}
}

// dedupeAnswers keeps one answer per question. The last submitted answer
// wins; the question keeps the position of its first occurrence.
func dedupeAnswers(answers []models.UserAnswer) []models.UserAnswer {
	order := make([]uint, 0, len(answers))
	latest := make(map[uint]uint, len(answers))
	for _, ua := range answers {
		if _, seen := latest[ua.QuestionID]; !seen {
			order = append(order, ua.QuestionID)
		}
		latest[ua.QuestionID] = ua.AnswerID
	}

	deduped := make([]models.UserAnswer, 0, len(order))
	for _, qid := range order {
		deduped = append(deduped, models.UserAnswer{QuestionID: qid, AnswerID: latest[qid]})
	}
	return deduped
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
