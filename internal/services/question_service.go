package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appsarion/training-service/internal/cache"
	"github.com/appsarion/training-service/internal/models"
	"github.com/appsarion/training-service/internal/repositories"
	"github.com/appsarion/training-service/internal/utils"
	"github.com/go-playground/validator/v10"
)

const (
	randomQuestionsCacheKey = "questions:random:%d"
	questionCachePattern    = "questions:*"

	// Random draws are cached briefly so bursts of exam starts do not hammer
	// ORDER BY RANDOM(), while consecutive exams still vary.
	randomQuestionsCacheTTL = 30 * time.Second
)

// QuestionService manages the question bank.
type QuestionService interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetRandom(ctx context.Context, count int) ([]models.Question, error)
	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
}

type questionService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	validator *validator.Validate
	logger    utils.Logger
}

func NewQuestionService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	validator *validator.Validate,
	logger utils.Logger,
) QuestionService {
	return &questionService{
		repo:      repo,
		cache:     cacheService,
		validator: validator,
		logger:    logger.With("service", "question"),
	}
}

func (s *questionService) Create(ctx context.Context, question *models.Question) error {
	if err := s.validateQuestion(question); err != nil {
		return err
	}
	if err := s.repo.Question().Create(ctx, question); err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

// GetRandom draws count questions from the bank. Cached draws are reused
// within the TTL, so two clients starting at the same moment may see the
// same exam.
func (s *questionService) GetRandom(ctx context.Context, count int) ([]models.Question, error) {
	if count <= 0 {
		return nil, NewValidationError("count", "must be positive", count)
	}

	cacheKey := fmt.Sprintf(randomQuestionsCacheKey, count)
	var cached []models.Question
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		s.logger.DebugContext(ctx, "random questions served from cache", "count", count)
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "cache lookup failed, falling back to database", "error", err)
	}

	questions, err := s.repo.Question().GetRandom(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("failed to get random questions: %w", err)
	}

	if len(questions) > 0 {
		if err := s.cache.Set(ctx, cacheKey, questions, randomQuestionsCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to cache random questions", "error", err)
		}
	}
	return questions, nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	questions, total, err := s.repo.Question().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

func (s *questionService) Update(ctx context.Context, question *models.Question) error {
	if err := s.validateQuestion(question); err != nil {
		return err
	}
	if _, err := s.GetByID(ctx, question.ID); err != nil {
		return err
	}
	if err := s.repo.Question().Update(ctx, question); err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *questionService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Question().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	s.invalidateCache(ctx)
	return nil
}

// validateQuestion enforces the bank's shape rules: non-empty text, at
// least two answers, exactly one of them marked correct.
func (s *questionService) validateQuestion(question *models.Question) error {
	if err := s.validator.Struct(question); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if len(question.Answers) < 2 {
		return NewValidationError("answers", "question needs at least two answers", len(question.Answers))
	}
	correct := 0
	for _, answer := range question.Answers {
		if answer.Correct() {
			correct++
		}
	}
	if correct != 1 {
		return NewValidationError("answers", "question needs exactly one correct answer", correct)
	}
	return nil
}

func (s *questionService) invalidateCache(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, questionCachePattern); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate question cache", "error", err)
	}
}
