package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/appsarion/training-service/internal/events"
	"github.com/appsarion/training-service/internal/models"
	"github.com/appsarion/training-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func boolPtr(v bool) *bool { return &v }

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func bankQuestions() []*models.Question {
	return []*models.Question{
		{ID: 1, Text: "Primera", Answers: []models.Answer{
			{ID: 11, QuestionID: 1, Text: "Correcta", IsCorrect: boolPtr(true)},
			{ID: 12, QuestionID: 1, Text: "Incorrecta", IsCorrect: boolPtr(false)},
		}},
		{ID: 2, Text: "Segunda", Answers: []models.Answer{
			{ID: 21, QuestionID: 2, Text: "Correcta", IsCorrect: boolPtr(true)},
			{ID: 22, QuestionID: 2, Text: "Incorrecta", IsCorrect: boolPtr(false)},
		}},
		{ID: 3, Text: "Tercera", Answers: []models.Answer{
			{ID: 31, QuestionID: 3, Text: "Correcta", IsCorrect: boolPtr(true)},
			{ID: 32, QuestionID: 3, Text: "Incorrecta", IsCorrect: boolPtr(false)},
		}},
	}
}

func newEvaluationServiceForTest(repo *mockRepository, publisher events.EventPublisher) EvaluationService {
	return NewEvaluationService(repo, utils.NewValidator(), publisher, testLogger())
}

func TestEvaluate_AllCorrect(t *testing.T) {
	repo := newMockRepository()
	repo.question.On("GetByIDs", mock.Anything, []uint{1, 2, 3}).Return(bankQuestions(), nil)
	repo.evaluation.On("Create", mock.Anything, mock.AnythingOfType("*models.Evaluation")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Evaluation).ID = 7
		}).Return(nil)
	repo.evaluation.On("CreateAnswersBatch", mock.Anything, mock.AnythingOfType("[]*models.EvaluationAnswer")).Return(nil)

	publisher := events.NewMockEventPublisher(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	service := newEvaluationServiceForTest(repo, publisher)

	resp, err := service.Evaluate(context.Background(), &models.EvaluateRequest{
		UserID: 42,
		UserAnswers: []models.UserAnswer{
			{QuestionID: 1, AnswerID: 11},
			{QuestionID: 2, AnswerID: 21},
			{QuestionID: 3, AnswerID: 31},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, uint(7), resp.ID)
	assert.Equal(t, uint(42), resp.UserID)
	require.NotNil(t, resp.Score)
	assert.InDelta(t, 5.0, *resp.Score, 0.001)
	assert.Equal(t, string(models.EvaluationCompleted), resp.Status)
	assert.Equal(t, 3, resp.CorrectAnswers)
	assert.Equal(t, 3, resp.TotalQuestions)
	require.Len(t, resp.Results, 3)
	assert.True(t, resp.Results[0].Correct)
	assert.Equal(t, "Correcta", resp.Results[0].CorrectAnswerText)

	repo.question.AssertExpectations(t)
	repo.evaluation.AssertExpectations(t)
}

func TestEvaluate_ScoreRoundingAndStatus(t *testing.T) {
	tests := []struct {
		name       string
		answers    []models.UserAnswer
		wantScore  float64
		wantStatus models.EvaluationStatus
	}{
		{
			name: "two of three fails",
			answers: []models.UserAnswer{
				{QuestionID: 1, AnswerID: 11},
				{QuestionID: 2, AnswerID: 21},
				{QuestionID: 3, AnswerID: 32},
			},
			// 2*5/3 = 3.333... rounds to 3.3, below the 3.5 bar.
			wantScore:  3.3,
			wantStatus: models.EvaluationFailed,
		},
		{
			name: "one of three fails",
			answers: []models.UserAnswer{
				{QuestionID: 1, AnswerID: 12},
				{QuestionID: 2, AnswerID: 21},
				{QuestionID: 3, AnswerID: 32},
			},
			wantScore:  1.7,
			wantStatus: models.EvaluationFailed,
		},
		{
			name: "all wrong",
			answers: []models.UserAnswer{
				{QuestionID: 1, AnswerID: 12},
				{QuestionID: 2, AnswerID: 22},
				{QuestionID: 3, AnswerID: 32},
			},
			wantScore:  0,
			wantStatus: models.EvaluationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			repo.question.On("GetByIDs", mock.Anything, mock.Anything).Return(bankQuestions(), nil)
			repo.evaluation.On("Create", mock.Anything, mock.Anything).Return(nil)
			repo.evaluation.On("CreateAnswersBatch", mock.Anything, mock.Anything).Return(nil)

			service := newEvaluationServiceForTest(repo, nil)
			resp, err := service.Evaluate(context.Background(), &models.EvaluateRequest{
				UserID:      42,
				UserAnswers: tt.answers,
			})
			require.NoError(t, err)
			require.NotNil(t, resp.Score)
			assert.InDelta(t, tt.wantScore, *resp.Score, 0.001)
			assert.Equal(t, string(tt.wantStatus), resp.Status)
		})
	}
}

func TestEvaluate_LastAnswerWinsFirstSeenOrder(t *testing.T) {
	repo := newMockRepository()
	// Question 1 is answered twice; only the second answer counts and the
	// question keeps its first position, so the lookup is {1, 2, 3}.
	repo.question.On("GetByIDs", mock.Anything, []uint{1, 2, 3}).Return(bankQuestions(), nil)
	repo.evaluation.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.evaluation.On("CreateAnswersBatch", mock.Anything, mock.MatchedBy(func(answers []*models.EvaluationAnswer) bool {
		return len(answers) == 3 && answers[0].QuestionID == 1 && answers[0].AnswerID == 12
	})).Return(nil)

	service := newEvaluationServiceForTest(repo, nil)
	resp, err := service.Evaluate(context.Background(), &models.EvaluateRequest{
		UserID: 42,
		UserAnswers: []models.UserAnswer{
			{QuestionID: 1, AnswerID: 11},
			{QuestionID: 2, AnswerID: 21},
			{QuestionID: 3, AnswerID: 31},
			{QuestionID: 1, AnswerID: 12}, // overrides the first answer
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalQuestions)
	assert.Equal(t, 2, resp.CorrectAnswers)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, uint(1), resp.Results[0].QuestionID)
	assert.Equal(t, uint(12), resp.Results[0].SelectedAnswerID)
	assert.False(t, resp.Results[0].Correct)

	repo.evaluation.AssertExpectations(t)
}

func TestEvaluate_UnknownQuestion(t *testing.T) {
	repo := newMockRepository()
	repo.question.On("GetByIDs", mock.Anything, mock.Anything).Return([]*models.Question{}, nil)

	service := newEvaluationServiceForTest(repo, nil)
	_, err := service.Evaluate(context.Background(), &models.EvaluateRequest{
		UserID:      42,
		UserAnswers: []models.UserAnswer{{QuestionID: 99, AnswerID: 1}},
	})
	require.Error(t, err)
	assert.True(t, IsGrading(err))
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestEvaluate_ForeignAnswer(t *testing.T) {
	repo := newMockRepository()
	repo.question.On("GetByIDs", mock.Anything, mock.Anything).Return(bankQuestions(), nil)

	service := newEvaluationServiceForTest(repo, nil)
	_, err := service.Evaluate(context.Background(), &models.EvaluateRequest{
		UserID:      42,
		UserAnswers: []models.UserAnswer{{QuestionID: 1, AnswerID: 21}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAnswerNotFound)
}

func TestEvaluate_ValidationFailure(t *testing.T) {
	repo := newMockRepository()
	service := newEvaluationServiceForTest(repo, nil)

	_, err := service.Evaluate(context.Background(), &models.EvaluateRequest{UserID: 42})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestEvaluate_PublishesGradedEvent(t *testing.T) {
	repo := newMockRepository()
	repo.question.On("GetByIDs", mock.Anything, mock.Anything).Return(bankQuestions(), nil)
	repo.evaluation.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Evaluation).ID = 5
		}).Return(nil)
	repo.evaluation.On("CreateAnswersBatch", mock.Anything, mock.Anything).Return(nil)

	publisher := events.NewMockEventPublisher(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	service := newEvaluationServiceForTest(repo, publisher)

	_, err := service.Evaluate(context.Background(), &models.EvaluateRequest{
		UserID: 42,
		UserAnswers: []models.UserAnswer{
			{QuestionID: 1, AnswerID: 11},
			{QuestionID: 2, AnswerID: 21},
			{QuestionID: 3, AnswerID: 31},
		},
	})
	require.NoError(t, err)

	// The event is published from a goroutine.
	require.Eventually(t, func() bool {
		return len(publisher.GetPublishedEvents()) == 1
	}, time.Second, 10*time.Millisecond)

	event := publisher.GetPublishedEvents()[0]
	assert.Equal(t, events.EventEvaluationCompleted, event.Type)
	data, ok := event.Data.(events.EvaluationGradedEvent)
	require.True(t, ok)
	assert.Equal(t, uint(5), data.EvaluationID)
	assert.True(t, data.Passed)
}

func TestGetByID_NotFound(t *testing.T) {
	repo := newMockRepository()
	repo.evaluation.On("GetByID", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

	service := newEvaluationServiceForTest(repo, nil)
	_, err := service.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrEvaluationNotFound)
}
