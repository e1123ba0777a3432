package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/appsarion/training-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool       { return &v }
func floatPtr(v float64) *float64 { return &v }

func sessionQuestions() []models.Question {
	return []models.Question{
		{ID: 1, Text: "Primera pregunta", Answers: []models.Answer{
			{ID: 11, Text: "Correcta", IsCorrect: boolPtr(true)},
			{ID: 12, Text: "Incorrecta", IsCorrect: boolPtr(false)},
		}},
		{ID: 2, Text: "Segunda pregunta", Answers: []models.Answer{
			{ID: 21, Text: "Correcta", IsCorrect: boolPtr(true)},
			{ID: 22, Text: "Incorrecta", IsCorrect: boolPtr(false)},
		}},
		{ID: 3, Text: "Tercera pregunta", Answers: []models.Answer{
			{ID: 31, Text: "Correcta", IsCorrect: boolPtr(true)},
			{ID: 32, Text: "Incorrecta", IsCorrect: boolPtr(false)},
		}},
	}
}

type fakeSource struct {
	questions []models.Question
	err       error
}

func (f *fakeSource) FetchRandom(ctx context.Context, n int) ([]models.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.questions, nil
}

type fakeSubmitter struct {
	mu       sync.Mutex
	requests []models.EvaluateRequest
	response *models.EvaluationResponse
	err      error
	block    chan struct{} // when set, Evaluate waits for it before returning
}

func (f *fakeSubmitter) Evaluate(ctx context.Context, req models.EvaluateRequest) (*models.EvaluationResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestController(t *testing.T, source QuestionSource, submitter EvaluationSubmitter) *Controller {
	t.Helper()
	c := NewController(context.Background(), Config{
		UserID:    42,
		Source:    source,
		Submitter: submitter,
	})
	t.Cleanup(c.Close)
	return c
}

func waitDone(t *testing.T, c *Controller) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not reach a terminal state")
	}
}

func answerAll(t *testing.T, c *Controller) {
	t.Helper()
	for {
		q, ok := c.CurrentQuestion()
		if !ok {
			return
		}
		correct, found := q.CorrectAnswer()
		require.True(t, found)
		require.True(t, c.SelectAnswer(correct.ID))
		require.True(t, c.Advance())
	}
}

func TestController_LoadActivatesSession(t *testing.T) {
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, &fakeSubmitter{})

	require.NoError(t, c.Load())
	assert.Equal(t, StatusActive, c.Status())

	q, ok := c.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, uint(1), q.ID)

	current, total := c.Progress()
	assert.Zero(t, current)
	assert.Equal(t, 3, total)
}

func TestController_LoadEmptyBank(t *testing.T) {
	c := newTestController(t, &fakeSource{}, &fakeSubmitter{})

	require.NoError(t, c.Load())
	assert.Equal(t, StatusEmpty, c.Status())
	waitDone(t, c)
	assert.NoError(t, c.Err())
}

func TestController_LoadFetchError(t *testing.T) {
	c := newTestController(t, &fakeSource{err: errors.New("connection refused")}, &fakeSubmitter{})

	err := c.Load()
	require.Error(t, err)
	assert.Equal(t, StatusFailed, c.Status())
	assert.Equal(t, KindFetch, KindOf(c.Err()))
}

func TestController_AdvanceRequiresSelection(t *testing.T) {
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, &fakeSubmitter{})
	require.NoError(t, c.Load())

	assert.False(t, c.Advance())

	require.True(t, c.SelectAnswer(11))
	assert.True(t, c.Advance())

	current, _ := c.Progress()
	assert.Equal(t, 1, current)
	// The selection was consumed; advancing again needs a new one.
	assert.False(t, c.Advance())
}

func TestController_SelectOutsideActiveIsNoop(t *testing.T) {
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, &fakeSubmitter{})
	assert.False(t, c.SelectAnswer(11))
}

func TestController_HappyPath(t *testing.T) {
	submitter := &fakeSubmitter{response: &models.EvaluationResponse{
		ID:     7,
		UserID: 42,
		Score:  floatPtr(5.0),
		Status: "COMPLETED",
		Results: []models.EvaluationResult{
			{QuestionID: 1, SelectedAnswerID: 11, CorrectAnswerID: 11, Correct: true},
			{QuestionID: 2, SelectedAnswerID: 21, CorrectAnswerID: 21, Correct: true},
			{QuestionID: 3, SelectedAnswerID: 31, CorrectAnswerID: 31, Correct: true},
		},
	}}
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, submitter)
	require.NoError(t, c.Load())

	answerAll(t, c)
	waitDone(t, c)

	assert.Equal(t, StatusCompleted, c.Status())
	outcome := c.Outcome()
	require.NotNil(t, outcome)
	assert.Equal(t, uint(7), outcome.Response.ID)
	assert.InDelta(t, 100.0, outcome.Report.Percent, 0.001)
	assert.InDelta(t, 5.0, outcome.Report.FiveScale, 0.001)
	assert.True(t, outcome.Report.Passed)
	assert.Len(t, outcome.Items, 3)

	require.Equal(t, 1, submitter.callCount())
	req := submitter.requests[0]
	assert.Equal(t, uint(42), req.UserID)
	assert.Len(t, req.UserAnswers, 3)
}

func TestController_LocalFallbackWhenNoResults(t *testing.T) {
	// Server returns neither score nor results: the outcome must come from
	// local inference over the question bank flags.
	submitter := &fakeSubmitter{response: &models.EvaluationResponse{ID: 8, UserID: 42}}
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, submitter)
	require.NoError(t, c.Load())

	answerAll(t, c)
	waitDone(t, c)

	outcome := c.Outcome()
	require.NotNil(t, outcome)
	assert.InDelta(t, 100.0, outcome.Report.Percent, 0.001)
	assert.True(t, outcome.Report.Passed)
}

func TestController_RetreatKeepsRecordedAnswer(t *testing.T) {
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, &fakeSubmitter{})
	require.NoError(t, c.Load())

	require.True(t, c.SelectAnswer(11))
	require.True(t, c.Advance())
	require.True(t, c.Retreat())

	current, _ := c.Progress()
	assert.Zero(t, current)

	// Re-answering the revisited question must not overwrite the recorded
	// answer nor duplicate the question in the answer set.
	require.True(t, c.SelectAnswer(12))
	require.True(t, c.Advance())

	answers := c.Answers()
	require.Len(t, answers, 1)
	assert.Equal(t, uint(11), answers[0].AnswerID)
}

func TestController_RetreatAtFirstQuestion(t *testing.T) {
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, &fakeSubmitter{})
	require.NoError(t, c.Load())
	assert.False(t, c.Retreat())
}

func TestController_SubmissionHappensOnce(t *testing.T) {
	block := make(chan struct{})
	submitter := &fakeSubmitter{
		block:    block,
		response: &models.EvaluationResponse{ID: 9, UserID: 42},
	}
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, submitter)
	require.NoError(t, c.Load())

	answerAll(t, c)
	assert.Equal(t, StatusSubmitting, c.Status())

	// Further interaction while submitting is rejected.
	assert.False(t, c.SelectAnswer(11))
	assert.False(t, c.Advance())
	assert.False(t, c.Retreat())

	close(block)
	waitDone(t, c)
	assert.Equal(t, 1, submitter.callCount())
}

func TestController_SubmissionFailureKeepsAnswers(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("gateway timeout")}
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, submitter)
	require.NoError(t, c.Load())

	answerAll(t, c)
	waitDone(t, c)

	assert.Equal(t, StatusFailed, c.Status())
	assert.Equal(t, KindSubmission, KindOf(c.Err()))
	assert.Len(t, c.Answers(), 3)
	assert.Nil(t, c.Outcome())
}

func TestController_ResubmitAfterSubmissionFailure(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("gateway timeout")}
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, submitter)
	require.NoError(t, c.Load())

	answerAll(t, c)
	waitDone(t, c)
	require.Equal(t, StatusFailed, c.Status())

	// Second attempt succeeds.
	submitter.mu.Lock()
	submitter.err = nil
	submitter.response = &models.EvaluationResponse{ID: 10, UserID: 42}
	submitter.mu.Unlock()

	require.True(t, c.Resubmit())
	waitDone(t, c)

	assert.Equal(t, StatusCompleted, c.Status())
	assert.NoError(t, c.Err())
	assert.Equal(t, 2, submitter.callCount())
	// Both submissions carried the same answer set.
	assert.Equal(t, submitter.requests[0].UserAnswers, submitter.requests[1].UserAnswers)
}

func TestController_ResubmitRejectedAfterFetchFailure(t *testing.T) {
	c := newTestController(t, &fakeSource{err: errors.New("connection refused")}, &fakeSubmitter{})
	require.Error(t, c.Load())
	assert.False(t, c.Resubmit())
}

func TestController_CloseDiscardsLateResult(t *testing.T) {
	block := make(chan struct{})
	submitter := &fakeSubmitter{
		block:    block,
		response: &models.EvaluationResponse{ID: 11, UserID: 42},
	}
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, submitter)
	require.NoError(t, c.Load())

	answerAll(t, c)
	require.Equal(t, StatusSubmitting, c.Status())

	c.Close()
	close(block)

	// The late completion must not flip the session state.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StatusSubmitting, c.Status())
	assert.Nil(t, c.Outcome())
}

func TestController_ServerMessageSurfaced(t *testing.T) {
	submitter := &fakeSubmitter{err: &stubAPIError{message: "evaluación inválida"}}
	c := newTestController(t, &fakeSource{questions: sessionQuestions()}, submitter)
	require.NoError(t, c.Load())

	answerAll(t, c)
	waitDone(t, c)

	var sessErr *Error
	require.ErrorAs(t, c.Err(), &sessErr)
	assert.Equal(t, "evaluación inválida", sessErr.Message)
}

type stubAPIError struct{ message string }

func (e *stubAPIError) Error() string         { return e.message }
func (e *stubAPIError) ServerMessage() string { return e.message }
