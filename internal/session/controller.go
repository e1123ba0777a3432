package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/appsarion/training-service/internal/models"
	"github.com/appsarion/training-service/internal/scoring"
)

// Status is the closed state set of an exam session. Transitions:
//
//	Loading -> Active | Empty | Failed
//	Active -> Submitting (last answer recorded)
//	Submitting -> Completed | Failed
//
// Empty, Completed and Failed are terminal. A failed submission keeps the
// recorded answers so Resubmit can retry without re-asking questions.
type Status string

const (
	StatusLoading    Status = "loading"
	StatusActive     Status = "active"
	StatusSubmitting Status = "submitting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	// StatusEmpty means the question bank returned zero questions. Not a
	// failure, just nothing to do.
	StatusEmpty Status = "empty"
)

// QuestionSource loads the randomized question set for a session.
type QuestionSource interface {
	FetchRandom(ctx context.Context, n int) ([]models.Question, error)
}

// EvaluationSubmitter sends the finished answer set for grading.
type EvaluationSubmitter interface {
	Evaluate(ctx context.Context, req models.EvaluateRequest) (*models.EvaluationResponse, error)
}

// Outcome is what a completed session carries: the raw server response, the
// normalized score and the reconciled per-question breakdown.
type Outcome struct {
	Response *models.EvaluationResponse
	Report   scoring.Report
	Items    []scoring.ResultItem
}

// DefaultQuestionCount is the exam size requested when the config leaves it
// zero.
const DefaultQuestionCount = 15

// Config assembles a Controller. UserID identifies the examinee in the
// submission payload and is injected rather than read from shared state.
type Config struct {
	UserID        uint
	QuestionCount int
	Source        QuestionSource
	Submitter     EvaluationSubmitter
	Logger        *slog.Logger
}

// Controller drives one exam attempt from question load to outcome. All
// methods are safe for concurrent use; async completions are applied under
// the same mutex and are dropped once the controller is closed, so a
// discarded session is never mutated by a late response.
type Controller struct {
	userID        uint
	questionCount int
	source        QuestionSource
	submitter     EvaluationSubmitter
	logger        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	status    Status
	questions []models.Question
	current   int
	pending   *models.UserAnswer
	answers   []models.UserAnswer
	outcome   *Outcome
	err       error
	closed    bool
	done      chan struct{}
}

// NewController builds a session in the Loading state. ctx bounds every
// network call the session makes; Close cancels it.
func NewController(ctx context.Context, cfg Config) *Controller {
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = DefaultQuestionCount
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	return &Controller{
		userID:        cfg.UserID,
		questionCount: cfg.QuestionCount,
		source:        cfg.Source,
		submitter:     cfg.Submitter,
		logger:        cfg.Logger,
		ctx:           sessionCtx,
		cancel:        cancel,
		status:        StatusLoading,
		done:          make(chan struct{}),
	}
}

// Load fetches the question bank once. Zero questions is the terminal Empty
// state rather than an error; a transport failure ends the session with a
// fetch error.
func (c *Controller) Load() error {
	questions, err := c.source.FetchRandom(c.ctx, c.questionCount)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.status != StatusLoading {
		return nil
	}

	if err != nil {
		c.logger.Error("question bank fetch failed", "error", err)
		c.fail(newFetchError(err))
		return c.err
	}
	if len(questions) == 0 {
		c.logger.Info("question bank is empty")
		c.status = StatusEmpty
		close(c.done)
		return nil
	}

	c.questions = questions
	c.status = StatusActive
	c.logger.Info("exam session started", "user_id", c.userID, "questions", len(questions))
	return nil
}

// SelectAnswer stores the pending selection for the current question. It
// does not record anything yet; Advance does. No-op outside Active.
func (c *Controller) SelectAnswer(answerID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusActive {
		return false
	}
	q := c.questions[c.current]
	c.pending = &models.UserAnswer{QuestionID: q.ID, AnswerID: answerID}
	return true
}

// Advance records the pending selection and moves to the next question, or
// submits when the current question is the last one. Without a pending
// selection it is a no-op: a question cannot be skipped unanswered. While a
// submission is in flight further calls are no-ops, so the submission
// happens exactly once.
func (c *Controller) Advance() bool {
	c.mu.Lock()
	if c.status != StatusActive || c.pending == nil {
		c.mu.Unlock()
		return false
	}

	c.recordPending()

	if c.current < len(c.questions)-1 {
		c.current++
		c.mu.Unlock()
		return true
	}

	c.status = StatusSubmitting
	payload := models.EvaluateRequest{
		UserID:      c.userID,
		UserAnswers: append([]models.UserAnswer(nil), c.answers...),
	}
	c.mu.Unlock()

	go c.submit(payload)
	return true
}

// Retreat moves back one question and clears the pending selection. The
// answer already recorded for the revisited question stays in the answer
// set; re-answering it replaces only the on-screen selection, not the
// recorded one.
func (c *Controller) Retreat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusActive || c.current == 0 {
		return false
	}
	c.current--
	c.pending = nil
	return true
}

// Resubmit retries a failed submission with the already-recorded answers.
// Only valid after a submission failure; fetch failures require a new
// session.
func (c *Controller) Resubmit() bool {
	c.mu.Lock()
	if c.status != StatusFailed || KindOf(c.err) != KindSubmission {
		c.mu.Unlock()
		return false
	}
	c.status = StatusSubmitting
	c.err = nil
	c.done = make(chan struct{})
	payload := models.EvaluateRequest{
		UserID:      c.userID,
		UserAnswers: append([]models.UserAnswer(nil), c.answers...),
	}
	c.mu.Unlock()

	go c.submit(payload)
	return true
}

// Close tears the session down. Any in-flight fetch or submission is
// cancelled and its result, should it still arrive, is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
}

// recordPending appends the pending selection to the answer set. A question
// revisited via Retreat keeps its originally recorded answer, which also
// keeps the set free of duplicate question ids.
func (c *Controller) recordPending() {
	for _, a := range c.answers {
		if a.QuestionID == c.pending.QuestionID {
			c.pending = nil
			return
		}
	}
	c.answers = append(c.answers, *c.pending)
	c.pending = nil
}

func (c *Controller) submit(payload models.EvaluateRequest) {
	c.logger.Info("submitting exam answers", "user_id", payload.UserID, "answers", len(payload.UserAnswers))
	resp, err := c.submitter.Evaluate(c.ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.status != StatusSubmitting {
		return
	}

	if err != nil {
		c.logger.Error("exam submission failed", "user_id", payload.UserID, "error", err)
		c.fail(newSubmissionError(serverMessage(err), err))
		return
	}

	items := scoring.Reconcile(c.questions, c.answers, resp.Results)
	var status *string
	if resp.Status != "" {
		status = &resp.Status
	}
	report := scoring.Normalize(resp.Score, status, scoring.CorrectCount(items), len(items))

	c.outcome = &Outcome{Response: resp, Report: report, Items: items}
	c.status = StatusCompleted
	c.logger.Info("exam session completed",
		"user_id", payload.UserID,
		"percent", report.Percent,
		"five_scale", report.FiveScale,
		"passed", report.Passed)
	close(c.done)
}

// fail must be called with the mutex held.
func (c *Controller) fail(err *Error) {
	c.status = StatusFailed
	c.err = err
	close(c.done)
}

// ===== OBSERVERS =====

// Status returns the current session state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// CurrentQuestion returns the question at the cursor while the session is
// active.
func (c *Controller) CurrentQuestion() (models.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusActive {
		return models.Question{}, false
	}
	return c.questions[c.current], true
}

// Progress reports the zero-based cursor and the total question count.
func (c *Controller) Progress() (current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, len(c.questions)
}

// Answers returns a copy of the recorded answer set.
func (c *Controller) Answers() []models.UserAnswer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.UserAnswer(nil), c.answers...)
}

// Outcome returns the completed result, or nil while the session has not
// finished successfully.
func (c *Controller) Outcome() *Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Err returns the terminal error, if the session failed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done is closed when the session reaches a terminal state (Completed,
// Failed or Empty). Resubmit arms a fresh channel.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func serverMessage(err error) string {
	var m interface{ ServerMessage() string }
	if errors.As(err, &m) {
		return m.ServerMessage()
	}
	return ""
}
