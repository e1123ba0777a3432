package services

import (
	"errors"
	"fmt"

	apperrors "github.com/appsarion/training-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Question specific errors
	ErrQuestionNotFound     = errors.New("question not found")
	ErrQuestionNotDeletable = errors.New("question cannot be deleted - referenced by evaluations")

	// Evaluation specific errors
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrAnswerNotFound     = errors.New("selected answer not found for question")
	ErrNoCorrectAnswer    = errors.New("question has no correct answer configured")
	ErrNoAnswersSubmitted = errors.New("no answers submitted")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// GradingError marks a submission that referenced questions or answers the
// question bank does not hold.
type GradingError struct {
	QuestionID uint   `json:"question_id"`
	AnswerID   uint   `json:"answer_id,omitempty"`
	Reason     string `json:"reason"`
	Err        error  `json:"-"`
}

func (ge *GradingError) Error() string {
	return fmt.Sprintf("grading failed for question %d: %s", ge.QuestionID, ge.Reason)
}

func (ge *GradingError) Unwrap() error {
	return ge.Err
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewGradingError(questionID, answerID uint, reason string, err error) *GradingError {
	return &GradingError{
		QuestionID: questionID,
		AnswerID:   answerID,
		Reason:     reason,
		Err:        err,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrEvaluationNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var single *apperrors.ValidationError
	if errors.As(err, &single) {
		return true
	}
	var many apperrors.ValidationErrors
	return errors.As(err, &many)
}

// IsGrading checks if error represents a grading failure
func IsGrading(err error) bool {
	var ge *GradingError
	return errors.As(err, &ge)
}
