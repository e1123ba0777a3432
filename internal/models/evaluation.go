package models

import (
	"time"

	"gorm.io/datatypes"
)

type EvaluationStatus string

const (
	EvaluationPending   EvaluationStatus = "PENDING"
	EvaluationCompleted EvaluationStatus = "COMPLETED"
	EvaluationFailed    EvaluationStatus = "FAILED"
)

// UserAnswer is the client's selection for a single question. A session
// records at most one per question.
type UserAnswer struct {
	QuestionID uint `json:"questionId" validate:"required"`
	AnswerID   uint `json:"answerId" validate:"required"`
}

// EvaluationResult is the server-computed grading for one question. When a
// response carries these, they are authoritative over anything the client
// inferred locally.
type EvaluationResult struct {
	QuestionID        uint   `json:"questionId"`
	SelectedAnswerID  uint   `json:"selectedAnswerId"`
	CorrectAnswerID   uint   `json:"correctAnswerId"`
	CorrectAnswerText string `json:"correctAnswerText,omitempty"`
	Correct           bool   `json:"correct"`
}

// EvaluateRequest is the submission payload for a finished exam.
type EvaluateRequest struct {
	UserID      uint         `json:"userId" validate:"required"`
	UserAnswers []UserAnswer `json:"userAnswers" validate:"required,min=1,dive"`
}

// EvaluationResponse is the wire shape returned by the evaluate endpoint.
// Score and Results are both optional; consumers must cope with either
// being absent.
type EvaluationResponse struct {
	ID             uint               `json:"id"`
	UserID         uint               `json:"userId"`
	Score          *float64           `json:"score,omitempty"`
	Status         string             `json:"status,omitempty"`
	CorrectAnswers int                `json:"correctAnswers,omitempty"`
	TotalQuestions int                `json:"totalQuestions,omitempty"`
	Results        []EvaluationResult `json:"results,omitempty"`
	CreatedAt      string             `json:"createdAt,omitempty"`
	UpdatedAt      string             `json:"updatedAt,omitempty"`
}

// Evaluation is the persisted exam attempt. The score column stores the
// rounded integer for compatibility with the legacy schema; the decimal
// 0-5 score only travels in the response.
type Evaluation struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"not null;index"`
	Score     int              `json:"score" gorm:"not null;default:0"`
	Status    EvaluationStatus `json:"status" gorm:"size:20;default:PENDING;index"`
	Results   datatypes.JSON   `json:"results" gorm:"type:jsonb"` // []EvaluationResult snapshot
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

// EvaluationAnswer is one stored user selection belonging to an Evaluation.
type EvaluationAnswer struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	EvaluationID uint `json:"evaluation_id" gorm:"not null;index"`
	QuestionID   uint `json:"question_id" gorm:"not null;index"`
	AnswerID     uint `json:"answer_id" gorm:"not null"`
}

func (EvaluationAnswer) TableName() string {
	return "user_answers"
}
