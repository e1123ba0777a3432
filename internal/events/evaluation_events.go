package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents different types of domain events
type EventType string

const (
	// Evaluation events
	EventEvaluationCompleted EventType = "evaluation.completed"
	EventEvaluationFailed    EventType = "evaluation.failed"

	// Question bank events
	EventQuestionsImported EventType = "questions.imported"
)

// Event is the base structure for all published events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Evaluation event payloads

type EvaluationGradedEvent struct {
	EvaluationID   uint      `json:"evaluation_id"`
	UserID         uint      `json:"user_id"`
	Score          float64   `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	Passed         bool      `json:"passed"`
	GradedAt       time.Time `json:"graded_at"`
}

// Question bank event payload

type QuestionsImportedEvent struct {
	ImportedCount int       `json:"imported_count"`
	SkippedCount  int       `json:"skipped_count"`
	FileName      string    `json:"file_name"`
	ImportedAt    time.Time `json:"imported_at"`
}

// Event factory functions

func NewEvaluationGradedEvent(evaluationID, userID uint, score float64, correct, total int, passed bool) *Event {
	eventType := EventEvaluationCompleted
	if !passed {
		eventType = EventEvaluationFailed
	}
	return &Event{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "training-service",
		Version:   "1.0",
		Data: EvaluationGradedEvent{
			EvaluationID:   evaluationID,
			UserID:         userID,
			Score:          score,
			CorrectAnswers: correct,
			TotalQuestions: total,
			Passed:         passed,
			GradedAt:       time.Now(),
		},
	}
}

func NewQuestionsImportedEvent(imported, skipped int, fileName string) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      EventQuestionsImported,
		Timestamp: time.Now(),
		Source:    "training-service",
		Version:   "1.0",
		Data: QuestionsImportedEvent{
			ImportedCount: imported,
			SkippedCount:  skipped,
			FileName:      fileName,
			ImportedAt:    time.Now(),
		},
	}
}

// GenerateEventID returns a unique identifier for a new event
func GenerateEventID() string {
	return watermill.NewUUID()
}
