package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Question is a multiple-choice question served to the mobile client.
// The wire key for the text is "questionText"; older payloads used "text",
// so decoding accepts both.
type Question struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	Text     string   `json:"questionText" gorm:"column:question_text;not null;type:text" validate:"required,min=1"`
	Category *string  `json:"category,omitempty" gorm:"size:100;index"`
	Answers  []Answer `json:"answers" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" validate:"required,min=2,dive"`

	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

// Answer is one selectable option of a Question. IsCorrect is a pointer
// because the flag is optional on the wire; the random-question feed keeps
// it so the client can fall back to local grading when the server returns
// no per-question results.
type Answer struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"questionId,omitempty" gorm:"not null;index"`
	Text       string `json:"answerText" gorm:"column:answer_text;not null;type:text" validate:"required,min=1"`
	IsCorrect  *bool  `json:"isCorrect,omitempty" gorm:"column:is_correct"`
}

func (Answer) TableName() string {
	return "answers"
}

// Correct reports whether the answer is marked correct. Unknown counts as
// not correct.
func (a Answer) Correct() bool {
	return a.IsCorrect != nil && *a.IsCorrect
}

type questionWire struct {
	ID         uint     `json:"id"`
	Text       string   `json:"questionText"`
	LegacyText string   `json:"text"`
	Category   *string  `json:"category"`
	Answers    []Answer `json:"answers"`
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	q.ID = w.ID
	q.Text = w.Text
	if q.Text == "" {
		q.Text = w.LegacyText
	}
	q.Category = w.Category
	q.Answers = w.Answers
	return nil
}

type answerWire struct {
	ID         uint   `json:"id"`
	QuestionID uint   `json:"questionId"`
	Text       string `json:"answerText"`
	LegacyText string `json:"text"`
	IsCorrect  *bool  `json:"isCorrect"`
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var w answerWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	a.ID = w.ID
	a.QuestionID = w.QuestionID
	a.Text = w.Text
	if a.Text == "" {
		a.Text = w.LegacyText
	}
	a.IsCorrect = w.IsCorrect
	return nil
}

// CorrectAnswer returns the answer flagged correct, if any. The question
// bank is expected to hold at most one per question.
func (q *Question) CorrectAnswer() (*Answer, bool) {
	for i := range q.Answers {
		if q.Answers[i].Correct() {
			return &q.Answers[i], true
		}
	}
	return nil, false
}

// AnswerByID looks up an option of this question by its identifier.
func (q *Question) AnswerByID(id uint) (*Answer, bool) {
	for i := range q.Answers {
		if q.Answers[i].ID == id {
			return &q.Answers[i], true
		}
	}
	return nil, false
}
