package scoring

import (
	"fmt"

	"github.com/appsarion/training-service/internal/models"
)

// missingText is rendered when neither the server response nor the local
// question bank can resolve an answer's display text.
const missingText = "—"

// ResultItem is one row of the per-question breakdown shown after an exam.
type ResultItem struct {
	QuestionID        uint   `json:"questionId"`
	QuestionText      string `json:"questionText"`
	UserAnswerText    string `json:"userAnswerText"`
	CorrectAnswerText string `json:"correctAnswerText"`
	IsCorrect         bool   `json:"isCorrect"`
}

// Reconcile merges the server's per-question results with the locally
// recorded answers into a uniform breakdown.
//
// When results is non-empty it is the source of truth: local answers and
// the isCorrect flags on the question bank are only consulted to resolve
// display text the server omitted, and the output follows the order of
// results. When results is empty, correctness is inferred locally and the
// output follows the order of questions.
func Reconcile(questions []models.Question, answers []models.UserAnswer, results []models.EvaluationResult) []ResultItem {
	if len(results) > 0 {
		return reconcileAuthoritative(questions, results)
	}
	return reconcileLocal(questions, answers)
}

func reconcileAuthoritative(questions []models.Question, results []models.EvaluationResult) []ResultItem {
	byID := make(map[uint]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	items := make([]ResultItem, 0, len(results))
	for _, r := range results {
		item := ResultItem{
			QuestionID:        r.QuestionID,
			QuestionText:      fmt.Sprintf("Pregunta %d", r.QuestionID),
			UserAnswerText:    fmt.Sprintf("Opción %d", r.SelectedAnswerID),
			CorrectAnswerText: missingText,
			IsCorrect:         r.Correct,
		}

		q, ok := byID[r.QuestionID]
		if ok {
			item.QuestionText = q.Text
			if selected, found := q.AnswerByID(r.SelectedAnswerID); found {
				item.UserAnswerText = selected.Text
			}
		}

		switch {
		case r.CorrectAnswerText != "":
			item.CorrectAnswerText = r.CorrectAnswerText
		case ok:
			if correct, found := q.AnswerByID(r.CorrectAnswerID); found {
				item.CorrectAnswerText = correct.Text
			}
		}

		items = append(items, item)
	}
	return items
}

func reconcileLocal(questions []models.Question, answers []models.UserAnswer) []ResultItem {
	byQuestion := make(map[uint]models.UserAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	items := make([]ResultItem, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		item := ResultItem{
			QuestionID:        q.ID,
			QuestionText:      q.Text,
			UserAnswerText:    missingText,
			CorrectAnswerText: missingText,
		}

		var selected *models.Answer
		if ua, ok := byQuestion[q.ID]; ok {
			if ans, found := q.AnswerByID(ua.AnswerID); found {
				selected = ans
				item.UserAnswerText = ans.Text
			}
		}

		correct, hasCorrect := q.CorrectAnswer()
		if hasCorrect {
			item.CorrectAnswerText = correct.Text
		}

		item.IsCorrect = selected != nil && hasCorrect && selected.ID == correct.ID
		items = append(items, item)
	}
	return items
}

// CorrectCount tallies how many items were answered correctly.
func CorrectCount(items []ResultItem) int {
	n := 0
	for _, it := range items {
		if it.IsCorrect {
			n++
		}
	}
	return n
}
