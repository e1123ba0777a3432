package repositories

import (
	"context"
	"errors"

	"github.com/appsarion/training-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Category  *string `json:"category"`
	Search    *string `json:"search"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`    // "created_at", "question_text"
	SortOrder string  `json:"sort_order"` // "asc", "desc"
}

type EvaluationFilters struct {
	UserID *uint                    `json:"user_id"`
	Status *models.EvaluationStatus `json:"status"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error)
	GetRandom(ctx context.Context, count int) ([]models.Question, error)
	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
}

type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *models.Evaluation) error
	Update(ctx context.Context, evaluation *models.Evaluation) error
	GetByID(ctx context.Context, id uint) (*models.Evaluation, error)
	GetByUser(ctx context.Context, userID uint, filters EvaluationFilters) ([]*models.Evaluation, int64, error)
	CreateAnswersBatch(ctx context.Context, answers []*models.EvaluationAnswer) error
}

// Repository aggregates the per-entity repositories behind one handle.
type Repository interface {
	Question() QuestionRepository
	Evaluation() EvaluationRepository
	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
}

// IsNotFoundError reports whether err is the storage layer's record-missing
// condition.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
