package postgres

import (
	"context"

	"github.com/appsarion/training-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db         *gorm.DB
	question   repositories.QuestionRepository
	evaluation repositories.EvaluationRepository
}

// NewRepository bundles the Postgres-backed repositories behind the shared
// Repository handle.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:         db,
		question:   NewQuestionPostgreSQL(db),
		evaluation: NewEvaluationPostgreSQL(db),
	}
}

func (r *repository) Question() repositories.QuestionRepository {
	return r.question
}

func (r *repository) Evaluation() repositories.EvaluationRepository {
	return r.evaluation
}

func (r *repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
