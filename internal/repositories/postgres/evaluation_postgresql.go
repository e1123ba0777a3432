package postgres

import (
	"context"

	"github.com/appsarion/training-service/internal/models"
	"github.com/appsarion/training-service/internal/repositories"
	"gorm.io/gorm"
)

type EvaluationPostgreSQL struct {
	db *gorm.DB
}

func NewEvaluationPostgreSQL(db *gorm.DB) repositories.EvaluationRepository {
	return &EvaluationPostgreSQL{db: db}
}

func (e EvaluationPostgreSQL) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return e.db.WithContext(ctx).Create(evaluation).Error
}

func (e EvaluationPostgreSQL) Update(ctx context.Context, evaluation *models.Evaluation) error {
	return e.db.WithContext(ctx).Save(evaluation).Error
}

func (e EvaluationPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := e.db.WithContext(ctx).First(&evaluation, id).Error; err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (e EvaluationPostgreSQL) GetByUser(ctx context.Context, userID uint, filters repositories.EvaluationFilters) ([]*models.Evaluation, int64, error) {
	var evaluations []*models.Evaluation
	var total int64

	query := e.db.WithContext(ctx).Model(&models.Evaluation{}).Where("user_id = ?", userID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at desc")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&evaluations).Error; err != nil {
		return nil, 0, err
	}
	return evaluations, total, nil
}

func (e EvaluationPostgreSQL) CreateAnswersBatch(ctx context.Context, answers []*models.EvaluationAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return e.db.WithContext(ctx).Create(answers).Error
}
