package services

import (
	"github.com/appsarion/training-service/internal/cache"
	"github.com/appsarion/training-service/internal/events"
	"github.com/appsarion/training-service/internal/repositories"
	"github.com/appsarion/training-service/internal/utils"
	"github.com/go-playground/validator/v10"
)

// ServiceManager exposes every service behind a single handle so handlers
// and wiring code take one dependency.
type ServiceManager interface {
	Question() QuestionService
	Evaluation() EvaluationService
	Import() ImportService
}

type serviceManager struct {
	question   QuestionService
	evaluation EvaluationService
	importSvc  ImportService
}

func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	validate *validator.Validate,
	publisher events.EventPublisher,
	logger utils.Logger,
) ServiceManager {
	return &serviceManager{
		question:   NewQuestionService(repo, cacheService, validate, logger),
		evaluation: NewEvaluationService(repo, validate, publisher, logger),
		importSvc:  NewImportService(repo, cacheService, publisher, logger),
	}
}

func (m *serviceManager) Question() QuestionService {
	return m.question
}

func (m *serviceManager) Evaluation() EvaluationService {
	return m.evaluation
}

func (m *serviceManager) Import() ImportService {
	return m.importSvc
}
