package handlers

import (
	"github.com/appsarion/training-service/internal/services"
	"github.com/appsarion/training-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	questionHandler   *QuestionHandler
	evaluationHandler *EvaluationHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		questionHandler:   NewQuestionHandler(serviceManager.Question(), serviceManager.Import(), logger),
		evaluationHandler: NewEvaluationHandler(serviceManager.Evaluation(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Question routes
		questions := v1.Group("/questions")
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/random/:count", hm.questionHandler.GetRandomQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
			questions.POST("/import", hm.questionHandler.ImportQuestions)
		}

		// Evaluation routes
		evaluations := v1.Group("/evaluations")
		{
			evaluations.POST("/evaluate", hm.evaluationHandler.Evaluate)
			evaluations.GET("/:id", hm.evaluationHandler.GetEvaluation)
			evaluations.GET("/user/:user_id", hm.evaluationHandler.GetUserEvaluations)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "training-service",
		})
	})
}
