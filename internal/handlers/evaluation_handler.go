package handlers

import (
	"net/http"
	"strconv"

	"github.com/appsarion/training-service/internal/models"
	"github.com/appsarion/training-service/internal/repositories"
	"github.com/appsarion/training-service/internal/services"
	"github.com/appsarion/training-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type EvaluationHandler struct {
	BaseHandler
	evaluationService services.EvaluationService
}

func NewEvaluationHandler(
	evaluationService services.EvaluationService,
	logger utils.Logger,
) *EvaluationHandler {
	return &EvaluationHandler{
		BaseHandler:       NewBaseHandler(logger),
		evaluationService: evaluationService,
	}
}

// Evaluate grades a submitted exam and records the attempt
// @Summary Evaluate exam submission
// @Tags evaluations
// @Accept json
// @Produce json
// @Param submission body models.EvaluateRequest true "User answers"
// @Success 200 {object} models.EvaluationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /evaluations/evaluate [post]
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Evaluating submission", "user_id", req.UserID, "answers", len(req.UserAnswers))

	response, err := h.evaluationService.Evaluate(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetEvaluation retrieves a stored evaluation by ID
// @Summary Get evaluation
// @Tags evaluations
// @Produce json
// @Param id path uint true "Evaluation ID"
// @Success 200 {object} models.EvaluationResponse
// @Failure 404 {object} ErrorResponse
// @Router /evaluations/{id} [get]
func (h *EvaluationHandler) GetEvaluation(c *gin.Context) {
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	response, err := h.evaluationService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetUserEvaluations lists a user's evaluation history
// @Summary List evaluations by user
// @Tags evaluations
// @Produce json
// @Param user_id path uint true "User ID"
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} ListResponse
// @Router /evaluations/user/{user_id} [get]
func (h *EvaluationHandler) GetUserEvaluations(c *gin.Context) {
	userID := ParseIDParam(c, "user_id")
	if userID == 0 {
		return
	}

	filters := repositories.EvaluationFilters{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.EvaluationStatus(statusStr)
		filters.Status = &status
	}
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filters.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	responses, total, err := h.evaluationService.GetByUser(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: responses, Total: total})
}
