package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/appsarion/training-service/internal/services"
	"github.com/gin-gonic/gin"
)

// ParseIDParam parses a numeric path parameter. On failure it writes a 400
// response and returns 0; callers must bail out when 0 comes back.
func ParseIDParam(c *gin.Context, param string) uint {
	idStr := strings.TrimSpace(c.Param(param))
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a positive integer",
		})
		return 0
	}
	return uint(id)
}

// handleServiceError maps service-layer errors onto HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Resource not found", err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err.Error())
	case services.IsGrading(err):
		h.RespondWithError(c, http.StatusUnprocessableEntity, "Submission could not be graded", err, err.Error())
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
