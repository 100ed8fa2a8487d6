package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"activity-insights/internal/service/session"
	"activity-insights/pkg/logger"
)

type AnalysisHandler struct {
	service session.Service
	logger  logger.Logger
}

func NewAnalysisHandler(service session.Service, logger logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  logger,
	}
}

// Analyze filters the prepared matrix and returns the filtered rows plus the
// selected analysis payload. An empty view is a 200 with a message, not an
// error.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req session.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, statusFor(err), "Analysis failed", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AnalysisHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
