package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"activity-insights/internal/dataset"
	"activity-insights/internal/service/session"
	"activity-insights/pkg/logger"
	"activity-insights/pkg/queue"
)

type DatasetHandler struct {
	service session.Service
	logger  logger.Logger
}

// LoadRequest names the directory holding the three source tables. An empty
// dir falls back to the configured default.
type LoadRequest struct {
	Dir string `json:"dir"`
}

type PrepareRequest struct {
	Async bool `json:"async"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewDatasetHandler(service session.Service, logger logger.Logger) *DatasetHandler {
	return &DatasetHandler{
		service: service,
		logger:  logger,
	}
}

// Load reads the raw tables into the session.
func (h *DatasetHandler) Load(c *gin.Context) {
	var req LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.service.Load(c.Request.Context(), req.Dir)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to load data", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Prepare runs clean, merge, reshape and persist. With async=true the run is
// dispatched to the worker and a task id is returned instead of the shape.
func (h *DatasetHandler) Prepare(c *gin.Context) {
	var req PrepareRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	if req.Async {
		task, err := h.service.EnqueuePrepare(c.Request.Context())
		if err != nil {
			h.handleError(c, statusFor(err), "Failed to enqueue prepare run", err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"taskId": task.ID,
			"status": string(task.Status),
		})
		return
	}

	shape, err := h.service.Prepare(c.Request.Context())
	if err != nil {
		h.handleError(c, statusFor(err), "Prepare run failed", err)
		return
	}

	c.JSON(http.StatusOK, shape)
}

// GetStatus reports the state of a background prepare run.
func (h *DatasetHandler) GetStatus(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	task, err := h.service.TaskStatus(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to get status", err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Download streams the persisted record-oriented document.
func (h *DatasetHandler) Download(c *gin.Context) {
	data, err := h.service.DownloadPrepared(c.Request.Context())
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to get prepared data", err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+session.PreparedKey)
	c.Data(http.StatusOK, "application/json", data)
}

func (h *DatasetHandler) handleError(c *gin.Context, status int, message string, err error) {
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

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dataset.ErrSourceNotFound),
		errors.Is(err, queue.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, dataset.ErrParse),
		errors.Is(err, dataset.ErrMissingColumn),
		errors.Is(err, dataset.ErrDateParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dataset.ErrUnsupportedFilter):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotLoaded),
		errors.Is(err, session.ErrNotPrepared),
		errors.Is(err, session.ErrPrepareInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
