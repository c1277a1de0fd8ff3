package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomscan/backend/model"
	"github.com/roomscan/backend/service"
)

type StatusHandler struct {
	status *service.StatusService
}

func NewStatusHandler(status *service.StatusService) *StatusHandler {
	return &StatusHandler{status: status}
}

// GetStatus derives the job status from storage. No job record exists; the
// response is recomputed from object existence on every poll.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID required"})
		return
	}

	status, err := h.status.Resolve(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve status: " + err.Error()})
		return
	}

	if status.Status == model.StatusNotFound {
		c.JSON(http.StatusNotFound, status)
		return
	}

	c.JSON(http.StatusOK, status)
}
