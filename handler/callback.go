package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomscan/backend/model"
	"github.com/roomscan/backend/pkg/logger"
	"github.com/roomscan/backend/service"
)

// CallbackHandler receives completion callbacks from push-style detector
// deployments. The verified payload is written to the results path; status
// derivation stays storage-driven either way.
type CallbackHandler struct {
	detector *service.DetectorService
	store    service.ObjectStore
}

func NewCallbackHandler(detector *service.DetectorService, store service.ObjectStore) *CallbackHandler {
	return &CallbackHandler{
		detector: detector,
		store:    store,
	}
}

type CallbackRequest struct {
	Checksum string `json:"checksum"`
	Content  string `json:"content"`
}

// HandleCallback verifies and persists a detector completion callback
func (h *CallbackHandler) HandleCallback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Content is the result JSON itself
	var result model.DetectionResult
	if err := json.Unmarshal([]byte(req.Content), &result); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content format"})
		return
	}
	if result.JobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing job id"})
		return
	}

	if !h.detector.VerifyCallback(req.Checksum, req.Content, result.JobID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid checksum"})
		return
	}

	resultKey := service.ResultKey(result.JobID)
	if err := h.store.WriteObject(c.Request.Context(), resultKey, []byte(req.Content), "application/json"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store result: " + err.Error()})
		return
	}

	logger.Info(c.Request.Context(), "detector callback stored",
		"job_id", result.JobID,
		"status", result.Status,
		"room_count", result.RoomCount,
	)

	c.JSON(http.StatusOK, gin.H{"message": "Callback received"})
}
