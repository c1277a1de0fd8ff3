package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/roomscan/backend/config"
	"github.com/roomscan/backend/model"
	"github.com/roomscan/backend/pkg/logger"
	"github.com/roomscan/backend/service"
)

type UploadHandler struct {
	presigner service.Presigner
	storage   service.ObjectStore
	detector  *service.DetectorService
	demo      *service.DemoDetector
	bucket    string
	cfg       *config.Config
}

func NewUploadHandler(presigner service.Presigner, storage service.ObjectStore, detector *service.DetectorService, demo *service.DemoDetector, bucket string, cfg *config.Config) *UploadHandler {
	return &UploadHandler{
		presigner: presigner,
		storage:   storage,
		detector:  detector,
		demo:      demo,
		bucket:    bucket,
		cfg:       cfg,
	}
}

type UploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type UploadResponse struct {
	JobID     string `json:"job_id"`
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
	ExpiresIn int    `json:"expires_in"`
	Status    string `json:"status"`
}

// Upload validates file metadata, mints a job id, and returns a presigned PUT
// URL scoped to the blueprint key. The file bytes go directly to storage from
// the client; this handler never sees them.
func (h *UploadHandler) Upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !validBlueprintExt(ext) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PNG and JPEG blueprints are allowed"})
		return
	}

	maxBytes := h.cfg.Server.MaxUploadSizeMB * 1024 * 1024
	if req.Size < 0 || req.Size > maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	if req.ContentType != "" && !strings.HasPrefix(req.ContentType, "image/") &&
		req.ContentType != "application/octet-stream" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content type"})
		return
	}

	jobID := uuid.New().String()
	key := service.BlueprintKey(jobID, ext)

	uploadURL, err := h.presigner.PresignedUploadURL(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL: " + err.Error()})
		return
	}

	// Kick off the inference trigger once the blueprint lands in storage
	if h.demo != nil || (h.detector != nil && h.detector.Enabled()) {
		go h.watchUpload(jobID, key)
	}

	c.JSON(http.StatusOK, UploadResponse{
		JobID:     jobID,
		Key:       key,
		UploadURL: uploadURL,
		ExpiresIn: h.cfg.Minio.UploadExpireMinutes * 60,
		Status:    model.StatusPending,
	})
}

// watchUpload polls storage until the blueprint object appears, then triggers
// inference: the demo detector in demo mode, otherwise the managed endpoint.
// In a storage-event deployment this watcher is redundant and never fires
// before the event does; it exists so the flow also works without bucket
// notifications.
func (h *UploadHandler) watchUpload(jobID, key string) {
	ctx := context.WithValue(context.Background(), logger.JobIDKey, jobID)

	interval := time.Duration(h.cfg.Detector.UploadPollIntervalS) * time.Second
	maxAttempts := h.cfg.Detector.UploadWaitSeconds / h.cfg.Detector.UploadPollIntervalS

	for i := 0; i < maxAttempts; i++ {
		time.Sleep(interval)

		exists, err := h.storage.ObjectExists(ctx, key)
		if err != nil {
			logger.Warn(ctx, "upload probe failed", "attempt", i+1, "error", err)
			continue
		}
		if !exists {
			continue
		}

		logger.Info(ctx, "blueprint uploaded", "key", key)

		if h.demo != nil {
			if err := h.demo.Run(ctx, jobID); err != nil {
				logger.Error(ctx, "demo detection failed", "error", err)
			} else {
				logger.Info(ctx, "demo result written")
			}
			return
		}

		event := &service.InferenceEvent{
			Bucket:    h.bucket,
			Key:       key,
			JobID:     jobID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if err := h.detector.Invoke(ctx, event); err != nil {
			logger.Error(ctx, "detector invocation failed", "error", err)
		} else {
			logger.Info(ctx, "detector invoked", "key", key)
		}
		return
	}

	logger.Warn(ctx, "blueprint never arrived, giving up", "key", key)
}

func validBlueprintExt(ext string) bool {
	for _, allowed := range service.BlueprintExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
