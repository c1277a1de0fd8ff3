package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roomscan/backend/config"
)

// DetectorService invokes the managed room-detection endpoint. The endpoint
// reads the blueprint from object storage and writes the result JSON back to
// the results path; this client only hands it the storage event.
type DetectorService struct {
	config     *config.DetectorConfig
	httpClient *http.Client
}

// InferenceEvent mirrors the event the managed endpoint consumes
type InferenceEvent struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	JobID     string `json:"jobId"`
	Timestamp string `json:"timestamp,omitempty"`
}

func NewDetectorService(cfg *config.DetectorConfig) *DetectorService {
	return &DetectorService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Enabled reports whether an external endpoint is configured
func (s *DetectorService) Enabled() bool {
	return s.config.APIURL != ""
}

// Invoke notifies the inference endpoint that a blueprint is ready
func (s *DetectorService) Invoke(ctx context.Context, event *InferenceEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIURL+"/invocations", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("detector returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// VerifyCallback verifies the callback checksum.
// Checksum = SHA256(jobID + seed + content)
func (s *DetectorService) VerifyCallback(checksum, content, jobID string) bool {
	data := jobID + s.config.CallbackSeed + content
	hash := sha256.Sum256([]byte(data))
	expected := hex.EncodeToString(hash[:])
	return checksum == expected
}
