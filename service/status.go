package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roomscan/backend/model"
	"github.com/roomscan/backend/pkg/logger"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resultSchema validates completed detection results before they are reported
// to clients. The inference endpoint is external; its output is untrusted.
var resultSchema = jsonschema.MustCompileString("result.schema.json", `{
	"type": "object",
	"required": ["room_count", "rooms"],
	"properties": {
		"jobId": {"type": "string"},
		"status": {"type": "string"},
		"room_count": {"type": "integer", "minimum": 0},
		"rooms": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "bounding_box", "confidence"],
				"properties": {
					"id": {"type": "string"},
					"bounding_box": {
						"type": "array",
						"items": {"type": "number"},
						"minItems": 4,
						"maxItems": 4
					},
					"vertices": {
						"type": "array",
						"items": {
							"type": "array",
							"items": {"type": "integer"},
							"minItems": 2,
							"maxItems": 2
						}
					},
					"area": {"type": "number", "minimum": 0},
					"name_hint": {"type": "string"},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1}
				}
			}
		},
		"image_shape": {"type": "array", "items": {"type": "integer"}},
		"timestamp": {"type": "string"}
	}
}`)

// StatusService derives a job's status from object existence in storage.
// There is no job table: the blueprint and result objects are the only state,
// so status is recomputed on every poll. The two existence checks are not
// atomic; a result written mid-poll shows up on the next poll.
type StatusService struct {
	store ObjectStore
}

func NewStatusService(store ObjectStore) *StatusService {
	return &StatusService{store: store}
}

// FindBlueprint probes the candidate extensions in order and returns the key
// of the uploaded blueprint, or "" when no object exists for the job id
func (s *StatusService) FindBlueprint(ctx context.Context, jobID string) (string, error) {
	for _, ext := range BlueprintExtensions {
		key := BlueprintKey(jobID, ext)
		exists, err := s.store.ObjectExists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to probe blueprint: %w", err)
		}
		if exists {
			return key, nil
		}
	}
	return "", nil
}

// Resolve synthesizes the job status:
// no blueprint -> not_found; blueprint only -> processing; result present ->
// the result's own terminal status with the parsed payload.
func (s *StatusService) Resolve(ctx context.Context, jobID string) (*model.JobStatus, error) {
	blueprintKey, err := s.FindBlueprint(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if blueprintKey == "" {
		return &model.JobStatus{JobID: jobID, Status: model.StatusNotFound}, nil
	}

	resultKey := ResultKey(jobID)
	exists, err := s.store.ObjectExists(ctx, resultKey)
	if err != nil {
		return nil, fmt.Errorf("failed to probe result: %w", err)
	}
	if !exists {
		return &model.JobStatus{
			JobID:        jobID,
			Status:       model.StatusProcessing,
			BlueprintKey: blueprintKey,
		}, nil
	}

	data, err := s.store.ReadObject(ctx, resultKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	var result model.DetectionResult
	if err := json.Unmarshal(data, &result); err != nil {
		// The result object exists but isn't valid JSON yet. Most likely a
		// partially visible write; report processing and let the next poll
		// pick it up.
		logger.Warn(ctx, "result object not yet parseable", "job_id", jobID, "error", err)
		return &model.JobStatus{
			JobID:        jobID,
			Status:       model.StatusProcessing,
			BlueprintKey: blueprintKey,
		}, nil
	}

	if result.Status == model.StatusFailed {
		return &model.JobStatus{
			JobID:        jobID,
			Status:       model.StatusFailed,
			BlueprintKey: blueprintKey,
			Error:        result.Error,
		}, nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	if err := resultSchema.Validate(raw); err != nil {
		logger.Warn(ctx, "result failed schema validation", "job_id", jobID, "error", err)
		return &model.JobStatus{
			JobID:        jobID,
			Status:       model.StatusFailed,
			BlueprintKey: blueprintKey,
			Error:        "malformed detection result",
		}, nil
	}

	return &model.JobStatus{
		JobID:        jobID,
		Status:       model.StatusCompleted,
		BlueprintKey: blueprintKey,
		Result:       &result,
	}, nil
}
