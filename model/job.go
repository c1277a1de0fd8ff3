package model

// Job status constants
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusNotFound   = "not_found"
)

// IsTerminal reports whether a status ends the polling cycle.
// not_found is terminal for clients: the job id will never materialize.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusNotFound:
		return true
	}
	return false
}

// Room is a single detected room in a blueprint
type Room struct {
	ID          string    `json:"id"`
	BoundingBox []float64 `json:"bounding_box"` // [x_min, y_min, x_max, y_max]
	Vertices    [][]int   `json:"vertices,omitempty"`
	Area        float64   `json:"area,omitempty"`
	NameHint    string    `json:"name_hint,omitempty"`
	Confidence  float64   `json:"confidence"`
}

// ModelInfo describes the detector that produced a result
type ModelInfo struct {
	Type    string `json:"type,omitempty"`
	Version string `json:"version,omitempty"`
}

// DetectionResult is the result JSON written to results/{jobID}.json
// by the inference endpoint (or the demo detector)
type DetectionResult struct {
	JobID      string     `json:"jobId,omitempty"`
	Status     string     `json:"status"` // completed, failed
	RoomCount  int        `json:"room_count"`
	Rooms      []Room     `json:"rooms"`
	ImageShape []int      `json:"image_shape,omitempty"`
	Timestamp  string     `json:"timestamp,omitempty"`
	Error      string     `json:"error,omitempty"`
	ModelInfo  *ModelInfo `json:"model_info,omitempty"`
}

// JobStatus is the derived view returned by the status endpoint.
// There is no persisted job record: status is recomputed from object
// existence in storage on every poll.
type JobStatus struct {
	JobID        string           `json:"job_id"`
	Status       string           `json:"status"`
	BlueprintKey string           `json:"blueprint_key,omitempty"`
	Result       *DetectionResult `json:"result,omitempty"`
	Error        string           `json:"error,omitempty"`
}
