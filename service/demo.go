package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/roomscan/backend/model"
)

// demo canvas dimensions, matching the coordinate space the real detector
// reports in
const (
	demoImageWidth  = 1000
	demoImageHeight = 1000
)

var demoNameHints = []string{
	"Living Room", "Kitchen", "Bedroom", "Bathroom",
	"Office", "Hallway", "Dining Room", "Closet",
}

// DemoDetector synthesizes detection results so the upload/status flow works
// without the managed inference endpoint. Results are deterministic per job id.
type DemoDetector struct {
	store ObjectStore
}

func NewDemoDetector(store ObjectStore) *DemoDetector {
	return &DemoDetector{store: store}
}

// GenerateResult builds a plausible result for the job id. The same id always
// produces the same rooms.
func (d *DemoDetector) GenerateResult(jobID string, now time.Time) *model.DetectionResult {
	h := fnv.New64a()
	h.Write([]byte(jobID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	roomCount := 3 + rng.Intn(6) // 3..8 rooms

	rooms := make([]model.Room, 0, roomCount)
	for i := 0; i < roomCount; i++ {
		// Lay rooms out on a 2x4 grid with jittered boxes inside each cell
		col := i % 2
		row := i / 2
		cellW := demoImageWidth / 2
		cellH := demoImageHeight / 4

		x0 := col*cellW + 10 + rng.Intn(40)
		y0 := row*cellH + 10 + rng.Intn(30)
		w := cellW - 60 - rng.Intn(80)
		hgt := cellH - 50 - rng.Intn(60)
		x1 := x0 + w
		y1 := y0 + hgt

		rooms = append(rooms, model.Room{
			ID:          fmt.Sprintf("room_%03d", i+1),
			BoundingBox: []float64{float64(x0), float64(y0), float64(x1), float64(y1)},
			Vertices: [][]int{
				{x0, y0},
				{x1, y0},
				{x1, y1},
				{x0, y1},
			},
			Area:       float64(w * hgt),
			NameHint:   demoNameHints[rng.Intn(len(demoNameHints))],
			Confidence: 0.70 + float64(rng.Intn(30))/100.0,
		})
	}

	return &model.DetectionResult{
		JobID:      jobID,
		Status:     model.StatusCompleted,
		RoomCount:  len(rooms),
		Rooms:      rooms,
		ImageShape: []int{demoImageHeight, demoImageWidth, 3},
		Timestamp:  now.UTC().Format(time.RFC3339),
		ModelInfo: &model.ModelInfo{
			Type:    "demo",
			Version: "v1",
		},
	}
}

// Run generates a result for the job and writes it to the results path,
// completing the job the same way the real detector would
func (d *DemoDetector) Run(ctx context.Context, jobID string) error {
	result := d.GenerateResult(jobID, time.Now())

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal demo result: %w", err)
	}

	if err := d.store.WriteObject(ctx, ResultKey(jobID), data, "application/json"); err != nil {
		return fmt.Errorf("failed to write demo result: %w", err)
	}

	return nil
}
