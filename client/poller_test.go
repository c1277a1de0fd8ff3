package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/roomscan/backend/model"
)

func statusServer(t *testing.T, responses []func(w http.ResponseWriter)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(responses) {
			n = len(responses) - 1
		}
		responses[n](w)
	}))
	return server, &calls
}

func writeStatus(status model.JobStatus) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}

func fastPoller(baseURL string) *Poller {
	p := New(baseURL, "test-token")
	p.Interval = time.Millisecond
	return p
}

func TestPollerStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status/job-1" {
			t.Errorf("Expected /api/status/job-1, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Error("Expected Authorization header")
		}
		writeStatus(model.JobStatus{JobID: "job-1", Status: model.StatusProcessing})(w)
	}))
	defer server.Close()

	status, err := fastPoller(server.URL).Status(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status.Status != model.StatusProcessing {
		t.Errorf("Expected '%s', got '%s'", model.StatusProcessing, status.Status)
	}
}

func TestPollUntilCompleted(t *testing.T) {
	server, calls := statusServer(t, []func(w http.ResponseWriter){
		writeStatus(model.JobStatus{JobID: "job-1", Status: model.StatusPending}),
		writeStatus(model.JobStatus{JobID: "job-1", Status: model.StatusProcessing}),
		writeStatus(model.JobStatus{
			JobID:  "job-1",
			Status: model.StatusCompleted,
			Result: &model.DetectionResult{Status: model.StatusCompleted, RoomCount: 2},
		}),
	})
	defer server.Close()

	status, err := fastPoller(server.URL).Poll(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status.Status != model.StatusCompleted {
		t.Errorf("Expected '%s', got '%s'", model.StatusCompleted, status.Status)
	}
	if status.Result == nil || status.Result.RoomCount != 2 {
		t.Error("Expected result payload")
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 polls, got %d", calls.Load())
	}
}

func TestPollStopsOnFailed(t *testing.T) {
	server, _ := statusServer(t, []func(w http.ResponseWriter){
		writeStatus(model.JobStatus{JobID: "job-1", Status: model.StatusProcessing}),
		writeStatus(model.JobStatus{JobID: "job-1", Status: model.StatusFailed, Error: "model error"}),
	})
	defer server.Close()

	status, err := fastPoller(server.URL).Poll(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status.Status != model.StatusFailed {
		t.Errorf("Expected '%s', got '%s'", model.StatusFailed, status.Status)
	}
}

func TestPollNotFoundStopsImmediately(t *testing.T) {
	server, calls := statusServer(t, []func(w http.ResponseWriter){
		func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(model.JobStatus{JobID: "job-1", Status: model.StatusNotFound})
		},
	})
	defer server.Close()

	_, err := fastPoller(server.URL).Poll(context.Background(), "job-1")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("Expected ErrJobNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected a single poll, got %d", calls.Load())
	}
}

func TestPollRetriesTransientErrors(t *testing.T) {
	server, calls := statusServer(t, []func(w http.ResponseWriter){
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusBadGateway) },
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusServiceUnavailable) },
		writeStatus(model.JobStatus{JobID: "job-1", Status: model.StatusCompleted}),
	})
	defer server.Close()

	status, err := fastPoller(server.URL).Poll(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status.Status != model.StatusCompleted {
		t.Errorf("Expected '%s', got '%s'", model.StatusCompleted, status.Status)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 polls, got %d", calls.Load())
	}
}

func TestPollGivesUpAfterMaxRetries(t *testing.T) {
	server, _ := statusServer(t, []func(w http.ResponseWriter){
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) },
	})
	defer server.Close()

	p := fastPoller(server.URL)
	p.MaxRetries = 2

	_, err := p.Poll(context.Background(), "job-1")
	if err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
}

func TestPollContextCancellation(t *testing.T) {
	server, _ := statusServer(t, []func(w http.ResponseWriter){
		writeStatus(model.JobStatus{JobID: "job-1", Status: model.StatusProcessing}),
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())

	p := fastPoller(server.URL)
	p.Interval = time.Hour // Never completes without cancellation

	done := make(chan error, 1)
	go func() {
		_, err := p.Poll(ctx, "job-1")
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Poll did not stop after cancellation")
	}
}
