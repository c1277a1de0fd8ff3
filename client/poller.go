// Package client polls the status endpoint until a job reaches a terminal
// state. It is the Go counterpart of the web app's polling hook.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roomscan/backend/model"
)

// ErrJobNotFound is returned when the server reports the job id does not
// exist. It is definitive: polling stops immediately.
var ErrJobNotFound = errors.New("job not found")

const (
	defaultInterval   = 2 * time.Second
	defaultMaxRetries = 5
	maxBackoff        = 30 * time.Second
)

// Poller repeatedly queries the status endpoint on a fixed interval, with
// bounded exponential backoff on transient errors
type Poller struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Interval   time.Duration
	MaxRetries int // consecutive transient failures before giving up
}

func New(baseURL, token string) *Poller {
	return &Poller{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Interval:   defaultInterval,
		MaxRetries: defaultMaxRetries,
	}
}

// Status performs a single status query
func (p *Poller) Status(ctx context.Context, jobID string) (*model.JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/status/%s", p.BaseURL, jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrJobNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var status model.JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}

	return &status, nil
}

// Poll queries the status endpoint on the configured interval until the job
// reaches a terminal status. Transient errors back off exponentially up to
// MaxRetries consecutive failures; a definitive not-found stops immediately;
// cancelling the context stops the loop.
func (p *Poller) Poll(ctx context.Context, jobID string) (*model.JobStatus, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	retries := 0
	backoff := interval

	for {
		status, err := p.Status(ctx, jobID)
		switch {
		case errors.Is(err, ErrJobNotFound):
			return nil, ErrJobNotFound
		case err != nil:
			retries++
			if retries > p.MaxRetries {
				return nil, fmt.Errorf("giving up after %d consecutive failures: %w", retries, err)
			}
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		retries = 0
		backoff = interval

		if model.IsTerminal(status.Status) {
			return status, nil
		}

		if err := sleepCtx(ctx, interval); err != nil {
			return nil, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
