package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hpungsan/termplan/internal/course"
)

// maxResponseBytes bounds how much of a generator response is read.
const maxResponseBytes = 4 << 20

// RemoteGenerator asks an HTTP schedule service for a plan. The service
// receives the GenerateRequest as JSON and answers with
// {"schedule": {"Fall 2025": [courses...], ...}}.
type RemoteGenerator struct {
	URL        string
	HTTPClient *http.Client
}

// NewRemoteGenerator creates a client with the given per-request timeout.
func NewRemoteGenerator(url string, timeout time.Duration) *RemoteGenerator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteGenerator{
		URL:        strings.TrimSpace(url),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type remoteResponse struct {
	Schedule map[string][]course.Course `json:"schedule"`
}

// Generate implements Generator. Terms come back ordered chronologically
// and truncated to MaxFutureTerms.
func (g *RemoteGenerator) Generate(ctx context.Context, req GenerateRequest) (Schedule, error) {
	if req.PriorCourses == nil {
		req.PriorCourses = []course.Course{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "termplan/1.0")

	resp, err := g.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out remoteResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	schedule := ScheduleFromMap(out.Schedule)
	if req.MaxFutureTerms >= 0 && len(schedule) > req.MaxFutureTerms {
		schedule = schedule[:req.MaxFutureTerms]
	}
	return schedule, nil
}
