package api

import (
	"time"

	"github.com/ByteCodeVikash/lead-scraper/internal/config"
	"github.com/ByteCodeVikash/lead-scraper/pkg/types"
)

// CreateJobRequest captures the payload used to launch a resolution job.
type CreateJobRequest struct {
	Companies      []string `json:"companies"`
	MaxPages       *int     `json:"max_pages,omitempty"`
	EnabledSources []string `json:"enabled_sources,omitempty"`
	DefaultRegion  string   `json:"default_region,omitempty"`
	RespectRobots  *bool    `json:"respect_robots,omitempty"`
	RenderPages    *bool    `json:"render_pages,omitempty"`
}

// JobStatus captures the lifecycle stage of a resolution job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusRunning    JobStatus = "running"
	JobStatusCancelling JobStatus = "cancelling"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
	JobStatusFailed     JobStatus = "failed"
)

// JobSummary surfaces the high-level state for a resolution job.
type JobSummary struct {
	JobID       string     `json:"job_id"`
	Status      JobStatus  `json:"status"`
	Total       int        `json:"total_companies"`
	Completed   int        `json:"completed_companies"`
	LastInput   string     `json:"last_input,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// JobDetail extends the summary with the effective configuration and the
// results collected so far, in input order.
type JobDetail struct {
	Job     JobSummary               `json:"job"`
	Config  config.Config            `json:"config"`
	Results []types.ResolutionResult `json:"results"`
}

// ProgressEvent describes one finished resolution within a job.
type ProgressEvent struct {
	Input     string                 `json:"input"`
	Status    types.ExtractionStatus `json:"status"`
	Completed int                    `json:"completed"`
	Total     int                    `json:"total"`
}

// SSEEvent envelopes job state for Server-Sent Event clients.
type SSEEvent struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Job       JobSummary     `json:"job"`
	Progress  *ProgressEvent `json:"progress,omitempty"`
}
