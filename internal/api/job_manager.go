package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ByteCodeVikash/lead-scraper/internal/config"
	"github.com/ByteCodeVikash/lead-scraper/internal/resolver"
	"github.com/ByteCodeVikash/lead-scraper/internal/storage"
	"github.com/ByteCodeVikash/lead-scraper/pkg/types"
)

// ErrMaxConcurrency signals that the global job limit has been reached.
var ErrMaxConcurrency = errors.New("maximum concurrent jobs reached")

// CompanyResolver is the per-job resolution engine.
type CompanyResolver interface {
	Resolve(ctx context.Context, input string) types.ResolutionResult
}

// ResolverFactory builds a resolver for one job's effective config.
type ResolverFactory func(cfg config.Config, logger *slog.Logger) (CompanyResolver, error)

// JobManager coordinates resolution job lifecycles keyed by job identifier.
type JobManager struct {
	mu             sync.RWMutex
	jobs           map[string]*Job
	baseConfig     config.Config
	maxConcurrency int
	running        int
	rootCtx        context.Context
	logger         *slog.Logger
	store          storage.ResultStore
	newResolver    ResolverFactory
}

// ManagerOption customises a JobManager.
type ManagerOption func(*JobManager)

// WithResolverFactory replaces how per-job resolvers are built.
func WithResolverFactory(factory ResolverFactory) ManagerOption {
	return func(m *JobManager) { m.newResolver = factory }
}

// WithResultStore persists each finished resolution.
func WithResultStore(store storage.ResultStore) ManagerOption {
	return func(m *JobManager) { m.store = store }
}

// NewJobManager constructs a manager with the provided defaults.
func NewJobManager(base config.Config, rootCtx context.Context, logger *slog.Logger, opts ...ManagerOption) *JobManager {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	maxConcurrency := base.API.MaxConcurrentJobs
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	m := &JobManager{
		jobs:           make(map[string]*Job),
		baseConfig:     deepCopyConfig(base),
		maxConcurrency: maxConcurrency,
		rootCtx:        rootCtx,
		logger:         logger,
	}
	m.newResolver = func(cfg config.Config, lg *slog.Logger) (CompanyResolver, error) {
		return resolver.New(cfg, lg)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartJob validates the request, materialises a config, and launches the
// job's worker pool.
func (m *JobManager) StartJob(req CreateJobRequest) (*Job, error) {
	identifiers := make([]string, 0, len(req.Companies))
	for _, company := range req.Companies {
		if trimmed := strings.TrimSpace(company); trimmed != "" {
			identifiers = append(identifiers, trimmed)
		}
	}
	if len(identifiers) == 0 {
		return nil, fmt.Errorf("companies must include at least one identifier")
	}

	cfg, err := m.buildConfig(req)
	if err != nil {
		return nil, err
	}

	engine, err := m.newResolver(cfg, m.logger)
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}

	jobID := generateJobID()
	job := newJob(jobID, m, identifiers)

	m.mu.Lock()
	if m.running >= m.maxConcurrency {
		m.mu.Unlock()
		return nil, ErrMaxConcurrency
	}
	m.running++
	m.jobs[jobID] = job
	m.mu.Unlock()

	job.start(m.rootCtx, cfg, engine)
	return job, nil
}

// ListJobs captures current summaries for all jobs.
func (m *JobManager) ListJobs() []JobSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	summaries := make([]JobSummary, 0, len(m.jobs))
	for _, job := range m.jobs {
		summaries = append(summaries, job.Snapshot())
	}
	return summaries
}

// GetJob returns the backing job by id.
func (m *JobManager) GetJob(id string) (*Job, bool) {
	id = strings.TrimSpace(id)
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	return job, ok
}

// GetJobDetail captures the latest summary, config, and results for a job.
func (m *JobManager) GetJobDetail(id string) (JobDetail, bool) {
	job, ok := m.GetJob(id)
	if !ok {
		return JobDetail{}, false
	}
	return JobDetail{
		Job:     job.Snapshot(),
		Config:  job.ConfigSnapshot(),
		Results: job.Results(),
	}, true
}

// CancelJob requests cancellation of a running job.
func (m *JobManager) CancelJob(id string) error {
	job, ok := m.GetJob(id)
	if !ok {
		return fmt.Errorf("job %q not found", id)
	}
	if !job.Cancel("cancel requested via API") {
		return fmt.Errorf("job %q not running", id)
	}
	return nil
}

// Shutdown stops all active jobs.
func (m *JobManager) Shutdown() {
	m.mu.RLock()
	snapshot := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		snapshot = append(snapshot, job)
	}
	m.mu.RUnlock()

	for _, job := range snapshot {
		job.Cancel("manager shutdown")
	}
}

func (m *JobManager) buildConfig(req CreateJobRequest) (config.Config, error) {
	cfg := deepCopyConfig(m.baseConfig)

	if req.MaxPages != nil && *req.MaxPages > 0 {
		cfg.Resolve.MaxPagesPerDomain = *req.MaxPages
	}
	if len(req.EnabledSources) > 0 {
		cfg.Resolve.EnabledSources = append([]string(nil), req.EnabledSources...)
	}
	if region := strings.TrimSpace(req.DefaultRegion); region != "" {
		cfg.Resolve.DefaultRegion = strings.ToUpper(region)
	}
	if req.RespectRobots != nil {
		cfg.Robots.Respect = *req.RespectRobots
	}
	if req.RenderPages != nil {
		cfg.Rendering.Enabled = *req.RenderPages
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (m *JobManager) notifyCompletion() {
	m.mu.Lock()
	if m.running > 0 {
		m.running--
	}
	m.mu.Unlock()
}

// Job tracks the lifecycle and state of one batch of resolutions.
type Job struct {
	id string

	mu          sync.Mutex
	status      JobStatus
	identifiers []string
	results     []*types.ResolutionResult
	completed   int
	lastInput   string
	createdAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time
	message     string
	lastError   string
	config      config.Config

	cancel context.CancelFunc

	subscribers map[chan SSEEvent]struct{}
	subMu       sync.RWMutex

	manager *JobManager
}

func newJob(id string, manager *JobManager, identifiers []string) *Job {
	return &Job{
		id:          id,
		status:      JobStatusPending,
		identifiers: identifiers,
		results:     make([]*types.ResolutionResult, len(identifiers)),
		createdAt:   time.Now(),
		subscribers: make(map[chan SSEEvent]struct{}),
		manager:     manager,
		config:      deepCopyConfig(manager.baseConfig),
	}
}

func (j *Job) start(parentCtx context.Context, cfg config.Config, engine CompanyResolver) {
	ctx := parentCtx
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)

	started := time.Now()
	j.mu.Lock()
	j.status = JobStatusRunning
	j.startedAt = &started
	j.message = "running"
	j.config = cfg
	j.cancel = cancel
	j.mu.Unlock()

	j.broadcast("job_started", nil)

	workers := cfg.API.JobConcurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(j.identifiers) {
		workers = len(j.identifiers)
	}

	go func() {
		indexes := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range indexes {
					if runCtx.Err() != nil {
						continue
					}
					result := engine.Resolve(runCtx, j.identifiers[idx])
					j.record(idx, result)
				}
			}()
		}
		for idx := range j.identifiers {
			indexes <- idx
		}
		close(indexes)
		wg.Wait()
		j.handleCompletion(runCtx.Err())
	}()
}

// record stores one finished resolution, persists it, and notifies
// subscribers.
func (j *Job) record(idx int, result types.ResolutionResult) {
	j.mu.Lock()
	copyResult := result
	j.results[idx] = &copyResult
	j.completed++
	j.lastInput = result.OriginalInput
	completed := j.completed
	total := len(j.identifiers)
	j.mu.Unlock()

	if store := j.manager.store; store != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.SaveResult(saveCtx, j.id, result); err != nil {
			j.manager.logger.Warn("persist result failed", "job_id", j.id, "input", result.OriginalInput, "error", err)
		}
		cancel()
	}

	j.broadcast("progress", &ProgressEvent{
		Input:     result.OriginalInput,
		Status:    result.ExtractionStatus,
		Completed: completed,
		Total:     total,
	})
}

func (j *Job) handleCompletion(err error) {
	now := time.Now()
	j.mu.Lock()
	status := JobStatusCompleted
	message := "completed"
	errorText := ""
	switch {
	case errors.Is(err, context.Canceled):
		status = JobStatusCancelled
		message = "cancelled"
	case err != nil:
		status = JobStatusFailed
		message = "failed"
		errorText = err.Error()
	}
	j.status = status
	j.completedAt = &now
	j.message = message
	j.lastError = errorText
	j.cancel = nil
	j.mu.Unlock()

	eventType := "job_completed"
	switch status {
	case JobStatusCancelled:
		eventType = "job_cancelled"
	case JobStatusFailed:
		eventType = "job_failed"
	}
	j.broadcast(eventType, nil)
	j.manager.notifyCompletion()
}

// Cancel attempts to stop the running job.
func (j *Job) Cancel(reason string) bool {
	j.mu.Lock()
	if j.status != JobStatusRunning || j.cancel == nil {
		j.mu.Unlock()
		return false
	}
	j.status = JobStatusCancelling
	j.message = reason
	cancel := j.cancel
	j.mu.Unlock()
	j.broadcast("job_cancelling", nil)
	cancel()
	return true
}

// Snapshot returns a copy of the public job state.
func (j *Job) Snapshot() JobSummary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshotLocked()
}

// ConfigSnapshot returns a defensive copy of the job config.
func (j *Job) ConfigSnapshot() config.Config {
	j.mu.Lock()
	defer j.mu.Unlock()
	return deepCopyConfig(j.config)
}

// Results returns the finished resolutions in input order. Identifiers
// still pending (or skipped by cancellation) are omitted.
func (j *Job) Results() []types.ResolutionResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]types.ResolutionResult, 0, len(j.results))
	for _, result := range j.results {
		if result != nil {
			out = append(out, *result)
		}
	}
	return out
}

func (j *Job) snapshotLocked() JobSummary {
	summary := JobSummary{
		JobID:     j.id,
		Status:    j.status,
		Total:     len(j.identifiers),
		Completed: j.completed,
		LastInput: j.lastInput,
		CreatedAt: j.createdAt,
		Message:   j.message,
		Error:     j.lastError,
	}
	if j.startedAt != nil {
		started := *j.startedAt
		summary.StartedAt = &started
	}
	if j.completedAt != nil {
		completed := *j.completedAt
		summary.CompletedAt = &completed
	}
	return summary
}

// Subscribe registers an SSE subscriber for the job.
func (j *Job) Subscribe() (<-chan SSEEvent, func()) {
	ch := make(chan SSEEvent, 16)

	j.subMu.Lock()
	j.subscribers[ch] = struct{}{}
	j.subMu.Unlock()

	initial := SSEEvent{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Job:       j.Snapshot(),
	}
	select {
	case ch <- initial:
	default:
	}

	cancel := func() {
		j.subMu.Lock()
		if _, ok := j.subscribers[ch]; ok {
			delete(j.subscribers, ch)
			close(ch)
		}
		j.subMu.Unlock()
	}
	return ch, cancel
}

func (j *Job) broadcast(eventType string, progress *ProgressEvent) {
	envelope := SSEEvent{
		Type:      eventType,
		Timestamp: time.Now(),
		Job:       j.Snapshot(),
	}
	if progress != nil {
		copyProgress := *progress
		envelope.Progress = &copyProgress
	}

	j.subMu.RLock()
	defer j.subMu.RUnlock()
	for ch := range j.subscribers {
		select {
		case ch <- envelope:
		default:
		}
	}
}

func deepCopyConfig(base config.Config) config.Config {
	cfg := base

	cfg.Resolve.EnabledSources = append([]string(nil), base.Resolve.EnabledSources...)
	cfg.Robots.Overrides = append([]string(nil), base.Robots.Overrides...)

	if base.Fetch.Headers != nil {
		cfg.Fetch.Headers = make(map[string]string, len(base.Fetch.Headers))
		for k, v := range base.Fetch.Headers {
			cfg.Fetch.Headers[k] = v
		}
	} else {
		cfg.Fetch.Headers = nil
	}

	return cfg
}

func generateJobID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("job-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
