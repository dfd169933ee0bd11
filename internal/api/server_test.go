package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ByteCodeVikash/lead-scraper/internal/config"
	"github.com/ByteCodeVikash/lead-scraper/pkg/types"
)

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, input string) types.ResolutionResult {
	return types.ResolutionResult{
		OriginalInput:    input,
		ExtractionStatus: types.StatusFoundOnWebsite,
		PhoneNumbers:     []string{"+16502530000"},
		Emails:           []string{"info@example.com"},
		ConfidenceScore:  100,
	}
}

func newTestManager(t *testing.T) *JobManager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewJobManager(config.Default(), context.Background(), logger,
		WithResolverFactory(func(config.Config, *slog.Logger) (CompanyResolver, error) {
			return stubResolver{}, nil
		}))
}

func waitForStatus(t *testing.T, job *Job, want JobStatus) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if job.Snapshot().Status == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("job never reached status %q (last %q)", want, job.Snapshot().Status)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestServerHandlers(t *testing.T) {
	manager := newTestManager(t)
	server := NewServer(manager)

	assertRoute(t, server, http.MethodGet, "/health", http.StatusOK, "application/json")
	assertRoute(t, server, http.MethodGet, "/api/jobs", http.StatusOK, "application/json")
	assertRoute(t, server, http.MethodGet, "/api/jobs/missing", http.StatusNotFound, "")
	assertRoute(t, server, http.MethodDelete, "/api/jobs", http.StatusMethodNotAllowed, "")
}

func TestCreateJobAndFetchResults(t *testing.T) {
	manager := newTestManager(t)
	server := NewServer(manager)

	body := strings.NewReader(`{"companies": ["Acme Widgets", "example.com"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body=%s)", rr.Code, rr.Body.String())
	}
	var summary JobSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Total != 2 {
		t.Fatalf("expected 2 companies, got %d", summary.Total)
	}

	job, ok := manager.GetJob(summary.JobID)
	if !ok {
		t.Fatal("job not registered")
	}
	waitForStatus(t, job, JobStatusCompleted)

	req = httptest.NewRequest(http.MethodGet, "/api/jobs/"+summary.JobID, nil)
	rr = httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var detail JobDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(detail.Results))
	}
	if detail.Results[0].OriginalInput != "Acme Widgets" {
		t.Fatalf("expected input order preserved, got %q", detail.Results[0].OriginalInput)
	}
}

func TestCreateJobRejectsEmptyCompanies(t *testing.T) {
	manager := newTestManager(t)
	server := NewServer(manager)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{"companies": ["  "]}`))
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestExportJobCSV(t *testing.T) {
	manager := newTestManager(t)
	server := NewServer(manager)

	job, err := manager.StartJob(CreateJobRequest{Companies: []string{"Acme Widgets"}})
	if err != nil {
		t.Fatalf("start job: %v", err)
	}
	waitForStatus(t, job, JobStatusCompleted)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.Snapshot().JobID+"/export", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "Acme Widgets") {
		t.Fatalf("expected exported row, got %q", rr.Body.String())
	}
}

func TestMaxConcurrentJobs(t *testing.T) {
	cfg := config.Default()
	cfg.API.MaxConcurrentJobs = 1

	release := make(chan struct{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := NewJobManager(cfg, context.Background(), logger,
		WithResolverFactory(func(config.Config, *slog.Logger) (CompanyResolver, error) {
			return blockingResolver{release: release}, nil
		}))
	defer close(release)

	if _, err := manager.StartJob(CreateJobRequest{Companies: []string{"One"}}); err != nil {
		t.Fatalf("first job: %v", err)
	}
	if _, err := manager.StartJob(CreateJobRequest{Companies: []string{"Two"}}); err != ErrMaxConcurrency {
		t.Fatalf("expected ErrMaxConcurrency, got %v", err)
	}
}

type blockingResolver struct {
	release chan struct{}
}

func (b blockingResolver) Resolve(ctx context.Context, input string) types.ResolutionResult {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return types.ResolutionResult{OriginalInput: input, ExtractionStatus: types.StatusNotFound}
}

func TestCancelJob(t *testing.T) {
	release := make(chan struct{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := NewJobManager(config.Default(), context.Background(), logger,
		WithResolverFactory(func(config.Config, *slog.Logger) (CompanyResolver, error) {
			return blockingResolver{release: release}, nil
		}))
	defer close(release)

	job, err := manager.StartJob(CreateJobRequest{Companies: []string{"Acme"}})
	if err != nil {
		t.Fatalf("start job: %v", err)
	}
	jobID := job.Snapshot().JobID

	if err := manager.CancelJob(jobID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitForStatus(t, job, JobStatusCancelled)
}

func assertRoute(t *testing.T, h http.Handler, method, path string, wantStatus int, wantContentType string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d (body=%s)", method, path, wantStatus, rr.Code, rr.Body.String())
	}
	if wantContentType != "" {
		if got := rr.Header().Get("Content-Type"); got != wantContentType {
			t.Fatalf("%s %s: expected content-type %s, got %s", method, path, wantContentType, got)
		}
	}
}
