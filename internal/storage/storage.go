package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/ByteCodeVikash/lead-scraper/internal/config"
	"github.com/ByteCodeVikash/lead-scraper/pkg/types"
)

// ResultStore persists finished resolutions.
type ResultStore interface {
	SaveResult(ctx context.Context, jobID string, result types.ResolutionResult) error
}

// SQLStore writes resolution results into a SQL database via database/sql.
type SQLStore struct {
	db          *sql.DB
	autoMigrate bool
}

// NewSQLStore initialises a SQLStore from configuration.
func NewSQLStore(cfg config.SQLConfig) (*SQLStore, error) {
	if cfg.Driver == "" || cfg.DSN == "" {
		return nil, errors.New("sql config missing driver or dsn")
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sql connection: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if cfg.CreateIfMissing && shouldAttemptCreateDatabase(cfg.Driver, err) {
			_ = db.Close()
			if err := createDatabase(ctx, cfg); err != nil {
				return nil, err
			}
			db, err = sql.Open(cfg.Driver, cfg.DSN)
			if err != nil {
				return nil, fmt.Errorf("open sql connection: %w", err)
			}
			if err := db.PingContext(ctx); err != nil {
				return nil, fmt.Errorf("ping sql connection: %w", err)
			}
		} else {
			return nil, fmt.Errorf("ping sql connection: %w", err)
		}
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime.Duration > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration)
	}
	store := &SQLStore{
		db:          db,
		autoMigrate: cfg.AutoMigrate,
	}
	if cfg.AutoMigrate {
		if err := store.ensureSchema(context.Background()); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// SaveResult upserts one resolution keyed by job and input. A result
// re-resolved within the same job replaces the earlier row.
func (s *SQLStore) SaveResult(ctx context.Context, jobID string, result types.ResolutionResult) error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.upsertResult(ctx, jobID, result); err != nil {
		if s.autoMigrate && isUndefinedTableErr(err) {
			if schemaErr := s.ensureSchema(ctx); schemaErr != nil {
				return fmt.Errorf("ensure schema: %w", schemaErr)
			}
			if retryErr := s.upsertResult(ctx, jobID, result); retryErr != nil {
				return fmt.Errorf("insert result: %w", retryErr)
			}
			return nil
		}
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *SQLStore) upsertResult(ctx context.Context, jobID string, result types.ResolutionResult) error {
	phones, err := json.Marshal(result.PhoneNumbers)
	if err != nil {
		return fmt.Errorf("encode phones: %w", err)
	}
	emails, err := json.Marshal(result.Emails)
	if err != nil {
		return fmt.Errorf("encode emails: %w", err)
	}
	social, err := json.Marshal(result.SocialLinks)
	if err != nil {
		return fmt.Errorf("encode social links: %w", err)
	}
	dataSources, err := json.Marshal(result.Sources)
	if err != nil {
		return fmt.Errorf("encode data sources: %w", err)
	}
	pageRefs, err := json.Marshal(result.PageRefs)
	if err != nil {
		return fmt.Errorf("encode page refs: %w", err)
	}

	query := `
        INSERT INTO resolution_results (
            job_id, original_input, detected_input_type, resolved_company_name,
            resolved_website_url, phone_numbers, emails, social_links,
            data_sources, extraction_status, confidence_score, notes,
            page_refs, resolved_at
        )
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        ON CONFLICT (job_id, original_input) DO UPDATE SET
            detected_input_type = EXCLUDED.detected_input_type,
            resolved_company_name = EXCLUDED.resolved_company_name,
            resolved_website_url = EXCLUDED.resolved_website_url,
            phone_numbers = EXCLUDED.phone_numbers,
            emails = EXCLUDED.emails,
            social_links = EXCLUDED.social_links,
            data_sources = EXCLUDED.data_sources,
            extraction_status = EXCLUDED.extraction_status,
            confidence_score = EXCLUDED.confidence_score,
            notes = EXCLUDED.notes,
            page_refs = EXCLUDED.page_refs,
            resolved_at = EXCLUDED.resolved_at
    `
	if _, err := s.db.ExecContext(ctx, query,
		jobID,
		result.OriginalInput,
		string(result.DetectedInputType),
		result.ResolvedCompanyName,
		result.ResolvedWebsiteURL,
		phones,
		emails,
		social,
		dataSources,
		string(result.ExtractionStatus),
		result.ConfidenceScore,
		result.Notes,
		pageRefs,
		time.Now().UTC(),
	); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying DB connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func shouldAttemptCreateDatabase(driver string, err error) bool {
	if !strings.EqualFold(driver, "postgres") {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "3D000"
	}
	return strings.Contains(strings.ToLower(err.Error()), "does not exist")
}

func createDatabase(ctx context.Context, cfg config.SQLConfig) error {
	parsed, err := url.Parse(cfg.DSN)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}
	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return errors.New("dsn missing database name")
	}
	if strings.EqualFold(dbName, "postgres") {
		return fmt.Errorf("target database %q cannot be auto-created", dbName)
	}
	parsed.Path = "/postgres"
	adminDSN := parsed.String()
	adminDB, err := sql.Open(cfg.Driver, adminDSN)
	if err != nil {
		return fmt.Errorf("connect admin database: %w", err)
	}
	defer adminDB.Close()
	if err := adminDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping admin database: %w", err)
	}
	stmt := fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName))
	if _, err := adminDB.ExecContext(ctx, stmt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "42P04" {
			return nil
		}
		return fmt.Errorf("create database %q: %w", dbName, err)
	}
	return nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil || !s.autoMigrate {
		return nil
	}
	schemaCtx := ctx
	if schemaCtx == nil || schemaCtx.Err() != nil {
		schemaCtx = context.Background()
	}
	schemaCtx, cancel := context.WithTimeout(schemaCtx, 10*time.Second)
	defer cancel()

	schema := `
        CREATE TABLE IF NOT EXISTS resolution_results (
            id BIGSERIAL PRIMARY KEY,
            job_id TEXT NOT NULL,
            original_input TEXT NOT NULL,
            detected_input_type TEXT NOT NULL,
            resolved_company_name TEXT,
            resolved_website_url TEXT,
            phone_numbers JSONB NOT NULL DEFAULT '[]',
            emails JSONB NOT NULL DEFAULT '[]',
            social_links JSONB,
            data_sources JSONB,
            extraction_status TEXT NOT NULL,
            confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
            notes TEXT,
            page_refs JSONB,
            resolved_at TIMESTAMPTZ NOT NULL,
            UNIQUE (job_id, original_input)
        )
    `
	if _, err := s.db.ExecContext(schemaCtx, schema); err != nil {
		return fmt.Errorf("create resolution_results table: %w", err)
	}
	return nil
}

func isUndefinedTableErr(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	return strings.Contains(strings.ToLower(err.Error()), "does not exist")
}
