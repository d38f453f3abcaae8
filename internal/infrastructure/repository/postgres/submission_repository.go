// Package postgres persists intake records and terminal extraction results.
// Result writes run inside one transaction under the persistence retry
// policy; the ACCEPT decision taken upstream is never re-litigated here.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/meridianbio/labintake/internal/core/domain"
	"github.com/meridianbio/labintake/internal/infrastructure/resilience"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

type SubmissionRepository struct {
	db   *sql.DB
	exec *resilience.Executor
}

func NewSubmissionRepository(db *sql.DB, logger *slog.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:   db,
		exec: resilience.NewExecutor(resilience.PersistenceConfig(), logger),
	}
}

func (r *SubmissionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	source_document TEXT NOT NULL,
	storage_path TEXT NOT NULL DEFAULT '',
	mime_type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS extraction_results (
	submission_id TEXT PRIMARY KEY REFERENCES submissions(id),
	source_document TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	data JSONB,
	missing_fields JSONB NOT NULL DEFAULT '[]'::jsonb,
	warnings JSONB NOT NULL DEFAULT '[]'::jsonb,
	attempts INTEGER NOT NULL,
	human_reviewed BOOLEAN NOT NULL DEFAULT FALSE,
	processing_ms BIGINT NOT NULL DEFAULT 0,
	completed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) CreateSubmission(ctx context.Context, sub *domain.Submission) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO submissions (id, source_document, storage_path, mime_type, status, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		sub.ID, sub.SourceDocument, sub.StoragePath, sub.MimeType,
		string(sub.Status), sub.Error, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetSubmission(ctx context.Context, id string) (*domain.Submission, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, source_document, storage_path, mime_type, status, error_message, created_at, updated_at
FROM submissions
WHERE id = $1
`, id)

	var sub domain.Submission
	var status string
	err := row.Scan(
		&sub.ID, &sub.SourceDocument, &sub.StoragePath, &sub.MimeType,
		&status, &sub.Error, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get submission", fmt.Errorf("submission %s", id))
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	sub.Status = domain.SubmissionStatus(status)
	return &sub, nil
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE submissions
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update submission status", fmt.Errorf("submission %s", id))
	}
	return nil
}

// SaveResult upserts the result and stamps the intake record's terminal
// status in the same transaction, retried under the persistence policy.
func (r *SubmissionRepository) SaveResult(ctx context.Context, result *domain.ExtractionResult) error {
	return r.exec.Execute(ctx, "postgres.save_result", func(ctx context.Context) error {
		return r.saveResultTx(ctx, result)
	}, classifyDBError)
}

func (r *SubmissionRepository) saveResultTx(ctx context.Context, result *domain.ExtractionResult) error {
	dataJSON, err := json.Marshal(result.Data)
	if err != nil {
		return fmt.Errorf("marshal result data: %w", err)
	}
	missingJSON, err := json.Marshal(result.MissingFields)
	if err != nil {
		return fmt.Errorf("marshal missing fields: %w", err)
	}
	warningsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin result tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	status := domain.StatusCompleted
	if !result.Success {
		status = domain.StatusFailed
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO submissions (id, source_document, status, error_message, created_at, updated_at)
VALUES ($1,$2,$3,'',$4,$4)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
`, result.SubmissionID, result.SourceDocument, string(status), now); err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO extraction_results (
	submission_id, source_document, success, confidence, data, missing_fields, warnings,
	attempts, human_reviewed, processing_ms, completed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (submission_id) DO UPDATE SET
	success = EXCLUDED.success,
	confidence = EXCLUDED.confidence,
	data = EXCLUDED.data,
	missing_fields = EXCLUDED.missing_fields,
	warnings = EXCLUDED.warnings,
	attempts = EXCLUDED.attempts,
	human_reviewed = EXCLUDED.human_reviewed,
	processing_ms = EXCLUDED.processing_ms,
	completed_at = EXCLUDED.completed_at
`,
		result.SubmissionID, result.SourceDocument, result.Success, result.ConfidenceScore,
		dataJSON, missingJSON, warningsJSON, result.Attempts, result.HumanReviewed,
		result.ProcessingTime.Milliseconds(), result.CompletedAt,
	); err != nil {
		return fmt.Errorf("upsert extraction result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result tx: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetResult(ctx context.Context, submissionID string) (*domain.ExtractionResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT submission_id, source_document, success, confidence, data, missing_fields, warnings,
	attempts, human_reviewed, processing_ms, completed_at
FROM extraction_results
WHERE submission_id = $1
`, submissionID)

	var result domain.ExtractionResult
	var dataRaw, missingRaw, warningsRaw []byte
	var processingMS int64

	err := row.Scan(
		&result.SubmissionID, &result.SourceDocument, &result.Success, &result.ConfidenceScore,
		&dataRaw, &missingRaw, &warningsRaw, &result.Attempts, &result.HumanReviewed,
		&processingMS, &result.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get result", fmt.Errorf("submission %s", submissionID))
		}
		return nil, fmt.Errorf("scan result: %w", err)
	}

	if len(dataRaw) > 0 && string(dataRaw) != "null" {
		result.Data = &domain.SubmissionData{}
		if err := json.Unmarshal(dataRaw, result.Data); err != nil {
			return nil, fmt.Errorf("unmarshal result data: %w", err)
		}
	}
	if err := json.Unmarshal(missingRaw, &result.MissingFields); err != nil {
		return nil, fmt.Errorf("unmarshal missing fields: %w", err)
	}
	if err := json.Unmarshal(warningsRaw, &result.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	result.ProcessingTime = time.Duration(processingMS) * time.Millisecond
	return &result, nil
}

// classifyDBError treats everything except caller cancellation as transient.
// The terminal result has nowhere else to go, so the write is worth waiting
// out a failover for.
func classifyDBError(err error) resilience.Outcome {
	if err == nil {
		return resilience.Outcome{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retryable: false, CountsAsFailure: false}
	}
	return resilience.Outcome{Retryable: true, CountsAsFailure: true}
}
