package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/meridianbio/labintake/internal/core/domain"
	"github.com/meridianbio/labintake/internal/infrastructure/resilience"
)

func newRepoWithMock(t *testing.T) (*SubmissionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	repo := &SubmissionRepository{
		db: db,
		exec: resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts:    3,
			RetryInitialBackoff: time.Millisecond,
			RetryMaxBackoff:     time.Millisecond,
			RetryMultiplier:     2,
			BreakerEnabled:      false,
		}, nil),
	}
	return repo, mock, func() { _ = db.Close() }
}

func sampleResult() *domain.ExtractionResult {
	return &domain.ExtractionResult{
		SubmissionID:    "sub-1",
		SourceDocument:  "form.pdf",
		Success:         true,
		ConfidenceScore: 0.91,
		Data: &domain.SubmissionData{
			Sample: &domain.Sample{SampleID: "SAMPLE-001"},
		},
		MissingFields:  []string{},
		Warnings:       []string{},
		Attempts:       1,
		ProcessingTime: 1200 * time.Millisecond,
		CompletedAt:    time.Now().UTC(),
	}
}

func expectSaveResult(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO submissions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO extraction_results").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestSaveResultWritesOneTransaction(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	expectSaveResult(mock)

	if err := repo.SaveResult(context.Background(), sampleResult()); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultRetriesTransientFailure(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))
	expectSaveResult(mock)

	if err := repo.SaveResult(context.Background(), sampleResult()); err != nil {
		t.Fatalf("SaveResult() must recover on retry, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultGivesUpAfterBoundedRetries(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	for i := 0; i < 3; i++ {
		mock.ExpectBegin().WillReturnError(errors.New("connection reset"))
	}

	err := repo.SaveResult(context.Background(), sampleResult())
	if err == nil {
		t.Fatalf("expected failure after retries exhausted")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultRollsBackOnResultInsertFailure(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO submissions").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO extraction_results").
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()
	}

	if err := repo.SaveResult(context.Background(), sampleResult()); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetSubmissionReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, source_document").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSubmission(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE submissions").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetResultRoundTrip(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	completed := time.Now().UTC().Truncate(time.Second)
	rows := sqlmock.NewRows([]string{
		"submission_id", "source_document", "success", "confidence", "data",
		"missing_fields", "warnings", "attempts", "human_reviewed", "processing_ms", "completed_at",
	}).AddRow(
		"sub-1", "form.pdf", true, 0.91,
		[]byte(`{"sample":{"sample_id":"SAMPLE-001"}}`),
		[]byte(`["administrative.phone"]`), []byte(`[]`),
		2, false, int64(1200), completed,
	)
	mock.ExpectQuery("SELECT submission_id, source_document").
		WithArgs("sub-1").
		WillReturnRows(rows)

	result, err := repo.GetResult(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("GetResult() error = %v", err)
	}
	if result.Data == nil || result.Data.Sample.SampleID != "SAMPLE-001" {
		t.Fatalf("unexpected data: %+v", result.Data)
	}
	if result.ProcessingTime != 1200*time.Millisecond {
		t.Fatalf("unexpected processing time: %s", result.ProcessingTime)
	}
	if len(result.MissingFields) != 1 {
		t.Fatalf("unexpected missing fields: %v", result.MissingFields)
	}
}
