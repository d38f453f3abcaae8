package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/meridianbio/labintake/internal/core/domain"
)

func TestBatchReportXLSX(t *testing.T) {
	results := []*domain.ExtractionResult{
		{
			SubmissionID:    "sub-1",
			SourceDocument:  "form-a.pdf",
			Success:         true,
			ConfidenceScore: 0.93,
			Attempts:        1,
			Data: &domain.SubmissionData{
				Administrative: &domain.Administrative{SubmitterEmail: "jane@lab.org"},
				Sample:         &domain.Sample{SampleID: "SAMPLE-001"},
				Sequencing:     &domain.Sequencing{Platform: "illumina"},
			},
			MissingFields: []string{},
			Warnings:      []string{},
			CompletedAt:   time.Now().UTC(),
		},
		{
			SubmissionID:    "sub-2",
			SourceDocument:  "form-b.pdf",
			Success:         false,
			ConfidenceScore: 0.41,
			Attempts:        3,
			MissingFields:   []string{"administrative.submitter_email"},
			Warnings:        []string{"invalid sample_id format"},
		},
	}

	raw, err := BatchReportXLSX(results)
	if err != nil {
		t.Fatalf("BatchReportXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	// Header, two result rows, spacer, summary.
	if len(rows) < 4 {
		t.Fatalf("expected header, data and summary rows, got %d", len(rows))
	}
	if rows[1][0] != "sub-1" || rows[1][2] != "accepted" {
		t.Fatalf("unexpected first data row: %v", rows[1])
	}
	if rows[2][0] != "sub-2" || rows[2][2] != "failed" {
		t.Fatalf("unexpected second data row: %v", rows[2])
	}
	if rows[1][7] != "SAMPLE-001" {
		t.Fatalf("sample id column wrong: %v", rows[1])
	}

	summary := rows[len(rows)-1][0]
	if summary != "2 documents, 1 accepted, 1 failed" {
		t.Fatalf("unexpected summary %q", summary)
	}
}

func TestBatchReportXLSXEmpty(t *testing.T) {
	raw, err := BatchReportXLSX(nil)
	if err != nil {
		t.Fatalf("BatchReportXLSX() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) < 1 {
		t.Fatalf("expected at least the header row")
	}
}
