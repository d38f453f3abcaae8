// Package export renders batch processing results as an XLSX report for lab
// operations staff.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/meridianbio/labintake/internal/core/domain"
)

const sheetName = "Submissions"

// BatchReportXLSX returns one workbook row per processed document plus a
// summary header.
func BatchReportXLSX(results []*domain.ExtractionResult) ([]byte, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{
		"Submission ID",
		"Source Document",
		"Outcome",
		"Confidence",
		"Attempts",
		"Human Reviewed",
		"Submitter Email",
		"Sample ID",
		"Platform",
		"Missing Fields",
		"Warnings",
		"Processing (s)",
		"Completed At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	row := 2
	accepted := 0
	for _, result := range results {
		if result == nil {
			continue
		}
		if result.Success {
			accepted++
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}

		write(1, result.SubmissionID)
		write(2, result.SourceDocument)
		write(3, outcomeLabel(result))
		write(4, result.ConfidenceScore)
		write(5, result.Attempts)
		write(6, result.HumanReviewed)
		if result.Data != nil {
			write(7, result.Data.Field(domain.CategoryAdministrative, "submitter_email"))
			write(8, result.Data.Field(domain.CategorySample, "sample_id"))
			write(9, result.Data.Field(domain.CategorySequencing, "platform"))
		}
		write(10, strings.Join(result.MissingFields, "; "))
		write(11, strings.Join(result.Warnings, "; "))
		write(12, result.ProcessingTime.Seconds())
		if !result.CompletedAt.IsZero() {
			write(13, result.CompletedAt.Format("2006-01-02 15:04:05"))
		}
		row++
	}

	summary := fmt.Sprintf("%d documents, %d accepted, %d failed", len(results), accepted, len(results)-accepted)
	summaryCell, _ := excelize.CoordinatesToCellName(1, row+1)
	_ = f.SetCellValue(sheetName, summaryCell, summary)

	_ = f.SetColWidth(sheetName, "A", "B", 30)
	_ = f.SetColWidth(sheetName, "C", "F", 14)
	_ = f.SetColWidth(sheetName, "G", "I", 24)
	_ = f.SetColWidth(sheetName, "J", "K", 48)
	_ = f.SetColWidth(sheetName, "L", "M", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func outcomeLabel(result *domain.ExtractionResult) string {
	switch {
	case result.Success && result.HumanReviewed:
		return "accepted (reviewed)"
	case result.Success:
		return "accepted"
	default:
		return "failed"
	}
}
