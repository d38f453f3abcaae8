package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meridianbio/labintake/internal/bootstrap"
	"github.com/meridianbio/labintake/internal/core/domain"
	"github.com/meridianbio/labintake/internal/core/usecase"
	"github.com/meridianbio/labintake/internal/export"
	"github.com/meridianbio/labintake/internal/observability/logging"
)

var (
	processReport  string
	processBatch   int
	processMode    string
	processJSONOut bool
)

var processCmd = &cobra.Command{
	Use:   "process [files or directories...]",
	Short: "Run submission documents through the extraction pipeline",
	Long:  "Processes each document locally without the API or queue. Directories are expanded to their supported documents. Results go to stdout; --report additionally writes an XLSX summary.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := logging.NewJSONLogger("cli", cfg.LogLevel)

		paths, err := collectDocuments(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no supported documents found in %v", args)
		}

		app, err := bootstrap.NewOffline(cfg, logger, "cli")
		if err != nil {
			return err
		}

		batchSize := processBatch
		if batchSize <= 0 {
			batchSize = cfg.BatchSize
		}

		results, runErr := app.Workflow.ProcessBatch(ctx, paths, batchSize, domain.ProcessOptions{
			ExtractionMode: processMode,
		})

		if err := printResults(cmd, results); err != nil {
			return err
		}

		if processReport != "" {
			data, err := export.BatchReportXLSX(results)
			if err != nil {
				return fmt.Errorf("build report: %w", err)
			}
			if err := os.WriteFile(processReport, data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			logger.Info("report written", "path", processReport, "documents", len(results))
		}

		if runErr != nil {
			return fmt.Errorf("batch interrupted: %w", runErr)
		}
		for _, r := range results {
			if !r.Success {
				return fmt.Errorf("%d of %d documents did not pass", countFailed(results), len(results))
			}
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processReport, "report", "", "write an XLSX batch report to this path")
	processCmd.Flags().IntVar(&processBatch, "batch", 0, "max documents processed concurrently (default from config)")
	processCmd.Flags().StringVar(&processMode, "mode", "", "extraction mode hint passed to the model")
	processCmd.Flags().BoolVar(&processJSONOut, "json", false, "print full results as JSON instead of a summary line per document")
	rootCmd.AddCommand(processCmd)
}

func collectDocuments(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			// Explicit files go through as-is and fail validation visibly
			// if unsupported.
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			full := filepath.Join(arg, entry.Name())
			if usecase.IsSupportedDocument(full) {
				paths = append(paths, full)
			}
		}
	}
	return paths, nil
}

func printResults(cmd *cobra.Command, results []*domain.ExtractionResult) error {
	if processJSONOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		status := "FAILED"
		if r.Success {
			status = "OK"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s confidence=%.2f attempts=%d", status, r.SourceDocument, r.ConfidenceScore, r.Attempts)
		if len(r.MissingFields) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), " missing=%d", len(r.MissingFields))
		}
		if len(r.Warnings) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), " warnings=%d", len(r.Warnings))
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func countFailed(results []*domain.ExtractionResult) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}
