package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridianbio/labintake/internal/bootstrap"
	"github.com/meridianbio/labintake/internal/config"
	"github.com/meridianbio/labintake/internal/core/domain"
	"github.com/meridianbio/labintake/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, "worker")
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.Pipeline.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeSubmissionReceived(ctx, func(handlerCtx context.Context, submissionID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 15*time.Minute)
		defer cancel()
		return processSubmission(processCtx, app, submissionID)
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}
}

func processSubmission(ctx context.Context, app *bootstrap.App, submissionID string) error {
	logger := app.Logger.With("submission_id", submissionID)

	sub, err := app.Store.GetSubmission(ctx, submissionID)
	if err != nil {
		logger.Error("load submission failed", "error", err)
		return err
	}
	app.Pipeline.ObserveQueueLag("worker", time.Since(sub.CreatedAt))

	if err := app.Store.UpdateStatus(ctx, submissionID, domain.StatusProcessing, ""); err != nil {
		logger.Warn("status update failed", "status", domain.StatusProcessing, "error", err)
	}

	path, err := app.Storage.Path(sub.StoragePath)
	if err != nil {
		logger.Error("resolve document path failed", "error", err)
		_ = app.Store.UpdateStatus(ctx, submissionID, domain.StatusFailed, err.Error())
		return err
	}

	app.Pipeline.StartDocument()
	result, err := app.Workflow.ProcessDocument(ctx, path, domain.ProcessOptions{
		SubmissionID:       submissionID,
		RequireHumanReview: app.Config.RequireHumanReview,
	})
	app.Pipeline.FinishDocument("worker", result)
	if err != nil {
		logger.Error("processing aborted", "error", err)
		_ = app.Store.UpdateStatus(ctx, submissionID, domain.StatusFailed, err.Error())
		return err
	}

	logger.Info("submission processed",
		"success", result.Success,
		"confidence", result.ConfidenceScore,
		"attempts", result.Attempts,
	)
	return nil
}
