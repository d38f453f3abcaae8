package usecase

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/meridianbio/labintake/internal/core/domain"
)

type countingExtractor struct {
	mu         sync.Mutex
	inFlight   int32
	maxSeen    int32
	calls      int32
	submission map[string]struct{}
	block      chan struct{}
}

func newCountingExtractor() *countingExtractor {
	return &countingExtractor{submission: map[string]struct{}{}}
}

func (f *countingExtractor) Extract(ctx context.Context, req domain.ExtractionRequest) (*domain.SubmissionData, int, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&f.maxSeen)
		if cur <= prev || atomic.CompareAndSwapInt32(&f.maxSeen, prev, cur) {
			break
		}
	}
	atomic.AddInt32(&f.calls, 1)

	f.mu.Lock()
	f.submission[req.SubmissionID] = struct{}{}
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}
	return completeData(), 3, nil
}

func TestProcessBatchPreservesInputOrder(t *testing.T) {
	paths := []string{
		writeTempFile(t, "a.txt", "form a"),
		writeTempFile(t, "b.txt", "form b"),
		writeTempFile(t, "c.txt", "form c"),
	}
	extractor := newCountingExtractor()
	w := newWorkflow(t, extractor, WorkflowOptions{})

	results, err := w.ProcessBatch(context.Background(), paths, 2, domain.ProcessOptions{})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, result := range results {
		if result.SourceDocument != paths[i] {
			t.Fatalf("result %d is for %q, want %q", i, result.SourceDocument, paths[i])
		}
		if !result.Success {
			t.Fatalf("result %d unexpectedly failed: %+v", i, result)
		}
	}
}

func TestProcessBatchAssignsDistinctSubmissionIDs(t *testing.T) {
	paths := []string{
		writeTempFile(t, "a.txt", "form a"),
		writeTempFile(t, "b.txt", "form b"),
		writeTempFile(t, "c.txt", "form c"),
	}
	extractor := newCountingExtractor()
	w := newWorkflow(t, extractor, WorkflowOptions{})

	// A caller-provided ID must not be shared across batch members.
	_, err := w.ProcessBatch(context.Background(), paths, 0, domain.ProcessOptions{SubmissionID: "shared"})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if len(extractor.submission) != len(paths) {
		t.Fatalf("expected %d distinct submission IDs, got %d", len(paths), len(extractor.submission))
	}
	if _, ok := extractor.submission["shared"]; ok {
		t.Fatalf("caller submission ID leaked into batch members")
	}
}

func TestProcessBatchBoundsConcurrency(t *testing.T) {
	var paths []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt", "f.txt"} {
		paths = append(paths, writeTempFile(t, name, "form"))
	}
	extractor := newCountingExtractor()
	extractor.block = make(chan struct{})
	w := newWorkflow(t, extractor, WorkflowOptions{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = w.ProcessBatch(context.Background(), paths, 2, domain.ProcessOptions{})
	}()

	// Let workers ramp up, then release them.
	for atomic.LoadInt32(&extractor.calls) < 2 {
		runtime.Gosched()
	}
	close(extractor.block)
	<-done

	if max := atomic.LoadInt32(&extractor.maxSeen); max > 2 {
		t.Fatalf("concurrency bound violated: saw %d in flight", max)
	}
}

func TestProcessBatchMixedOutcomes(t *testing.T) {
	paths := []string{
		writeTempFile(t, "good.txt", "form"),
		writeTempFile(t, "bad.xyz", "form"),
		writeTempFile(t, "good2.txt", "form"),
	}
	extractor := newCountingExtractor()
	w := newWorkflow(t, extractor, WorkflowOptions{})

	results, err := w.ProcessBatch(context.Background(), paths, 3, domain.ProcessOptions{})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if !results[0].Success || !results[2].Success {
		t.Fatalf("valid documents must succeed: %+v and %+v", results[0], results[2])
	}
	if results[1].Success {
		t.Fatalf("unsupported extension must fail within its own result")
	}
	if !strings.Contains(strings.Join(results[1].Warnings, "\n"), "unsupported file type") {
		t.Fatalf("expected validation warning, got %v", results[1].Warnings)
	}
}

func TestProcessBatchCancelledContext(t *testing.T) {
	paths := []string{
		writeTempFile(t, "a.txt", "form"),
		writeTempFile(t, "b.txt", "form"),
	}
	extractor := newCountingExtractor()
	w := newWorkflow(t, extractor, WorkflowOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := w.ProcessBatch(ctx, paths, 2, domain.ProcessOptions{})
	if err == nil {
		t.Fatalf("expected context error from cancelled batch")
	}
	if len(results) != len(paths) {
		t.Fatalf("every input still gets a result slot, got %d", len(results))
	}
	for i, result := range results {
		if result.Success {
			t.Fatalf("result %d must not succeed under cancellation", i)
		}
	}
}
