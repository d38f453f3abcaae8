package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridianbio/labintake/internal/core/domain"
	"github.com/meridianbio/labintake/internal/core/ports"
)

// IngestSubmissionUseCase accepts an uploaded document, stores the original,
// records the intake and enqueues it for asynchronous processing.
type IngestSubmissionUseCase struct {
	store   ports.SubmissionStore
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestSubmissionUseCase(
	store ports.SubmissionStore,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestSubmissionUseCase {
	return &IngestSubmissionUseCase{
		store:   store,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestSubmissionUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Submission, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	sub := &domain.Submission{
		ID:             id,
		SourceDocument: filename,
		StoragePath:    storageKey,
		MimeType:       mimeType,
		Status:         domain.StatusReceived,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.store.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission record: %w", err)
	}

	if err := uc.queue.PublishSubmissionReceived(ctx, sub.ID); err != nil {
		return nil, fmt.Errorf("publish intake event: %w", err)
	}

	return sub, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
