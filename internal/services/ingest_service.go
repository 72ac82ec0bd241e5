package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fhm/internal/core"
	"fhm/internal/storage"
)

// Recorder is the slice of storage the ingest service needs.
type Recorder interface {
	CreateUpload(ctx context.Context, u storage.Upload) error
	UpdateUploadStatus(ctx context.Context, id, status, errMsg string) error
	InsertTransactions(ctx context.Context, uploadID string, txs []core.Transaction) error
}

// JobPublisher hands an upload to the async worker.
type JobPublisher interface {
	PublishIngestJob(ctx context.Context, uploadID string) error
}

// IngestService records uploads and their transactions. With a publisher
// configured the recording is deferred to the worker, otherwise it
// happens inline.
type IngestService struct {
	recorder  Recorder
	publisher JobPublisher
}

// NewIngestService creates an ingest service. publisher may be nil, in
// which case every upload is recorded inline.
func NewIngestService(recorder Recorder, publisher JobPublisher) *IngestService {
	return &IngestService{
		recorder:  recorder,
		publisher: publisher,
	}
}

// IngestUpload records one parsed upload. With a publisher the upload
// stays pending and a job is handed to the worker; without one the
// transactions are recorded inline and the upload marked completed.
func (s *IngestService) IngestUpload(ctx context.Context, filename string, payload []byte, txs []core.Transaction) (string, error) {
	id := uuid.NewString()

	upload := storage.Upload{
		ID:       id,
		Filename: filename,
		Size:     int64(len(payload)),
		Status:   storage.StatusPending,
		Payload:  payload,
	}
	if err := s.recorder.CreateUpload(ctx, upload); err != nil {
		return "", fmt.Errorf("record upload: %w", err)
	}

	if s.publisher != nil {
		err := s.publisher.PublishIngestJob(ctx, id)
		if err == nil {
			return id, nil
		}
		// The upload is already stored, so fall back to recording the
		// transactions inline rather than leaving it stuck pending.
		slog.WarnContext(ctx, "Failed to publish ingest job, recording inline",
			"upload_id", id, "error", err)
	}

	if err := s.recorder.InsertTransactions(ctx, id, txs); err != nil {
		if uerr := s.recorder.UpdateUploadStatus(ctx, id, storage.StatusFailed, err.Error()); uerr != nil {
			slog.ErrorContext(ctx, "Failed to mark upload failed", "upload_id", id, "error", uerr)
		}
		return id, fmt.Errorf("record transactions: %w", err)
	}

	if err := s.recorder.UpdateUploadStatus(ctx, id, storage.StatusCompleted, ""); err != nil {
		return id, fmt.Errorf("mark upload completed: %w", err)
	}

	slog.InfoContext(ctx, "Upload ingested inline",
		"upload_id", id,
		"filename", filename,
		"transactions", len(txs))

	return id, nil
}

// RecordFailedUpload records an upload whose payload could not be
// parsed, keeping the payload around for inspection.
func (s *IngestService) RecordFailedUpload(ctx context.Context, filename string, payload []byte, reason string) (string, error) {
	id := uuid.NewString()

	upload := storage.Upload{
		ID:       id,
		Filename: filename,
		Size:     int64(len(payload)),
		Status:   storage.StatusFailed,
		Payload:  payload,
		Error:    reason,
	}
	if err := s.recorder.CreateUpload(ctx, upload); err != nil {
		return "", fmt.Errorf("record failed upload: %w", err)
	}

	slog.InfoContext(ctx, "Upload recorded as failed",
		"upload_id", id,
		"filename", filename,
		"reason", reason)

	return id, nil
}
