package worker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"fhm/internal/amqp"
	"fhm/internal/core"
	"fhm/internal/storage"
)

// Store is the slice of storage the ingest worker needs.
type Store interface {
	GetUpload(ctx context.Context, id string) (storage.Upload, error)
	UpdateUploadStatus(ctx context.Context, id, status, errMsg string) error
	InsertTransactions(ctx context.Context, uploadID string, txs []core.Transaction) error
}

// IngestWorker turns stored upload payloads into recorded transactions.
type IngestWorker struct {
	store Store
}

func NewIngestWorker(store Store) *IngestWorker {
	return &IngestWorker{store: store}
}

// HandleIngestJob processes a single ingest job from AMQP.
func (w *IngestWorker) HandleIngestJob(ctx context.Context, job *amqp.IngestJob) error {
	upload, err := w.store.GetUpload(ctx, job.UploadID)
	if err != nil {
		return fmt.Errorf("get upload from storage: %w", err)
	}

	// Jobs can be redelivered; completed uploads need no further work.
	if upload.Status == storage.StatusCompleted {
		slog.InfoContext(ctx, "Upload already completed, skipping", "upload_id", upload.ID)
		return nil
	}

	if err := w.store.UpdateUploadStatus(ctx, upload.ID, storage.StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark upload processing: %w", err)
	}

	txs, skipped, err := core.ParseReader(upload.Filename, bytes.NewReader(upload.Payload))
	if err != nil {
		// Parse failures are deterministic, so record the reason and ack
		// instead of requeueing the job forever.
		if uerr := w.store.UpdateUploadStatus(ctx, upload.ID, storage.StatusFailed, err.Error()); uerr != nil {
			return fmt.Errorf("mark upload failed: %w", uerr)
		}
		slog.WarnContext(ctx, "Upload failed to parse",
			"upload_id", upload.ID,
			"filename", upload.Filename,
			"error", err)
		return nil
	}

	if err := w.store.InsertTransactions(ctx, upload.ID, txs); err != nil {
		return fmt.Errorf("record transactions: %w", err)
	}

	if err := w.store.UpdateUploadStatus(ctx, upload.ID, storage.StatusCompleted, ""); err != nil {
		return fmt.Errorf("mark upload completed: %w", err)
	}

	slog.InfoContext(ctx, "Upload ingested",
		"upload_id", upload.ID,
		"filename", upload.Filename,
		"transactions", len(txs),
		"skipped_rows", len(skipped))

	return nil
}
