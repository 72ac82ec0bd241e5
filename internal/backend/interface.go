package backend

import (
	"context"
	"time"

	"fhm/internal/amqp"
	"fhm/internal/core"
	"fhm/internal/storage"
)

// UploadStore records uploads and their lifecycle transitions.
type UploadStore interface {
	CreateUpload(ctx context.Context, u storage.Upload) error
	UpdateUploadStatus(ctx context.Context, id, status, errMsg string) error
	GetUpload(ctx context.Context, id string) (storage.Upload, error)
	ListUploads(ctx context.Context, limit int) ([]storage.Upload, error)
	ListStaleUploads(ctx context.Context, age time.Duration, limit int) ([]storage.Upload, error)
}

// TransactionStore records the normalized transactions of an upload.
type TransactionStore interface {
	InsertTransactions(ctx context.Context, uploadID string, txs []core.Transaction) error
	ListTransactions(ctx context.Context, uploadID string) ([]core.Transaction, error)
}

// Recorder is the unified persistence interface the serving layers use
type Recorder interface {
	UploadStore
	TransactionStore
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for backend resources
type CleanupFunc func() error

// Result contains the recorder, the optional AMQP publisher and an
// optional cleanup function
type Result struct {
	Recorder  Recorder
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
