package storage

import (
	"errors"
	"time"
)

// Upload lifecycle statuses. An upload is recorded as pending, moves to
// processing when a worker picks it up, and ends completed or failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrNotFound is returned when a requested upload does not exist.
var ErrNotFound = errors.New("not found")

// Upload is one recorded CSV upload: the raw payload plus its ingest
// lifecycle state. Error carries the failure message for failed uploads.
type Upload struct {
	ID        string
	Filename  string
	Size      int64
	Status    string
	Payload   []byte
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidStatus reports whether s is one of the known lifecycle statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}
