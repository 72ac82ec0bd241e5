package amqp

import (
	"encoding/json"
	"time"
)

// IngestJob represents a lightweight message telling the worker to process
// one stored upload. It carries only the upload ID, the worker fetches the
// payload from the database.
type IngestJob struct {
	UploadID  string    `json:"upload_id"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// NewIngestJob creates a new ingest job for the given upload
func NewIngestJob(uploadID string) *IngestJob {
	return &IngestJob{
		UploadID:  uploadID,
		Timestamp: time.Now(),
		Version:   1,
	}
}

// ToJSON converts the job to JSON bytes
func (j *IngestJob) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

// IngestJobFromJSON creates a job from JSON bytes
func IngestJobFromJSON(data []byte) (*IngestJob, error) {
	var job IngestJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
