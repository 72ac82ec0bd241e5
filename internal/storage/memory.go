package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fhm/internal/core"
)

// MemoryStore keeps uploads and transactions in process memory. It
// backs the memory data backend and the handler tests.
type MemoryStore struct {
	mu      sync.Mutex
	uploads map[string]Upload
	order   []string
	txs     map[string][]core.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		uploads: map[string]Upload{},
		txs:     map[string][]core.Transaction{},
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) CreateUpload(_ context.Context, u Upload) error {
	if u.Status == "" {
		u.Status = StatusPending
	}
	if !ValidStatus(u.Status) {
		return fmt.Errorf("invalid upload status: %s", u.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uploads[u.ID]; ok {
		return fmt.Errorf("upload %s already exists", u.ID)
	}
	now := time.Now().UTC()
	u.Payload = append([]byte(nil), u.Payload...)
	u.CreatedAt = now
	u.UpdatedAt = now
	s.uploads[u.ID] = u
	s.order = append(s.order, u.ID)
	return nil
}

func (s *MemoryStore) UpdateUploadStatus(_ context.Context, id, status, errMsg string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid upload status: %s", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	if !ok {
		return fmt.Errorf("update upload %s: %w", id, ErrNotFound)
	}
	u.Status = status
	u.Error = errMsg
	u.UpdatedAt = time.Now().UTC()
	s.uploads[id] = u
	return nil
}

func (s *MemoryStore) GetUpload(_ context.Context, id string) (Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	if !ok {
		return Upload{}, fmt.Errorf("get upload %s: %w", id, ErrNotFound)
	}
	u.Payload = append([]byte(nil), u.Payload...)
	return u, nil
}

// ListUploads returns the most recent uploads without their payloads.
func (s *MemoryStore) ListUploads(_ context.Context, limit int) ([]Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var uploads []Upload
	for i := len(s.order) - 1; i >= 0 && len(uploads) < limit; i-- {
		u := s.uploads[s.order[i]]
		u.Payload = nil
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func (s *MemoryStore) ListStaleUploads(_ context.Context, age time.Duration, limit int) ([]Upload, error) {
	cutoff := time.Now().UTC().Add(-age)

	s.mu.Lock()
	defer s.mu.Unlock()
	var uploads []Upload
	for _, id := range s.order {
		if len(uploads) >= limit {
			break
		}
		u := s.uploads[id]
		if u.Status != StatusPending && u.Status != StatusProcessing {
			continue
		}
		if !u.UpdatedAt.Before(cutoff) {
			continue
		}
		u.Payload = nil
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func (s *MemoryStore) InsertTransactions(_ context.Context, uploadID string, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[uploadID] = append(s.txs[uploadID], txs...)
	return nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, uploadID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs[uploadID]...), nil
}
