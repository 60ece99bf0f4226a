package storage

import (
	"context"
	"sync"
	"time"

	"github.com/kisanmitra/advisory/internal/models"
)

type MemoryLog struct {
	mu      sync.RWMutex
	records []models.QueryRecord
	now     func() time.Time
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{now: time.Now}
}

func (s *MemoryLog) Append(ctx context.Context, record *models.QueryRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = int64(len(s.records)) + 1
	record.CreatedAt = s.now().UTC()
	s.records = append(s.records, *record)
	return nil
}

func (s *MemoryLog) CountAll(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.records)), nil
}

func (s *MemoryLog) CountBySource(ctx context.Context, usedRemote bool) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.records {
		if r.UsedRemote == usedRemote {
			n++
		}
	}
	return n, nil
}

func (s *MemoryLog) CountOnDate(ctx context.Context, day time.Time) (int64, error) {
	start, end := dayBounds(day)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.records {
		if !r.CreatedAt.Before(start) && r.CreatedAt.Before(end) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryLog) Recent(ctx context.Context, limit int) ([]models.QueryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit > len(s.records) {
		limit = len(s.records)
	}
	if limit < 0 {
		limit = 0
	}
	out := make([]models.QueryRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *MemoryLog) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
