package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kisanmitra/advisory/internal/models"
)

// ErrInvalidRecord is returned by Append for records that break the log invariants.
var ErrInvalidRecord = errors.New("invalid query record")

// QueryLog is an append-only record of processed questions. Append assigns
// ID and CreatedAt on the record it is given.
type QueryLog interface {
	Append(ctx context.Context, record *models.QueryRecord) error
	CountAll(ctx context.Context) (int64, error)
	CountBySource(ctx context.Context, usedRemote bool) (int64, error)
	CountOnDate(ctx context.Context, day time.Time) (int64, error)
	Recent(ctx context.Context, limit int) ([]models.QueryRecord, error)
	Close() error
}

func validateRecord(r *models.QueryRecord) error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	case strings.TrimSpace(r.QueryText) == "":
		return fmt.Errorf("%w: empty query text", ErrInvalidRecord)
	case strings.TrimSpace(r.ResponseText) == "":
		return fmt.Errorf("%w: empty response text", ErrInvalidRecord)
	case !r.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidRecord, r.Category)
	}
	return nil
}

// Summarize reads the aggregate counters. Today is the UTC calendar day of now.
func Summarize(ctx context.Context, log QueryLog, now time.Time) (models.Stats, error) {
	var (
		stats models.Stats
		err   error
	)

	if stats.Total, err = log.CountAll(ctx); err != nil {
		return models.Stats{}, fmt.Errorf("error counting queries: %w", err)
	}
	if stats.Remote, err = log.CountBySource(ctx, true); err != nil {
		return models.Stats{}, fmt.Errorf("error counting remote queries: %w", err)
	}
	if stats.Demo, err = log.CountBySource(ctx, false); err != nil {
		return models.Stats{}, fmt.Errorf("error counting demo queries: %w", err)
	}
	if stats.Today, err = log.CountOnDate(ctx, now); err != nil {
		return models.Stats{}, fmt.Errorf("error counting today's queries: %w", err)
	}

	return stats, nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
