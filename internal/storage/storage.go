package storage

import (
	"context"
	"time"

	"familyreads/internal/models"
)

// Storage defines the activity journal. It only records what happened to the
// in-memory state; the state itself is never rebuilt from it.
type Storage interface {
	// RecordActivity appends one entry to the journal
	RecordActivity(ctx context.Context, activity models.Activity) error

	// LastActivities returns the most recent N entries, newest first
	LastActivities(ctx context.Context, limit int) ([]models.Activity, error)

	// ReadingStats returns minutes logged and books finished per reader
	// within [startDate, endDate], ordered by minutes descending, then name
	ReadingStats(ctx context.Context, startDate, endDate time.Time) ([]models.ReaderStat, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
