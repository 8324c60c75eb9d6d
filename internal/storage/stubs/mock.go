package stubs

import (
	"context"
	"sort"
	"sync"
	"time"

	"familyreads/internal/models"
)

// MockDB is an in-memory implementation of the Storage interface
type MockDB struct {
	mu         sync.RWMutex
	activities []models.Activity
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		activities: make([]models.Activity, 0),
	}
}

// Initialize does nothing for mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// RecordActivity stores a journal entry
func (m *MockDB) RecordActivity(ctx context.Context, activity models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activities = append(m.activities, activity)
	return nil
}

// LastActivities returns the last N activities
func (m *MockDB) LastActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Sort by time descending, keeping insertion order for equal times
	sorted := make([]models.Activity, len(m.activities))
	copy(sorted, m.activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.After(sorted[j].At)
	})

	if limit < 0 {
		limit = 0
	}
	if limit > len(sorted) {
		limit = len(sorted)
	}

	return sorted[:limit], nil
}

// ReadingStats returns per-reader totals within the specified time period
func (m *MockDB) ReadingStats(ctx context.Context, startDate, endDate time.Time) ([]models.ReaderStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := make(map[string]*models.ReaderStat)
	for _, a := range m.activities {
		// Filter by date range
		if a.At.Before(startDate) || a.At.After(endDate) {
			continue
		}

		switch a.Kind {
		case models.ActivityProgressLogged, models.ActivityBookFinished:
		default:
			continue
		}

		stat, ok := totals[a.ReaderName]
		if !ok {
			stat = &models.ReaderStat{ReaderName: a.ReaderName}
			totals[a.ReaderName] = stat
		}
		if a.Kind == models.ActivityProgressLogged {
			stat.Minutes += a.Amount
		} else {
			stat.BooksFinished++
		}
	}

	stats := make([]models.ReaderStat, 0, len(totals))
	for _, s := range totals {
		stats = append(stats, *s)
	}

	// Sort by minutes descending, then by name
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Minutes != stats[j].Minutes {
			return stats[i].Minutes > stats[j].Minutes
		}
		return stats[i].ReaderName < stats[j].ReaderName
	})

	return stats, nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}
