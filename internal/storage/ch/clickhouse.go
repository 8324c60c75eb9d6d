package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"familyreads/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type ClickHouseDB struct {
	conn clickhouse.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Initialize checks that the journal table exists. The schema itself is
// managed via migrations (see migrations/ directory).
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	var count uint64
	row := db.conn.QueryRow(ctx, `SELECT count() FROM system.tables WHERE database = currentDatabase() AND name = 'activities'`)
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("failed to check activities table: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("activities table is missing, run the migrations first")
	}
	return nil
}

// RecordActivity appends a journal entry
func (db *ClickHouseDB) RecordActivity(ctx context.Context, a models.Activity) error {
	err := db.conn.Exec(ctx, `INSERT INTO activities
		(id, at, kind, reader_id, reader_name, book_title, challenge_id, challenge_title, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.At, string(a.Kind), a.ReaderID, a.ReaderName, a.BookTitle, a.ChallengeID, a.ChallengeTitle, a.Amount)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// LastActivities returns the last N journal entries
func (db *ClickHouseDB) LastActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := db.conn.Query(ctx, `SELECT id, at, kind, reader_id, reader_name, book_title, challenge_id, challenge_title, amount
		FROM activities ORDER BY at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get last activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		var kind string
		if err := rows.Scan(&a.ID, &a.At, &kind, &a.ReaderID, &a.ReaderName, &a.BookTitle, &a.ChallengeID, &a.ChallengeTitle, &a.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Kind = models.ActivityKind(kind)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activities: %w", err)
	}
	return activities, nil
}

// ReadingStats returns minutes logged and books finished per reader within the period
func (db *ClickHouseDB) ReadingStats(ctx context.Context, startDate, endDate time.Time) ([]models.ReaderStat, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT
			reader_name,
			sumIf(amount, kind = ?) AS minutes,
			countIf(kind = ?) AS finished
		FROM activities
		WHERE at >= ? AND at <= ? AND kind IN (?, ?)
		GROUP BY reader_name
		ORDER BY minutes DESC, reader_name`,
		string(models.ActivityProgressLogged), string(models.ActivityBookFinished),
		startDate, endDate,
		string(models.ActivityProgressLogged), string(models.ActivityBookFinished))
	if err != nil {
		return nil, fmt.Errorf("failed to get reading stats: %w", err)
	}
	defer rows.Close()

	var stats []models.ReaderStat
	for rows.Next() {
		var stat models.ReaderStat
		if err := rows.Scan(&stat.ReaderName, &stat.Minutes, &stat.BooksFinished); err != nil {
			return nil, fmt.Errorf("failed to scan reading stat: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reading stats: %w", err)
	}
	return stats, nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
