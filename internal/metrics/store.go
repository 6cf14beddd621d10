package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"elior-fitness/internal/shared"
)

// CallMetric records metadata for a single outbound call.
type CallMetric struct {
	Name             string
	Target           string
	StatusCode       int
	Failed           bool
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
// The connection is owned by the caller.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(m CallMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO call_metrics (name, target, status_code, failed, prompt_tokens, completion_tokens, latency_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Target, m.StatusCode, m.Failed, m.PromptTokens, m.CompletionTokens, m.LatencyMS, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert call metric: %w", err)
	}
	return nil
}

// RecordCall records metrics directly from shared.CallMeta.
func (s *Store) RecordCall(meta shared.CallMeta) error {
	return s.Record(MapCall(meta))
}

// DailyUsage represents call and token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalCalls      int
	FailedCalls     int
	TotalPrompt     int
	TotalCompletion int
	AvgLatencyMS    int64
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT strftime('%Y-%m-%d', timestamp) AS day,
		       COUNT(*),
		       COALESCE(SUM(failed), 0),
		       COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(completion_tokens), 0),
		       CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER)
		FROM call_metrics
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		var day sql.NullString
		if err := rows.Scan(&day, &u.TotalCalls, &u.FailedCalls, &u.TotalPrompt, &u.TotalCompletion, &u.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		u.Date = "Unknown"
		if day.Valid {
			u.Date = day.String
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// returns how many were removed.
func (s *Store) Cleanup(olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	res, err := s.db.ExecContext(context.Background(), `DELETE FROM call_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up call metrics: %w", err)
	}
	return res.RowsAffected()
}

// MapCall converts shared.CallMeta to a CallMetric.
func MapCall(meta shared.CallMeta) CallMetric {
	target := meta.Target
	if target == "" {
		target = meta.Usage.Model
	}
	return CallMetric{
		Name:             meta.Name,
		Target:           target,
		StatusCode:       meta.StatusCode,
		Failed:           meta.Err != nil,
		PromptTokens:     meta.Usage.PromptTokens,
		CompletionTokens: meta.Usage.CompletionTokens,
		LatencyMS:        meta.Latency.Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
}
