// Package chreporting persists the engine's reporting.Writer event stream to
// ClickHouse, adapted from the teacher codebase's internal/analytics
// ClickHouse connection/table-creation pattern but retargeted from RTB spend
// events to the engine's JSON event envelopes.
package chreporting

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS engine_events (
    stamp      DateTime,
    event_type String,
    payload    String
) ENGINE=MergeTree() ORDER BY (event_type, stamp)`

// Sink inserts each reporting event envelope as a row in ClickHouse.
type Sink struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects to ClickHouse at dsn and ensures the engine_events table
// exists.
func Open(dsn string, logger *zap.Logger) (*Sink, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(25)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), createTableSQL); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}
	logger.Info("connected to clickhouse reporting sink")
	return &Sink{db: db, logger: logger}, nil
}

// eventEnvelope mirrors just enough of reporting.Envelope's shape to recover
// the event type and stamp for the row's dedicated columns; the full payload
// is stored verbatim alongside them.
type eventEnvelope struct {
	Data struct {
		Type  string `json:"type"`
		Stamp string `json:"stamp"`
	} `json:"data"`
}

// Write implements reporting.Sink, inserting payload as a row. Errors are
// logged rather than propagated since reporting.Writer's Sink signature has
// no error return, matching the teacher's fire-and-forget analytics posture
// for non-critical telemetry paths.
func (s *Sink) Write(payload []byte) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.logger.Error("decode event envelope", zap.Error(err))
		return
	}
	stamp, err := time.Parse(time.RFC3339, env.Data.Stamp)
	if err != nil {
		stamp = time.Now().UTC()
	}
	_, err = s.db.ExecContext(context.Background(),
		`INSERT INTO engine_events (stamp, event_type, payload) VALUES (?, ?, ?)`,
		stamp, env.Data.Type, string(payload))
	if err != nil {
		s.logger.Error("clickhouse insert failed", zap.Error(err), zap.String("event_type", env.Data.Type))
	}
}

// StoredEvent is one row read back from engine_events.
type StoredEvent struct {
	Stamp     time.Time `json:"stamp"`
	EventType string    `json:"eventType"`
	Payload   string    `json:"payload"`
}

// QueryByCategory returns events of the given type (e.g. "notify", "load")
// within the [since, since+window) range, most recent first, adapted from the
// teacher codebase's GetEventsByRequestID lookup but keyed on event type and
// time range instead of a single RTB request ID.
func (s *Sink) QueryByCategory(eventType string, since time.Time, window time.Duration) ([]StoredEvent, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT stamp, event_type, payload FROM engine_events
		 WHERE event_type = ? AND stamp >= ? AND stamp < ?
		 ORDER BY stamp DESC`,
		eventType, since, since.Add(window))
	if err != nil {
		return nil, fmt.Errorf("clickhouse query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		if err := rows.Scan(&e.Stamp, &e.EventType, &e.Payload); err != nil {
			return nil, fmt.Errorf("clickhouse scan: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close terminates the ClickHouse connection.
func (s *Sink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
