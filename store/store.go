// Package store persists observation history: one row per extraction
// pass, with its mark bags and screenshots, grouped by browsing session.
// It receives an already-opened *sql.DB (modernc.org/sqlite in cmd).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yhl48/proxy-lite/poi"
)

// Schema is the observation store schema.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          TEXT PRIMARY KEY,
    start_url   TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL,
    closed_at   INTEGER
);

CREATE TABLE IF NOT EXISTS observations (
    id          TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    url         TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    mark_count  INTEGER NOT NULL,
    partial     INTEGER NOT NULL DEFAULT 0,
    screenshot  BLOB,
    annotated   BLOB
);
CREATE INDEX IF NOT EXISTS idx_observations_session ON observations(session_id, created_at);

CREATE TABLE IF NOT EXISTS marks (
    observation_id TEXT NOT NULL REFERENCES observations(id) ON DELETE CASCADE,
    idx            INTEGER NOT NULL,
    description    TEXT NOT NULL,
    centroid       TEXT NOT NULL,
    PRIMARY KEY (observation_id, idx)
);
`

// Store wraps the observation database.
type Store struct {
	DB *sql.DB
}

// New creates a Store from an already-opened database connection.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Init applies the schema.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	return nil
}

// Session is one browsing session.
type Session struct {
	ID       string
	StartURL string
	Created  time.Time
}

// Observation is one recorded extraction pass.
type Observation struct {
	ID         string
	SessionID  string
	URL        string
	Created    time.Time
	MarkCount  int
	Partial    bool
	Screenshot []byte
	Annotated  []byte
}

// CreateSession inserts a new session row.
func (s *Store) CreateSession(ctx context.Context, id, startURL string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO sessions (id, start_url, created_at) VALUES (?, ?, ?)`,
		id, startURL, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: create session: %w", err)
	}
	return nil
}

// CloseSession stamps the session's end time.
func (s *Store) CloseSession(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE sessions SET closed_at = ? WHERE id = ?`, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("store: close session: %w", err)
	}
	return nil
}

// SaveObservation records one extraction pass with its marks and images.
func (s *Store) SaveObservation(ctx context.Context, obs Observation, result poi.Result) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	partial := 0
	if result.Partial {
		partial = 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO observations (id, session_id, url, created_at, mark_count, partial, screenshot, annotated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.ID, obs.SessionID, obs.URL, time.Now().UnixMilli(),
		result.Len(), partial, obs.Screenshot, obs.Annotated)
	if err != nil {
		return fmt.Errorf("store: insert observation: %w", err)
	}

	for i := range result.Centroids {
		desc, err := json.Marshal(result.Descriptions[i])
		if err != nil {
			return fmt.Errorf("store: marshal description: %w", err)
		}
		cent, err := json.Marshal(result.Centroids[i])
		if err != nil {
			return fmt.Errorf("store: marshal centroid: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO marks (observation_id, idx, description, centroid) VALUES (?, ?, ?, ?)`,
			obs.ID, i, string(desc), string(cent)); err != nil {
			return fmt.Errorf("store: insert mark %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// GetObservation loads one observation and its marks.
func (s *Store) GetObservation(ctx context.Context, id string) (Observation, poi.Result, error) {
	var obs Observation
	var created int64
	var partial int
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, session_id, url, created_at, mark_count, partial, screenshot, annotated
		 FROM observations WHERE id = ?`, id).
		Scan(&obs.ID, &obs.SessionID, &obs.URL, &created, &obs.MarkCount, &partial,
			&obs.Screenshot, &obs.Annotated)
	if err != nil {
		return Observation{}, poi.Result{}, fmt.Errorf("store: get observation: %w", err)
	}
	obs.Created = time.UnixMilli(created)
	obs.Partial = partial != 0

	rows, err := s.DB.QueryContext(ctx,
		`SELECT description, centroid FROM marks WHERE observation_id = ? ORDER BY idx`, id)
	if err != nil {
		return Observation{}, poi.Result{}, fmt.Errorf("store: get marks: %w", err)
	}
	defer rows.Close()

	var result poi.Result
	result.Partial = obs.Partial
	for rows.Next() {
		var descJSON, centJSON string
		if err := rows.Scan(&descJSON, &centJSON); err != nil {
			return Observation{}, poi.Result{}, fmt.Errorf("store: scan mark: %w", err)
		}
		var d poi.Description
		if err := json.Unmarshal([]byte(descJSON), &d); err != nil {
			return Observation{}, poi.Result{}, fmt.Errorf("store: decode description: %w", err)
		}
		var c poi.Centroid
		if err := json.Unmarshal([]byte(centJSON), &c); err != nil {
			return Observation{}, poi.Result{}, fmt.Errorf("store: decode centroid: %w", err)
		}
		result.Descriptions = append(result.Descriptions, d)
		result.Centroids = append(result.Centroids, c)
	}
	if err := rows.Err(); err != nil {
		return Observation{}, poi.Result{}, fmt.Errorf("store: iterate marks: %w", err)
	}
	return obs, result, nil
}

// ListObservations returns a session's observations, newest first,
// without image blobs.
func (s *Store) ListObservations(ctx context.Context, sessionID string, limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, session_id, url, created_at, mark_count, partial
		 FROM observations WHERE session_id = ? ORDER BY created_at DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list observations: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var obs Observation
		var created int64
		var partial int
		if err := rows.Scan(&obs.ID, &obs.SessionID, &obs.URL, &created, &obs.MarkCount, &partial); err != nil {
			return nil, fmt.Errorf("store: scan observation: %w", err)
		}
		obs.Created = time.UnixMilli(created)
		obs.Partial = partial != 0
		out = append(out, obs)
	}
	return out, rows.Err()
}

// Screenshots returns the annotated screenshots of a session in
// chronological order, for replay composition.
func (s *Store) Screenshots(ctx context.Context, sessionID string) ([][]byte, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT annotated FROM observations
		 WHERE session_id = ? AND annotated IS NOT NULL ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: screenshots: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("store: scan screenshot: %w", err)
		}
		out = append(out, blob)
	}
	return out, rows.Err()
}
