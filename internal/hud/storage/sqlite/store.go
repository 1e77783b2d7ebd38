// Package sqlite persists sessions, reference paths and laps to the
// SQLite database opened by internal/db.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/lapdelta/internal/config"
	"github.com/banshee-data/lapdelta/internal/db"
	"github.com/banshee-data/lapdelta/internal/hud/l4path"
	"github.com/banshee-data/lapdelta/internal/hud/l6laps"
	"github.com/banshee-data/lapdelta/internal/monitoring"
)

var logf = monitoring.Prefixed("store")

// ErrNotFound is returned when a session or track path does not exist.
var ErrNotFound = errors.New("not found")

// LapStore reads and writes lap data. It satisfies pipeline.LapSink.
type LapStore struct {
	db *db.DB
}

// NewLapStore wraps an open, migrated database.
func NewLapStore(database *db.DB) *LapStore {
	return &LapStore{db: database}
}

// Session describes one processed recording.
type Session struct {
	ID     string
	Source string // e.g. the frame directory
	Layout *config.LayoutConfig
}

// SessionSummary is one row of ListSessions.
type SessionSummary struct {
	ID        string  `json:"session_id"`
	Source    string  `json:"source"`
	CreatedAt float64 `json:"created_at"` // unix seconds
	Laps      int     `json:"laps"`
	Complete  int     `json:"complete_laps"`
	BestLap   float64 `json:"best_lap_time"` // 0 without a complete lap
}

// CreateSession inserts a session row, replacing source and layout if the
// id already exists.
func (s *LapStore) CreateSession(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return fmt.Errorf("session id is required")
	}
	layout := []byte("{}")
	if sess.Layout != nil {
		var err error
		if layout, err = json.Marshal(sess.Layout); err != nil {
			return fmt.Errorf("failed to encode layout: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, source, layout_json) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET source = excluded.source, layout_json = excluded.layout_json`,
		sess.ID, sess.Source, string(layout))
	if err != nil {
		return fmt.Errorf("failed to create session %s: %w", sess.ID, err)
	}
	return nil
}

// SaveTrackPath stores the reference path of a session, replacing any
// earlier one.
func (s *LapStore) SaveTrackPath(ctx context.Context, sessionID string, path *l4path.TrackPath) error {
	if path == nil {
		return fmt.Errorf("no track path to save")
	}
	pts, err := json.Marshal(path.Points())
	if err != nil {
		return fmt.Errorf("failed to encode track path: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO track_paths (session_id, points_json, total_length) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET points_json = excluded.points_json, total_length = excluded.total_length`,
		sessionID, string(pts), path.Total())
	if err != nil {
		return fmt.Errorf("failed to save track path for %s: %w", sessionID, err)
	}
	return nil
}

// LoadTrackPath returns the stored reference path of a session.
func (s *LapStore) LoadTrackPath(ctx context.Context, sessionID string) (*l4path.TrackPath, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT points_json FROM track_paths WHERE session_id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("track path for %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load track path for %s: %w", sessionID, err)
	}
	var pts []r2.Vec
	if err := json.Unmarshal([]byte(raw), &pts); err != nil {
		return nil, fmt.Errorf("failed to decode track path for %s: %w", sessionID, err)
	}
	return l4path.NewTrackPath(pts)
}

// PersistLap stores one lap and its samples in a single transaction. A
// lap with the same number and start frame in the same session is
// replaced. The session row is created if it does not exist yet.
func (s *LapStore) PersistLap(ctx context.Context, sessionID string, lap l6laps.LapRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO sessions (session_id) VALUES (?)`, sessionID); err != nil {
		return fmt.Errorf("failed to ensure session %s: %w", sessionID, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM laps WHERE session_id = ? AND lap_number = ? AND start_frame = ?`,
		sessionID, lap.ID, lap.StartFrame); err != nil {
		return fmt.Errorf("failed to replace lap %d: %w", lap.ID, err)
	}

	lapUUID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO laps (
			lap_uuid, session_id, lap_number, complete, start_frame, end_frame,
			start_time, end_time, lap_time, reported_time, sample_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lapUUID, sessionID, lap.ID, lap.Complete, lap.StartFrame, lap.EndFrame,
		lap.StartTime, lap.EndTime, lap.LapTime(), lap.ReportedTime, len(lap.Samples),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lap %d: %w", lap.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lap_samples (lap_uuid, seq, position, timestamp, channels_json) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for i, smp := range lap.Samples {
		var channels sql.NullString
		if len(smp.Channels) > 0 {
			b, mErr := json.Marshal(smp.Channels)
			if mErr != nil {
				err = fmt.Errorf("failed to encode channels of sample %d: %w", i, mErr)
				return err
			}
			channels = sql.NullString{String: string(b), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, lapUUID, i, smp.Position, smp.Timestamp, channels); err != nil {
			return fmt.Errorf("failed to insert sample %d of lap %d: %w", i, lap.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lap %d: %w", lap.ID, err)
	}
	logf("stored lap %d of session %s (%d samples)", lap.ID, sessionID, len(lap.Samples))
	return nil
}

// GetLaps returns every lap of a session in stream order.
func (s *LapStore) GetLaps(ctx context.Context, sessionID string) ([]l6laps.LapRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lap_uuid, lap_number, complete, start_frame, end_frame, start_time, end_time, reported_time
		FROM laps WHERE session_id = ? ORDER BY start_frame, lap_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query laps: %w", err)
	}

	var laps []l6laps.LapRecord
	var uuids []string
	for rows.Next() {
		var lap l6laps.LapRecord
		var id string
		if err := rows.Scan(&id, &lap.ID, &lap.Complete, &lap.StartFrame, &lap.EndFrame, &lap.StartTime, &lap.EndTime, &lap.ReportedTime); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan lap: %w", err)
		}
		laps = append(laps, lap)
		uuids = append(uuids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i, id := range uuids {
		samples, err := s.samples(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lap %d: %w", laps[i].ID, err)
		}
		laps[i].Samples = samples
	}
	return laps, nil
}

func (s *LapStore) samples(ctx context.Context, lapUUID string) ([]l6laps.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, timestamp, channels_json FROM lap_samples WHERE lap_uuid = ? ORDER BY seq`, lapUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []l6laps.Sample
	for rows.Next() {
		var smp l6laps.Sample
		var channels sql.NullString
		if err := rows.Scan(&smp.Position, &smp.Timestamp, &channels); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		if channels.Valid {
			if err := json.Unmarshal([]byte(channels.String), &smp.Channels); err != nil {
				return nil, fmt.Errorf("failed to decode channels: %w", err)
			}
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

// ListSessions returns every session, newest first.
func (s *LapStore) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.session_id, s.source, s.created_at,
		       COUNT(l.lap_uuid),
		       COALESCE(SUM(l.complete), 0),
		       COALESCE(MIN(CASE WHEN l.complete = 1 THEN l.lap_time END), 0)
		FROM sessions s
		LEFT JOIN laps l ON l.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.created_at DESC, s.session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var ss SessionSummary
		if err := rows.Scan(&ss.ID, &ss.Source, &ss.CreatedAt, &ss.Laps, &ss.Complete, &ss.BestLap); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// GetSessionLayout returns the layout a session was recorded with, or nil
// when none was stored.
func (s *LapStore) GetSessionLayout(ctx context.Context, sessionID string) (*config.LayoutConfig, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT layout_json FROM sessions WHERE session_id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var layout config.LayoutConfig
	if err := json.Unmarshal([]byte(raw), &layout); err != nil {
		return nil, fmt.Errorf("failed to decode layout of %s: %w", sessionID, err)
	}
	return &layout, nil
}
