package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const sessionColumns = "id, name, folder, recording_path, status, started_at, ended_at, detections, clips, recording_bytes, merged_path, merged_duration, error_kind, error_message, created_at, updated_at"

// Begin inserts a new session row.
func (s *Store) Begin(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	if strings.TrimSpace(session.ID) == "" {
		return errors.New("session id required")
	}
	if session.Status == "" {
		session.Status = StatusRecording
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Name,
		session.Folder,
		session.RecordingPath,
		session.Status,
		session.StartedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(session.EndedAt),
		session.Detections,
		session.Clips,
		session.RecordingBytes,
		nullableString(session.MergedPath),
		session.MergedDuration,
		nullableString(session.ErrorKind),
		nullableString(session.ErrorMessage),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Update persists changes to an existing session.
func (s *Store) Update(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	session.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE sessions
         SET status = ?, ended_at = ?, detections = ?, clips = ?, recording_bytes = ?,
             merged_path = ?, merged_duration = ?, error_kind = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		session.Status,
		nullableTime(session.EndedAt),
		session.Detections,
		session.Clips,
		session.RecordingBytes,
		nullableString(session.MergedPath),
		session.MergedDuration,
		nullableString(session.ErrorKind),
		nullableString(session.ErrorMessage),
		session.UpdatedAt.Format(time.RFC3339Nano),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update session %s: %w", session.ID, sql.ErrNoRows)
	}
	return nil
}

// Get fetches a session by identifier. A missing session returns nil, nil.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// List returns sessions newest first, filtered by status when any are given.
// A non-positive limit returns every match.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// MarkInterrupted closes out sessions left recording or processing by a
// previous daemon that did not shut down cleanly.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE sessions SET status = ?, error_message = COALESCE(error_message, ?), updated_at = ?
         WHERE status IN (?, ?)`,
		StatusInterrupted, "daemon stopped before the session finished", now,
		StatusRecording, StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes a session row. Files on disk are untouched.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Summarize aggregates the catalog for status output.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1), COALESCE(SUM(clips), 0) FROM sessions GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var (
			status Status
			count  int
			clips  int
		)
		if err := rows.Scan(&status, &count, &clips); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		summary.Clips += clips
		switch status {
		case StatusComplete:
			summary.Complete += count
		case StatusNoHighlights:
			summary.NoHighlights += count
		case StatusFailed, StatusInterrupted:
			summary.Failed += count
		default:
			summary.Active += count
		}
	}
	return summary, rows.Err()
}
