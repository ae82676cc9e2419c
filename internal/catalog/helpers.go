package catalog

import (
	"database/sql"
	"errors"
	"time"
)

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		session    Session
		statusStr  string
		startedRaw string
		endedRaw   sql.NullString
		mergedPath sql.NullString
		errorKind  sql.NullString
		errorMsg   sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&session.ID,
		&session.Name,
		&session.Folder,
		&session.RecordingPath,
		&statusStr,
		&startedRaw,
		&endedRaw,
		&session.Detections,
		&session.Clips,
		&session.RecordingBytes,
		&mergedPath,
		&session.MergedDuration,
		&errorKind,
		&errorMsg,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	session.Status = Status(statusStr)
	session.MergedPath = mergedPath.String
	session.ErrorKind = errorKind.String
	session.ErrorMessage = errorMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		session.StartedAt = started
	}
	if endedRaw.Valid {
		if ended, err := parseTimeString(endedRaw.String); err == nil {
			session.EndedAt = &ended
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		session.UpdatedAt = updated
	}
	return &session, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
