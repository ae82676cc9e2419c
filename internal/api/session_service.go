package api

import (
	"context"
	"fmt"

	"clipwatch/internal/catalog"
)

// SessionReader abstracts the catalog queries needed for API reads.
type SessionReader interface {
	List(ctx context.Context, limit int, statuses ...catalog.Status) ([]*catalog.Session, error)
	Get(ctx context.Context, id string) (*catalog.Session, error)
}

// SessionService exposes read-only catalog operations returning API DTOs.
type SessionService struct {
	store SessionReader
}

// NewSessionService constructs a SessionService around the provided reader.
func NewSessionService(store SessionReader) *SessionService {
	if store == nil {
		return nil
	}
	return &SessionService{store: store}
}

// List returns sessions newest first, filtered by status names. Unknown
// status names are rejected.
func (s *SessionService) List(ctx context.Context, limit int, statuses ...string) ([]Session, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	parsed := make([]catalog.Status, 0, len(statuses))
	for _, name := range statuses {
		status, ok := catalog.ParseStatus(name)
		if !ok {
			return nil, fmt.Errorf("unknown session status %q", name)
		}
		parsed = append(parsed, status)
	}
	sessions, err := s.store.List(ctx, limit, parsed...)
	if err != nil {
		return nil, err
	}
	return FromSessions(sessions), nil
}

// Describe fetches a single session; nil when unknown.
func (s *SessionService) Describe(ctx context.Context, id string) (*Session, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	session, err := s.store.Get(ctx, id)
	if err != nil || session == nil {
		return nil, err
	}
	dto := FromSession(session)
	return &dto, nil
}
