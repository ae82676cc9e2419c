// Package sessionaccess gives CLI commands one view of the session catalog
// whether the daemon is reachable over IPC or only its database is.
package sessionaccess

import (
	"context"
	"errors"
	"fmt"

	"clipwatch/internal/api"
	"clipwatch/internal/catalog"
	"clipwatch/internal/ipc"
)

// Access provides catalog operations regardless of IPC or direct store backing.
type Access interface {
	Summary(ctx context.Context) (api.SessionSummary, error)
	List(ctx context.Context, limit int, statuses []string) ([]api.Session, error)
	Describe(ctx context.Context, id string) (*api.Session, error)
	Remove(ctx context.Context, ids []string) (int, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access.
func NewStoreAccess(store *catalog.Store) Access {
	return &storeAccess{store: store, service: api.NewSessionService(store)}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Summary(_ context.Context) (api.SessionSummary, error) {
	resp, err := a.client.Status()
	if err != nil {
		return api.SessionSummary{}, err
	}
	return resp.Sessions, nil
}

func (a *ipcAccess) List(_ context.Context, limit int, statuses []string) ([]api.Session, error) {
	resp, err := a.client.SessionList(limit, statuses)
	if err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (a *ipcAccess) Describe(_ context.Context, id string) (*api.Session, error) {
	resp, err := a.client.SessionDescribe(id)
	if err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

func (a *ipcAccess) Remove(_ context.Context, ids []string) (int, error) {
	resp, err := a.client.SessionRemove(ids)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

type storeAccess struct {
	store   *catalog.Store
	service *api.SessionService
}

func (a *storeAccess) Summary(ctx context.Context) (api.SessionSummary, error) {
	summary, err := a.store.Summarize(ctx)
	if err != nil {
		return api.SessionSummary{}, err
	}
	return api.FromSummary(summary), nil
}

func (a *storeAccess) List(ctx context.Context, limit int, statuses []string) ([]api.Session, error) {
	return a.service.List(ctx, limit, statuses...)
}

func (a *storeAccess) Describe(ctx context.Context, id string) (*api.Session, error) {
	session, err := a.service.Describe(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return session, nil
}

func (a *storeAccess) Remove(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, errors.New("session remove requires at least one id")
	}
	count := 0
	for _, id := range ids {
		removed, err := a.store.Remove(ctx, id)
		if err != nil {
			return count, err
		}
		if removed {
			count++
		}
	}
	return count, nil
}
