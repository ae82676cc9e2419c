package logging

import (
	"context"
	"errors"
	"log/slog"
)

// multiHandler sends each record to every member whose level accepts it.
type multiHandler []slog.Handler

// TeeHandler combines handlers, skipping nil ones. A single handler is
// returned as is.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	return newFanoutHandler(handlers...)
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	var members multiHandler
	for _, h := range handlers {
		if h != nil {
			members = append(members, h)
		}
	}
	switch len(members) {
	case 0:
		return NoopHandler{}
	case 1:
		return members[0]
	}
	return members
}

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle keeps going after a member fails and reports all failures.
func (m multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs error
	for _, h := range m {
		if h.Enabled(ctx, record.Level) {
			errs = errors.Join(errs, h.Handle(ctx, record.Clone()))
		}
	}
	return errs
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m multiHandler) derive(fn func(slog.Handler) slog.Handler) multiHandler {
	next := make(multiHandler, len(m))
	for i, h := range m {
		next[i] = fn(h)
	}
	return next
}
