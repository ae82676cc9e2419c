package services

import "context"

type contextKey int

const (
	sessionIDKey contextKey = iota
	stageKey
	requestIDKey
)

// WithSessionID tags ctx with the recording session name.
func WithSessionID(ctx context.Context, id string) context.Context {
	return withValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session name set by WithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	return value(ctx, sessionIDKey)
}

// WithStage tags ctx with the highlight step being run.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

// StageFromContext returns the step set by WithStage.
func StageFromContext(ctx context.Context) (string, bool) {
	return value(ctx, stageKey)
}

// WithRequestID tags ctx with an IPC request correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return value(ctx, requestIDKey)
}

// withValue leaves ctx untouched for empty values.
func withValue(ctx context.Context, key contextKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func value(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
