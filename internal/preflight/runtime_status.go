package preflight

import (
	"context"
	"strings"

	"clipwatch/internal/config"
)

// CheckNotificationsFromConfig evaluates ntfy status from config and connectivity.
func CheckNotificationsFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if !cfg.Notifications.Highlights && !cfg.Notifications.Errors {
		return Result{Name: name, Passed: true, Detail: "Configured (all events muted)"}
	}
	check := CheckNtfy(ctx, topic)
	return Result{Name: name, Passed: check.Passed, Detail: check.Detail}
}

// CheckAPIFromConfig describes the HTTP status API configuration.
func CheckAPIFromConfig(cfg *config.Config) Result {
	const name = "HTTP API"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.API.Token) == "" && !isLoopback(bind) {
		return Result{Name: name, Detail: bind + " (no token on a non-loopback address)"}
	}
	return Result{Name: name, Passed: true, Detail: bind}
}

func isLoopback(bind string) bool {
	host := bind
	if i := strings.LastIndex(bind, ":"); i >= 0 {
		host = bind[:i]
	}
	host = strings.Trim(host, "[]")
	return host == "127.0.0.1" || host == "localhost" || host == "::1"
}
