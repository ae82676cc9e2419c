package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clipwatch/internal/daemonctl"
	"clipwatch/internal/deps"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func statusKindFromSeverity(severity string) statusKind {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "ok":
		return statusOK
	case "warn", "warning":
		return statusWarn
	case "error":
		return statusError
	default:
		return statusInfo
	}
}

func statusKindFromCheck(passed bool) statusKind {
	if passed {
		return statusOK
	}
	return statusWarn
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// daemonLines renders the recorder section of `clipwatch status`.
func daemonLines(snap *daemonctl.Snapshot, colorize bool) []string {
	if snap.Daemon == nil || !snap.Daemon.Running {
		return []string{renderStatusLine("Daemon", statusError, "Not running", colorize)}
	}
	st := snap.Daemon
	lines := []string{
		renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", st.PID), colorize),
	}
	switch st.State {
	case "recording":
		detail := "Recording"
		if st.Session != nil {
			detail = fmt.Sprintf("Recording %s for %s", st.Session.Name, formatSeconds(st.Session.ElapsedSeconds))
		}
		lines = append(lines, renderStatusLine("Recorder", statusOK, detail, colorize))
		lines = append(lines, renderStatusLine("Detections", statusInfo, fmt.Sprintf("%d", st.Detections), colorize))
	case "idle":
		lines = append(lines, renderStatusLine("Recorder", statusInfo, "Idle", colorize))
	default:
		lines = append(lines, renderStatusLine("Recorder", statusInfo, titleCase(st.State), colorize))
	}
	if enc := st.Encoder; enc != nil {
		lines = append(lines, renderStatusLine("Encoder", statusInfo, fmt.Sprintf(
			"pid %d, %.1f%% CPU, %s RSS, nice %d", enc.PID, enc.CPUPercent, formatBytes(int64(enc.RSSBytes)), enc.Nice,
		), colorize))
	}
	if st.Latest != nil {
		lines = append(lines, renderStatusLine("Latest", statusInfo, st.Latest.Message, colorize))
	}
	if st.APIBind != "" {
		lines = append(lines, renderStatusLine("HTTP API", statusInfo, st.APIBind, colorize))
	}
	return lines
}

func dependencyLines(statuses []deps.Status, summary daemonctl.DependencySummary, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+2)
	lines = append(lines, renderStatusLine("Summary", statusKindFromSeverity(summary.Severity), summary.Detail, colorize))
	missing := make([]string, 0)
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Resolved != "" {
				message = fmt.Sprintf("Ready (%s)", dep.Resolved)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		missing = append(missing, dep.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	return (time.Duration(seconds * float64(time.Second))).Round(time.Second).String()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// titleCase turns identifiers like no_highlights into "No Highlights".
func titleCase(value string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(strings.TrimSpace(value), "_", " "))
}
