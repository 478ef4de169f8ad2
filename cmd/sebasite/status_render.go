package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"sebasite/internal/daemonctl"
	"sebasite/internal/preflight"
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
	statusLabelWidth = 26
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
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

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

// checkKind maps a preflight result onto a status line kind. Disabled or
// offline services are informational rather than failures.
func checkKind(result preflight.Result) statusKind {
	switch {
	case result.Passed:
		return statusOK
	case strings.HasPrefix(result.Detail, "Offline"):
		return statusWarn
	default:
		return statusError
	}
}

func renderStatus(snap daemonctl.Snapshot, colorize bool) []string {
	lines := renderSectionHeader("Daemon", colorize)
	if snap.Running {
		msg := snap.URL
		if snap.PID > 0 {
			msg = fmt.Sprintf("%s (pid %d)", snap.URL, snap.PID)
		}
		lines = append(lines, renderStatusLine("Daemon", statusOK, msg, colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "not running; start with `sebasite start`", colorize))
	}
	lines = append(lines,
		renderStatusLine("Lock file", statusInfo, snap.LockPath, colorize),
		renderStatusLine("Log file", statusInfo, snap.LogPath, colorize),
		"",
	)
	lines = append(lines, renderSectionHeader("Services", colorize)...)
	for _, check := range snap.Checks {
		lines = append(lines, renderStatusLine(check.Name, checkKind(check), check.Detail, colorize))
	}
	return lines
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
