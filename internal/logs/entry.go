package logs

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Entry is one decoded log line.
type Entry struct {
	Time      string
	Level     string
	Message   string
	EventType string
	Component string
	Raw       string
	// Structured is false for plain text lines.
	Structured bool
}

// ParseLine decodes a JSON log line. Anything else comes back with only Raw set.
func ParseLine(line string) Entry {
	entry := Entry{Raw: line}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return entry
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return entry
	}
	entry.Structured = true
	entry.Time = stringField(fields, "ts")
	entry.Level = strings.ToLower(stringField(fields, "level"))
	entry.Message = stringField(fields, "msg")
	entry.EventType = stringField(fields, "event_type")
	entry.Component = stringField(fields, "component")
	return entry
}

func stringField(fields map[string]any, key string) string {
	if value, ok := fields[key].(string); ok {
		return value
	}
	return ""
}

// Filter selects entries by minimum level and event type.
type Filter struct {
	MinLevel  string
	EventType string
}

// Match reports whether entry passes the filter. Plain text lines only pass
// an empty filter.
func (f Filter) Match(entry Entry) bool {
	if f.MinLevel == "" && f.EventType == "" {
		return true
	}
	if !entry.Structured {
		return false
	}
	if f.EventType != "" && entry.EventType != f.EventType {
		return false
	}
	if f.MinLevel != "" && levelOf(entry.Level) < levelOf(f.MinLevel) {
		return false
	}
	return true
}

func levelOf(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}
