package logging

import (
	"context"
	"log/slog"

	"sebasite/internal/services"
)

// Structured field keys shared by every component.
const (
	FieldComponent = "component"
	// FieldEventType is a stable, machine-readable name for the event.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact describes what the visitor or admin will notice.
	FieldImpact     = "impact"
	FieldCollection = "collection"
	FieldOperation  = "operation"
	FieldRecordID   = "record_id"
	FieldRequestID  = "request_id"
)

// ContextFields returns the request id, collection and operation carried by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, rid))
	}
	if collection, ok := services.CollectionFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCollection, collection))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	return fields
}

// WithContext tags logger with ContextFields(ctx).
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(toArgs(fields)...)
}
