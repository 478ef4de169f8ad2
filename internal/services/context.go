package services

import "context"

type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	collectionKey contextKey = "collection"
	operationKey  contextKey = "operation"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCollection annotates context with the record collection being accessed.
func WithCollection(ctx context.Context, collection string) context.Context {
	if collection == "" {
		return ctx
	}
	return context.WithValue(ctx, collectionKey, collection)
}

// CollectionFromContext returns the collection name if present.
func CollectionFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(collectionKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithOperation annotates context with the data operation (list, create, ...).
func WithOperation(ctx context.Context, operation string) context.Context {
	if operation == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(operationKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
