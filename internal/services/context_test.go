package services_test

import (
	"context"
	"testing"

	"sebasite/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithCollection(ctx, "projects")
	ctx = services.WithOperation(ctx, "list")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if c, ok := services.CollectionFromContext(ctx); !ok || c != "projects" {
		t.Fatalf("unexpected collection: %v %v", c, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "list" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCollection(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.CollectionFromContext(ctx); ok {
		t.Fatal("expected no collection value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
}
