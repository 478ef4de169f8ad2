package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sebasite/internal/config"
	"sebasite/internal/recordstore"
)

// CheckRecordStoreFromConfig opens the configured record store, pings it and
// closes it again.
func CheckRecordStoreFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) Result {
	const name = "Record store"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if cfg.RecordStore.Driver == config.RecordStoreDriverOffline {
		return Result{Name: name, Detail: "Offline (cache only)"}
	}
	backend, err := recordstore.Open(cfg, logger)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer backend.Close()
	return CheckRecordStore(ctx, backend)
}

// CheckContactFromConfig evaluates contact relay status from config and connectivity.
func CheckContactFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Contact relay"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Contact.NtfyTopic) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return CheckNtfy(ctx, cfg.Contact.NtfyTopic)
}

// CheckBlobFromConfig reports where image exports are written. S3 targets
// are not contacted.
func CheckBlobFromConfig(cfg *config.Config) Result {
	const name = "Image exports"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	switch cfg.Blob.Driver {
	case config.BlobDriverS3:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("s3://%s", cfg.Blob.Bucket)}
	default:
		return CheckDirectoryAccess(name, cfg.Blob.Dir)
	}
}
