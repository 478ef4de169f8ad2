package preflight

import (
	"context"
	"strings"

	"sebasite/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Pinger is the part of a record store backend the checks need.
type Pinger interface {
	Ping(ctx context.Context) error
	Name() string
}

// RunAll executes all applicable preflight checks for the given config.
// The record store check is skipped when backend is nil.
func RunAll(ctx context.Context, cfg *config.Config, backend Pinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if backend != nil {
		results = append(results, CheckRecordStore(ctx, backend))
	}

	if topic := strings.TrimSpace(cfg.Contact.NtfyTopic); topic != "" {
		results = append(results, CheckNtfy(ctx, topic))
	}

	if cfg.Blob.Driver == config.BlobDriverFS && strings.TrimSpace(cfg.Blob.Dir) != "" {
		results = append(results, CheckDirectoryAccess("Export directory", cfg.Blob.Dir))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
