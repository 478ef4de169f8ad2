package blobstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"sebasite/internal/config"
	"sebasite/internal/services"
)

// Info describes a stored object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// PutOptions carries optional object attributes.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Store is the blob surface used by image export. Put overwrites.
type Store interface {
	Driver() string
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// Open builds the store selected by cfg.Blob.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Blob.Driver {
	case config.BlobDriverS3:
		store, err := NewS3(ctx, S3Config{
			Bucket:          cfg.Blob.Bucket,
			Region:          cfg.Blob.Region,
			Endpoint:        cfg.Blob.Endpoint,
			PathStyle:       cfg.Blob.PathStyle,
			AccessKeyID:     cfg.Blob.AccessKeyID,
			SecretAccessKey: cfg.Blob.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BlobDriverFS, "":
		store, err := NewFS(cfg.Blob.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "open",
			fmt.Sprintf("unsupported blob driver %q", cfg.Blob.Driver), nil)
	}
}
