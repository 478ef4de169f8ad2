package recordstore

import (
	"context"
	"encoding/json"
	"errors"
)

var errOffline = errors.New("record store driver is offline")

// Offline is a backend that is never reachable. Every call fails with
// services.ErrRemoteUnavailable so callers serve and persist locally.
type Offline struct{}

var _ Backend = Offline{}

func (Offline) Select(_ context.Context, collection string, _ Query) ([]json.RawMessage, error) {
	return nil, remoteErr("select", collection, errOffline)
}

func (Offline) Insert(_ context.Context, collection string, _ json.RawMessage) (json.RawMessage, error) {
	return nil, remoteErr("insert", collection, errOffline)
}

func (Offline) Update(_ context.Context, collection, _ string, _ json.RawMessage) (json.RawMessage, error) {
	return nil, remoteErr("update", collection, errOffline)
}

func (Offline) Delete(_ context.Context, collection, _ string) error {
	return remoteErr("delete", collection, errOffline)
}

func (Offline) Ping(context.Context) error { return remoteErr("ping", "", errOffline) }

func (Offline) Name() string { return "offline" }

func (Offline) Close() error { return nil }
