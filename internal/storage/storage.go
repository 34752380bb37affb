package storage

import (
	"context"
	"io"
	"time"
)

// Package storage contains the object storage abstraction used by the upload
// pipeline. Implementations must rely on streaming I/O only; no local disk.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Storage is the object store client consumed by the upload coordinator.
// Put is upsert-style per key: retrying the same key is safe. PublicURL must
// return a locator resolvable by unauthenticated GET, since the downstream
// generation engine fetches the documents without credentials.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// PublicURL returns the externally resolvable locator for a stored key.
	PublicURL(key string) string
	// Ping is the connectivity probe: a cheap reachability check against the backend.
	Ping(ctx context.Context) error
}
