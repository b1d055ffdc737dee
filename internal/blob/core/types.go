// Package core defines the blob abstractions shared by the source drivers.
// Dataset files are read through this interface so a local path, an
// S3-compatible bucket and an in-memory fixture are interchangeable.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem represents the local filesystem implementation.
	DriverFilesystem Driver = "fs" // local filesystem (default)
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3"
	// DriverMemory represents an in-memory implementation typically used in tests.
	DriverMemory Driver = "memory"
)

// PutOptions specifies optional parameters for Writer.Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // User metadata (small, flat key-value)
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store provides a thin read-only S3-like abstraction used by the dataset
// loader.
type Store interface {
	// Get returns blob metadata and a reader over its content. Callers close the reader.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Head returns metadata only.
	Head(ctx context.Context, key string) (Info, error)
	Driver() Driver
}

// Writer is a Store that also accepts uploads. The memory and S3 drivers
// implement it; the filesystem driver only reads files other tools produce.
type Writer interface {
	Store
	// Put stores a new blob at key. It fails if the key already exists.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
}

// ErrNotFound is returned (wrapped) when a key does not exist.
var ErrNotFound = errors.New("blobstore: not found")
