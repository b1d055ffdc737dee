// Package blob re-exports core blob abstractions and selects a driver.
// Packages outside internal/infra/blob depend on this package only.
package blob

import (
	"context"
	"fmt"

	"launchdash/internal/blob/core"
	"launchdash/internal/infra/blob/fs"
	memorystore "launchdash/internal/infra/blob/memory"
	infraS3 "launchdash/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the read interface for blob storage backends.
	Store = core.Store
	// Writer is a Store that accepts uploads.
	Writer = core.Writer
	// S3Config configures the S3 driver.
	S3Config = infraS3.Config
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrNotFound indicates a missing key.
var ErrNotFound = core.ErrNotFound

// Options selects and configures a driver for Open.
type Options struct {
	Driver Driver
	Root   string // filesystem root
	S3     S3Config
}

// Open constructs the blob.Store named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverFilesystem, "":
		return NewFilesystem(opts.Root)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", opts.Driver)
	}
}

// NewFilesystem constructs a filesystem-backed blob.Store rooted at root.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}

// NewMemory returns an in-memory blob.Writer suitable for tests.
func NewMemory() Writer { return memorystore.New() }

// NewS3 constructs an S3-backed blob.Store; unset connection fields are
// filled from LAUNCHDASH_S3_* environment variables.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return infraS3.New(ctx, infraS3.ConfigFromEnv(cfg))
}

// NewMockS3ForTests exposes the in-memory S3 mock for cross-package tests.
func NewMockS3ForTests(bucket string) Writer { return infraS3.NewMockForTests(bucket) }
