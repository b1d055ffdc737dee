// Package source reads the launch dataset once from the configured backend.
package source

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"launchdash/internal/blob"
	"launchdash/internal/config"
	"launchdash/internal/infra/persistence/postgres"
	"launchdash/internal/infra/persistence/sqlite"
	"launchdash/internal/launch"
	"launchdash/internal/logging"
)

// Loader resolves a SourceConfig into a Dataset. Stores may be injected for
// the memory driver or to override blob construction.
type Loader struct {
	// Memory backs the memory driver. Key selects the object.
	Memory blob.Store
	// OpenBlob overrides blob store construction for the file and s3 drivers.
	OpenBlob func(ctx context.Context, opts blob.Options) (blob.Store, error)
}

// Load reads the dataset described by cfg using a default Loader.
func Load(ctx context.Context, cfg config.SourceConfig) (*launch.Dataset, error) {
	return Loader{}.Load(ctx, cfg)
}

// Load reads and validates the dataset described by cfg.
func (l Loader) Load(ctx context.Context, cfg config.SourceConfig) (*launch.Dataset, error) {
	logger := logging.New("source")
	start := time.Now()
	records, origin, err := l.records(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ds, err := launch.NewDataset(records)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", origin, err)
	}
	bounds := ds.Bounds()
	logger.Info("dataset loaded",
		"driver", cfg.Driver,
		"origin", origin,
		"records", ds.Len(),
		"sites", len(ds.Sites()),
		"payload_min", bounds.Min,
		"payload_max", bounds.Max,
		"elapsed", time.Since(start),
	)
	return ds, nil
}

func (l Loader) records(ctx context.Context, cfg config.SourceConfig) ([]launch.Record, string, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		dir, name := filepath.Split(cfg.Path)
		store, err := l.openBlob(ctx, blob.Options{Driver: blob.DriverFilesystem, Root: dir})
		if err != nil {
			return nil, cfg.Path, fmt.Errorf("open %s: %w", cfg.Path, err)
		}
		return readCSV(ctx, store, name, cfg.Path)
	case config.DriverS3:
		origin := fmt.Sprintf("s3://%s/%s", cfg.Bucket, cfg.Key)
		store, err := l.openBlob(ctx, blob.Options{Driver: blob.DriverS3, S3: blob.S3Config{
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			Endpoint:  cfg.Endpoint,
			PathStyle: cfg.PathStyle,
		}})
		if err != nil {
			return nil, origin, fmt.Errorf("open %s: %w", origin, err)
		}
		return readCSV(ctx, store, cfg.Key, origin)
	case config.DriverMemory:
		origin := "memory:" + cfg.Key
		if l.Memory == nil {
			return nil, origin, fmt.Errorf("memory source has no store")
		}
		return readCSV(ctx, l.Memory, cfg.Key, origin)
	case config.DriverSQLite:
		origin := fmt.Sprintf("sqlite:%s#%s", cfg.Path, cfg.Table)
		records, err := sqlite.LoadLaunches(ctx, cfg.Path, cfg.Table)
		if err != nil {
			return nil, origin, fmt.Errorf("load %s: %w", origin, err)
		}
		return records, origin, nil
	case config.DriverPostgres:
		origin := "postgres#" + cfg.Table
		records, err := postgres.LoadLaunches(ctx, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, origin, fmt.Errorf("load %s: %w", origin, err)
		}
		return records, origin, nil
	default:
		return nil, "", fmt.Errorf("unknown source driver %q", cfg.Driver)
	}
}

func (l Loader) openBlob(ctx context.Context, opts blob.Options) (blob.Store, error) {
	if l.OpenBlob != nil {
		return l.OpenBlob(ctx, opts)
	}
	return blob.Open(ctx, opts)
}

func readCSV(ctx context.Context, store blob.Store, key, origin string) ([]launch.Record, string, error) {
	_, body, err := store.Get(ctx, key)
	if err != nil {
		return nil, origin, fmt.Errorf("read %s: %w", origin, err)
	}
	defer func() { _ = body.Close() }()
	records, err := launch.ParseCSV(body)
	if err != nil {
		return nil, origin, fmt.Errorf("parse %s: %w", origin, err)
	}
	// Drain so S3 connections can be reused.
	_, _ = io.Copy(io.Discard, body)
	return records, origin, nil
}
