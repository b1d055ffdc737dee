// Package memory implements an in-process blob Store. The memory source
// driver and the loader tests use it to stage dataset files without disk or
// network access.
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"path"
	"sync"
	"time"

	"launchdash/internal/blob/core"
)

type object struct {
	info core.Info
	body []byte
}

// Store implements core.Writer over a map guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{objects: make(map[string]object), now: time.Now}
}

// Driver reports core.DriverMemory.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put stores r under key. Keys are write-once.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, fmt.Errorf("read blob %s: %w", key, err)
	}
	sum := sha256.Sum256(body)
	info := core.Info{
		Key:          key,
		Size:         int64(len(body)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(sum[:]),
		Metadata:     maps.Clone(opts.Metadata),
		LastModified: s.now().UTC(),
	}
	if info.ContentType == "" && path.Ext(key) == ".csv" {
		info.ContentType = "text/csv"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; exists {
		return core.Info{}, fmt.Errorf("blob %s already exists", key)
	}
	s.objects[key] = object{info: info, body: body}
	return cloneInfo(info), nil
}

// Get returns a reader over the stored bytes. The body slice is never
// written after Put, so readers share it.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	obj, err := s.lookup(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	return cloneInfo(obj.info), io.NopCloser(bytes.NewReader(obj.body)), nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	obj, err := s.lookup(key)
	if err != nil {
		return core.Info{}, err
	}
	return cloneInfo(obj.info), nil
}

func (s *Store) lookup(key string) (object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return object{}, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return obj, nil
}

func cloneInfo(info core.Info) core.Info {
	info.Metadata = maps.Clone(info.Metadata)
	return info
}
