// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/atoms-tech/requirements-engine/pkg/types"
)

// memObject is one stored object with its metadata.
type memObject struct {
	data        []byte
	contentType string
	created     time.Time
	updated     time.Time
}

// MemoryStore is an in-memory ObjectStore used in tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memObject
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]map[string]memObject)}
}

// EnsureBucket creates the bucket when absent.
func (s *MemoryStore) EnsureBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]memObject)
	}
	return nil
}

// BucketExists reports whether the bucket exists.
func (s *MemoryStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[bucket]
	return ok, nil
}

// List returns metadata for every object, sorted by name. A missing bucket
// yields an empty list.
func (s *MemoryStore) List(_ context.Context, bucket string) ([]types.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := []types.DocumentInfo{}
	objects, ok := s.buckets[bucket]
	if !ok {
		return docs, nil
	}

	for name, obj := range objects {
		created := obj.created
		updated := obj.updated
		docs = append(docs, types.DocumentInfo{
			Name:    name,
			Size:    int64(len(obj.data)),
			Created: &created,
			Updated: &updated,
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Upload writes data, creating the bucket when needed.
func (s *MemoryStore) Upload(_ context.Context, bucket, name string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		objects = make(map[string]memObject)
		s.buckets[bucket] = objects
	}

	now := time.Now().UTC()
	created := now
	if prev, ok := objects[name]; ok {
		created = prev.created
	}
	objects[name] = memObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		created:     created,
		updated:     now,
	}
	return nil
}

// Download reads an object. Missing bucket or object is ErrNotFound.
func (s *MemoryStore) Download(_ context.Context, bucket, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("object %s/%s: %w", bucket, name, ErrNotFound)
	}
	obj, ok := objects[name]
	if !ok {
		return nil, fmt.Errorf("object %s/%s: %w", bucket, name, ErrNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

// Exists reports whether the object exists.
func (s *MemoryStore) Exists(_ context.Context, bucket, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return false, nil
	}
	_, ok = objects[name]
	return ok, nil
}

// Delete removes an object. Missing bucket or object is ErrNotFound.
func (s *MemoryStore) Delete(_ context.Context, bucket, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return fmt.Errorf("bucket %s: %w", bucket, ErrNotFound)
	}
	if _, ok := objects[name]; !ok {
		return fmt.Errorf("object %s/%s: %w", bucket, name, ErrNotFound)
	}
	delete(objects, name)
	return nil
}
