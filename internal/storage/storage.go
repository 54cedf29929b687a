// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage persists regulation documents in per-organization
// buckets. The ObjectStore interface has a Google Cloud Storage
// implementation for production and an in-memory one for tests.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/atoms-tech/requirements-engine/pkg/types"
)

// ErrNotFound reports a missing bucket or object.
var ErrNotFound = errors.New("not found")

const defaultBucketSuffix = "-requirements"

// ObjectStore is the minimal object storage surface the service needs.
type ObjectStore interface {
	// EnsureBucket creates the bucket when it does not exist.
	EnsureBucket(ctx context.Context, bucket string) error

	// BucketExists reports whether the bucket exists.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// List returns metadata for every object in the bucket. A missing
	// bucket yields an empty list, not an error.
	List(ctx context.Context, bucket string) ([]types.DocumentInfo, error)

	// Upload writes data under name with the given content type.
	Upload(ctx context.Context, bucket, name string, data []byte, contentType string) error

	// Download reads an object. Missing bucket or object is ErrNotFound.
	Download(ctx context.Context, bucket, name string) ([]byte, error)

	// Exists reports whether the object exists in the bucket.
	Exists(ctx context.Context, bucket, name string) (bool, error)

	// Delete removes an object. Missing bucket or object is ErrNotFound.
	Delete(ctx context.Context, bucket, name string) error
}

// BucketName derives the bucket name for an organization. An empty suffix
// uses the default "-requirements".
func BucketName(organizationID, suffix string) string {
	if suffix == "" {
		suffix = defaultBucketSuffix
	}
	return organizationID + suffix
}

// VersionedName returns base unchanged when it is free in the bucket,
// otherwise the first free "name(N).ext" variant.
func VersionedName(ctx context.Context, store ObjectStore, bucket, base string) (string, error) {
	exists, err := store.Exists(ctx, bucket, base)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", base, err)
	}
	if !exists {
		return base, nil
	}

	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s(%d)%s", stem, counter, ext)
		exists, err := store.Exists(ctx, bucket, candidate)
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
}

// SanitizeFilename reduces an untrusted upload filename to a safe object
// name: path components are dropped, whitespace becomes underscores, and
// anything outside [A-Za-z0-9._-] is removed.
func SanitizeFilename(name string) string {
	// Strip directory components from either path convention.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune('_')
		}
	}

	return strings.Trim(b.String(), "._")
}
