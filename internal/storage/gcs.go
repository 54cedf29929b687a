// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/atoms-tech/requirements-engine/pkg/types"
)

const defaultBucketLocation = "US"

// GCSStore implements ObjectStore on Google Cloud Storage.
type GCSStore struct {
	client    *gcs.Client
	projectID string
	location  string
}

// NewGCSStore creates a store using application default credentials.
func NewGCSStore(ctx context.Context, cfg types.StorageConfig) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	location := cfg.BucketLocation
	if location == "" {
		location = defaultBucketLocation
	}

	return &GCSStore{
		client:    client,
		projectID: cfg.ProjectID,
		location:  location,
	}, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// EnsureBucket creates the bucket in the configured location when absent.
func (s *GCSStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	attrs := &gcs.BucketAttrs{Location: s.location}
	if err := s.client.Bucket(bucket).Create(ctx, s.projectID, attrs); err != nil {
		return fmt.Errorf("creating bucket %s: %w", bucket, err)
	}
	return nil
}

// BucketExists reports whether the bucket exists.
func (s *GCSStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := s.client.Bucket(bucket).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrBucketNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking bucket %s: %w", bucket, err)
}

// List returns metadata for every object in the bucket. A missing bucket
// yields an empty list.
func (s *GCSStore) List(ctx context.Context, bucket string) ([]types.DocumentInfo, error) {
	exists, err := s.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []types.DocumentInfo{}, nil
	}

	docs := []types.DocumentInfo{}
	it := s.client.Bucket(bucket).Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing bucket %s: %w", bucket, err)
		}

		doc := types.DocumentInfo{
			Name: attrs.Name,
			Size: attrs.Size,
		}
		if !attrs.Created.IsZero() {
			created := attrs.Created
			doc.Created = &created
		}
		if !attrs.Updated.IsZero() {
			updated := attrs.Updated
			doc.Updated = &updated
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Upload writes data under name with the given content type.
func (s *GCSStore) Upload(ctx context.Context, bucket, name string, data []byte, contentType string) error {
	w := s.client.Bucket(bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing object %s: %w", name, err)
	}
	return nil
}

// Download reads an object in full.
func (s *GCSStore) Download(ctx context.Context, bucket, name string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
			return nil, fmt.Errorf("object %s/%s: %w", bucket, name, ErrNotFound)
		}
		return nil, fmt.Errorf("opening object %s/%s: %w", bucket, name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucket, name, err)
	}
	return data, nil
}

// Exists reports whether the object exists.
func (s *GCSStore) Exists(ctx context.Context, bucket, name string) (bool, error) {
	_, err := s.client.Bucket(bucket).Object(name).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking object %s/%s: %w", bucket, name, err)
}

// Delete removes an object. A missing bucket or object is ErrNotFound.
func (s *GCSStore) Delete(ctx context.Context, bucket, name string) error {
	err := s.client.Bucket(bucket).Object(name).Delete(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("object %s/%s: %w", bucket, name, ErrNotFound)
	}
	return fmt.Errorf("deleting object %s/%s: %w", bucket, name, err)
}
