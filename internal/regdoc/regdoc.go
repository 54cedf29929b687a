// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package regdoc manages regulation documents in per-organization buckets:
// PDF-only uploads with collision renaming, listing, deletion, and text
// retrieval for the analysis pipeline.
package regdoc

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/atoms-tech/requirements-engine/internal/pdftext"
	"github.com/atoms-tech/requirements-engine/internal/storage"
	"github.com/atoms-tech/requirements-engine/pkg/types"
)

// ErrNotPDF reports an upload with a non-PDF filename.
var ErrNotPDF = errors.New("only PDF files are allowed")

// extractText is a package-level var for test substitution.
var extractText = pdftext.Extract

const pdfContentType = "application/pdf"

// Service operates on one organization's regulation documents.
type Service struct {
	store        storage.ObjectStore
	bucketSuffix string
}

// New creates a Service over the given object store.
func New(store storage.ObjectStore, cfg types.StorageConfig) *Service {
	return &Service{store: store, bucketSuffix: cfg.BucketSuffix}
}

func (s *Service) bucket(organizationID string) string {
	return storage.BucketName(organizationID, s.bucketSuffix)
}

// ListDocuments returns metadata for all documents in the organization's
// bucket. An organization with no bucket yet has no documents.
func (s *Service) ListDocuments(ctx context.Context, organizationID string) ([]types.DocumentInfo, error) {
	docs, err := s.store.List(ctx, s.bucket(organizationID))
	if err != nil {
		return nil, fmt.Errorf("listing documents for organization %s: %w", organizationID, err)
	}
	return docs, nil
}

// UploadDocument stores one PDF in the organization's bucket, creating the
// bucket when needed. The filename is sanitized and renamed "name(N).ext"
// on collision. Returns the final object name.
func (s *Service) UploadDocument(ctx context.Context, organizationID, filename string, data []byte) (string, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return "", fmt.Errorf("%w: got %s", ErrNotPDF, filename)
	}

	name := storage.SanitizeFilename(filename)
	if name == "" || strings.EqualFold(name, "pdf") {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	bucket := s.bucket(organizationID)
	if err := s.store.EnsureBucket(ctx, bucket); err != nil {
		return "", fmt.Errorf("ensuring bucket %s: %w", bucket, err)
	}

	finalName, err := storage.VersionedName(ctx, s.store, bucket, name)
	if err != nil {
		return "", fmt.Errorf("versioning filename: %w", err)
	}

	if err := s.store.Upload(ctx, bucket, finalName, data, pdfContentType); err != nil {
		return "", fmt.Errorf("uploading %s: %w", finalName, err)
	}
	return finalName, nil
}

// DeleteDocument removes one document. A missing bucket or document is
// storage.ErrNotFound.
func (s *Service) DeleteDocument(ctx context.Context, organizationID, documentName string) error {
	bucket := s.bucket(organizationID)

	exists, err := s.store.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", bucket, err)
	}
	if !exists {
		return fmt.Errorf("organization bucket %s: %w", bucket, storage.ErrNotFound)
	}

	if err := s.store.Delete(ctx, bucket, documentName); err != nil {
		return fmt.Errorf("deleting document %s: %w", documentName, err)
	}
	return nil
}

// FetchText downloads the named regulation document and extracts its text.
// The name is tried as given when it already carries a .pdf extension,
// otherwise with ".pdf" and ".PDF" appended. Implements
// analysis.RegulationSource.
func (s *Service) FetchText(ctx context.Context, organizationID, documentName string) (string, error) {
	bucket := s.bucket(organizationID)

	exists, err := s.store.BucketExists(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("checking bucket %s: %w", bucket, err)
	}
	if !exists {
		return "", fmt.Errorf("organization bucket %s: %w", bucket, storage.ErrNotFound)
	}

	for _, candidate := range candidateNames(documentName) {
		found, err := s.store.Exists(ctx, bucket, candidate)
		if err != nil {
			return "", fmt.Errorf("checking document %s: %w", candidate, err)
		}
		if !found {
			continue
		}

		data, err := s.store.Download(ctx, bucket, candidate)
		if err != nil {
			return "", fmt.Errorf("downloading document %s: %w", candidate, err)
		}

		text, err := extractText(data)
		if err != nil {
			return "", fmt.Errorf("extracting text from %s: %w", candidate, err)
		}
		return text, nil
	}

	return "", fmt.Errorf("document %s in bucket %s: %w", documentName, bucket, storage.ErrNotFound)
}

// candidateNames lists the object names to probe for a document reference.
func candidateNames(documentName string) []string {
	if ext := strings.ToLower(path.Ext(documentName)); ext == ".pdf" {
		return []string{documentName}
	}
	return []string{documentName + ".pdf", documentName + ".PDF"}
}
