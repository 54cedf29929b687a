// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"errors"
	"testing"
)

func TestBucketName(t *testing.T) {
	tests := []struct {
		name   string
		org    string
		suffix string
		want   string
	}{
		{name: "default suffix", org: "atoms-tech", suffix: "", want: "atoms-tech-requirements"},
		{name: "custom suffix", org: "atoms-tech", suffix: "-docs", want: "atoms-tech-docs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketName(tt.org, tt.suffix); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "clean", input: "ISO_27001.pdf", want: "ISO_27001.pdf"},
		{name: "spaces", input: "my regulation doc.pdf", want: "my_regulation_doc.pdf"},
		{name: "unix path stripped", input: "../../etc/passwd.pdf", want: "passwd.pdf"},
		{name: "windows path stripped", input: `C:\docs\reg.pdf`, want: "reg.pdf"},
		{name: "special characters removed", input: "reg<>:*?.pdf", want: "reg.pdf"},
		{name: "leading dots trimmed", input: "..hidden.pdf", want: "hidden.pdf"},
		{name: "unicode removed", input: "régulation.pdf", want: "rgulation.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVersionedName(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	bucket := "org-requirements"

	got, err := VersionedName(ctx, store, bucket, "reg.pdf")
	if err != nil {
		t.Fatalf("versioned name: %v", err)
	}
	if got != "reg.pdf" {
		t.Errorf("free name: got %q, want %q", got, "reg.pdf")
	}

	for i, want := range []string{"reg(1).pdf", "reg(2).pdf", "reg(3).pdf"} {
		if err := store.Upload(ctx, bucket, got, []byte("data"), "application/pdf"); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
		got, err = VersionedName(ctx, store, bucket, "reg.pdf")
		if err != nil {
			t.Fatalf("versioned name %d: %v", i, err)
		}
		if got != want {
			t.Errorf("round %d: got %q, want %q", i, got, want)
		}
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	bucket := "org-requirements"

	exists, err := store.BucketExists(ctx, bucket)
	if err != nil || exists {
		t.Fatalf("fresh bucket: exists=%v err=%v", exists, err)
	}

	docs, err := store.List(ctx, bucket)
	if err != nil {
		t.Fatalf("list missing bucket: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("list missing bucket: got %d documents", len(docs))
	}

	if err := store.Upload(ctx, bucket, "b.pdf", []byte("bbb"), "application/pdf"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := store.Upload(ctx, bucket, "a.pdf", []byte("aa"), "application/pdf"); err != nil {
		t.Fatalf("upload: %v", err)
	}

	docs, err = store.List(ctx, bucket)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 || docs[0].Name != "a.pdf" || docs[1].Name != "b.pdf" {
		t.Fatalf("list not sorted by name: %+v", docs)
	}
	if docs[0].Size != 2 || docs[1].Size != 3 {
		t.Errorf("sizes: got %d and %d", docs[0].Size, docs[1].Size)
	}

	data, err := store.Download(ctx, bucket, "a.pdf")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != "aa" {
		t.Errorf("download: got %q", data)
	}

	if err := store.Delete(ctx, bucket, "a.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Download(ctx, bucket, "a.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("download deleted object: err=%v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, bucket, "a.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete twice: err=%v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "no-such-bucket", "a.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete in missing bucket: err=%v, want ErrNotFound", err)
	}
}

func TestMemoryStoreEnsureBucket(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.EnsureBucket(ctx, "org-requirements"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	exists, err := store.BucketExists(ctx, "org-requirements")
	if err != nil || !exists {
		t.Fatalf("after ensure: exists=%v err=%v", exists, err)
	}

	// Idempotent.
	if err := store.EnsureBucket(ctx, "org-requirements"); err != nil {
		t.Fatalf("ensure twice: %v", err)
	}
}
