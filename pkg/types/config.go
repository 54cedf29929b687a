// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ServerConfig holds settings for the HTTP service.
type ServerConfig struct {
	// Port is the TCP port the service listens on (default 8080).
	Port int `json:"port" yaml:"port"`

	// ReadTimeout and WriteTimeout bound request processing. The write
	// timeout must cover a full synchronous three-step analysis.
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// MaxUploadBytes caps a single multipart upload request (default 64 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// StorageConfig holds settings for organization document buckets.
type StorageConfig struct {
	// ProjectID is the cloud project that owns created buckets.
	ProjectID string `json:"project_id" yaml:"project_id"`

	// BucketLocation is where new buckets are created (default "US").
	BucketLocation string `json:"bucket_location" yaml:"bucket_location"`

	// BucketSuffix is appended to the organization ID to form the bucket
	// name (default "-requirements").
	BucketSuffix string `json:"bucket_suffix" yaml:"bucket_suffix"`
}

// AnalysisConfig holds settings for the model-backed analysis pipeline.
type AnalysisConfig struct {
	// Model is the generative model identifier (default "gemini-1.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed model calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RegulationTextLimit truncates regulation text passed to the model
	// (default 10000 characters).
	RegulationTextLimit int `json:"regulation_text_limit" yaml:"regulation_text_limit"`
}

// JobsConfig holds settings for the asynchronous job store.
type JobsConfig struct {
	// DataDir is the directory holding the job database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Retention is how long finished jobs are kept (default 24h).
	Retention time.Duration `json:"retention" yaml:"retention"`
}

// ServiceConfig groups all configuration for the service.
type ServiceConfig struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Jobs     JobsConfig     `json:"jobs" yaml:"jobs"`
}
