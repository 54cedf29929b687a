// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DocumentInfo describes one regulation document in an organization bucket.
type DocumentInfo struct {
	// Name is the object name, including any version suffix like "(1)".
	Name string `json:"name" yaml:"name"`

	// Size is the object size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// Created and Updated are object timestamps. Nil when the backing
	// store does not track them.
	Created *time.Time `json:"created" yaml:"created"`
	Updated *time.Time `json:"updated" yaml:"updated"`
}
