// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// JobState tracks an asynchronous analysis run through its lifecycle.
type JobState string

const (
	JobQueued  JobState = "QUEUED"
	JobRunning JobState = "RUNNING"
	JobDone    JobState = "DONE"
	JobFailed  JobState = "FAILED"
)

// Job is one asynchronous analysis run.
type Job struct {
	// RunID is the UUID handed back to the caller for polling.
	RunID string `json:"runId"`

	// OrganizationID is the tenant that started the run.
	OrganizationID string `json:"organizationId"`

	// State is QUEUED, RUNNING, DONE, or FAILED.
	State JobState `json:"state"`

	// StartedAt is when the job was accepted.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is set when the job reaches DONE or FAILED.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Result holds the analysis output when State is DONE.
	Result *AnalysisResult `json:"result,omitempty"`

	// Error holds the failure message when State is FAILED.
	Error string `json:"error,omitempty"`
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	return j.State == JobDone || j.State == JobFailed
}
