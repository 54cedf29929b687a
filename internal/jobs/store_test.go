// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atoms-tech/requirements-engine/pkg/types"
)

func newTestStore(t *testing.T, retention time.Duration) *Store {
	t.Helper()
	store, err := NewStore(types.JobsConfig{DataDir: t.TempDir(), Retention: retention})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		Status:         "success",
		OrganizationID: "atoms-tech",
		Step1:          &types.Step1Analysis{ReqID: "REQ-001", QualityRating: "8"},
		Step2:          &types.Step2Analysis{RegulationDocument: "ISO_27001.pdf"},
		Step3:          &types.Step3Analysis{ComplianceStatus: types.StatusCompliant},
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 0)

	job, err := store.Create(ctx, "atoms-tech")
	require.NoError(t, err)
	assert.NotEmpty(t, job.RunID)
	assert.Equal(t, types.JobQueued, job.State)

	got, err := store.Get(ctx, job.RunID)
	require.NoError(t, err)
	assert.Equal(t, job.RunID, got.RunID)
	assert.Equal(t, "atoms-tech", got.OrganizationID)
	assert.Equal(t, types.JobQueued, got.State)
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.Result)
}

func TestStoreGetUnknown(t *testing.T) {
	store := newTestStore(t, 0)

	_, err := store.Get(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreComplete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 0)

	job, err := store.Create(ctx, "atoms-tech")
	require.NoError(t, err)

	require.NoError(t, store.MarkRunning(ctx, job.RunID))

	got, err := store.Get(ctx, job.RunID)
	require.NoError(t, err)
	assert.Equal(t, types.JobRunning, got.State)

	require.NoError(t, store.Complete(ctx, job.RunID, testResult()))

	got, err = store.Get(ctx, job.RunID)
	require.NoError(t, err)
	assert.Equal(t, types.JobDone, got.State)
	assert.True(t, got.Terminal())
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.Result)
	assert.Equal(t, "REQ-001", got.Result.Step1.ReqID)
	assert.Equal(t, types.Rating("8"), got.Result.Step1.QualityRating)
}

func TestStoreFail(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 0)

	job, err := store.Create(ctx, "atoms-tech")
	require.NoError(t, err)

	require.NoError(t, store.Fail(ctx, job.RunID, "model unavailable"))

	got, err := store.Get(ctx, job.RunID)
	require.NoError(t, err)
	assert.Equal(t, types.JobFailed, got.State)
	assert.True(t, got.Terminal())
	assert.Equal(t, "model unavailable", got.Error)
	assert.Nil(t, got.Result)
}

func TestStoreStateUpdateUnknownJob(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 0)

	assert.ErrorIs(t, store.MarkRunning(ctx, "no-such-run"), ErrNotFound)
	assert.ErrorIs(t, store.Complete(ctx, "no-such-run", testResult()), ErrNotFound)
	assert.ErrorIs(t, store.Fail(ctx, "no-such-run", "boom"), ErrNotFound)
}

func TestStorePrune(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, time.Millisecond)

	done, err := store.Create(ctx, "atoms-tech")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, done.RunID, testResult()))

	failed, err := store.Create(ctx, "atoms-tech")
	require.NoError(t, err)
	require.NoError(t, store.Fail(ctx, failed.RunID, "boom"))

	queued, err := store.Create(ctx, "atoms-tech")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	pruned, err := store.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	_, err = store.Get(ctx, done.RunID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, failed.RunID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Unfinished jobs survive regardless of age.
	_, err = store.Get(ctx, queued.RunID)
	assert.NoError(t, err)
}

func TestStorePruneKeepsRecent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, time.Hour)

	job, err := store.Create(ctx, "atoms-tech")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, job.RunID, testResult()))

	pruned, err := store.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, pruned)

	_, err = store.Get(ctx, job.RunID)
	assert.NoError(t, err)
}
