package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/address-simplifier/app/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type searcherFunc func(ctx context.Context, raw string) (*models.SearchResult, error)

func (f searcherFunc) SearchAddress(ctx context.Context, raw string) (*models.SearchResult, error) {
	return f(ctx, raw)
}

func echoSearcher(ctx context.Context, raw string) (*models.SearchResult, error) {
	if raw == "bad" {
		return nil, errors.New("boom")
	}
	return &models.SearchResult{SimplifiedAddress: raw, Status: models.StatusSuccess}, nil
}

func waitDone(t *testing.T, bs *BatchService, id string) models.BatchJob {
	t.Helper()
	var job models.BatchJob
	require.Eventually(t, func() bool {
		var err error
		job, err = bs.Status(id)
		require.NoError(t, err)
		return job.Finished()
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestBatchService_RunsJob(t *testing.T) {
	bs := NewBatchService(searcherFunc(echoSearcher), 10, time.Hour, zap.NewNop())
	defer bs.Close(context.Background())

	job, err := bs.Submit([]string{"中山路5號", "bad", "石頭路1號"})
	require.NoError(t, err)
	assert.Equal(t, 3, job.Total)
	parsed, err := uuid.Parse(job.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())

	status := waitDone(t, bs, job.ID)
	assert.Equal(t, models.JobStatusDone, status.Status)
	assert.Equal(t, 3, status.Processed)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, 1.0, status.Progress())
	assert.Nil(t, status.Items)

	results, err := bs.Results(job.ID)
	require.NoError(t, err)
	require.Len(t, results.Items, 3)
	assert.Equal(t, "中山路5號", results.Items[0].Result.SimplifiedAddress)
	assert.Equal(t, "boom", results.Items[1].Error)
	assert.Nil(t, results.Items[1].Result)
	assert.Equal(t, 2, results.Items[2].Index)
}

func TestBatchService_Validation(t *testing.T) {
	bs := NewBatchService(searcherFunc(echoSearcher), 2, time.Hour, zap.NewNop())
	defer bs.Close(context.Background())

	_, err := bs.Submit(nil)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = bs.Submit([]string{"a", "b", "c"})
	assert.ErrorIs(t, err, ErrTooManyAddresses)

	_, err = bs.Status("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = bs.Results("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestBatchService_EvictsExpiredJobs(t *testing.T) {
	bs := NewBatchService(searcherFunc(echoSearcher), 10, 10*time.Millisecond, zap.NewNop())
	defer bs.Close(context.Background())

	first, err := bs.Submit([]string{"a"})
	require.NoError(t, err)
	waitDone(t, bs, first.ID)
	time.Sleep(20 * time.Millisecond)

	_, err = bs.Submit([]string{"b"})
	require.NoError(t, err)

	_, err = bs.Status(first.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.Equal(t, 1, bs.Count())
}

func TestBatchService_CloseStopsJobs(t *testing.T) {
	block := make(chan struct{})
	slow := searcherFunc(func(ctx context.Context, raw string) (*models.SearchResult, error) {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &models.SearchResult{Status: models.StatusNoResult}, nil
	})
	bs := NewBatchService(slow, 10, time.Hour, zap.NewNop())

	job, err := bs.Submit([]string{"a", "b", "c"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bs.Close(ctx))

	status, err := bs.Status(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, status.Status)
	assert.Less(t, status.Processed, 3)
}
