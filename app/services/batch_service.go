package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/address-simplifier/app/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Searcher is the part of AddressService a batch job needs
type Searcher interface {
	SearchAddress(ctx context.Context, raw string) (*models.SearchResult, error)
}

// BatchService runs batch searches in the background, one address at a
// time, and keeps finished jobs for the retention period
type BatchService struct {
	searcher     Searcher
	maxAddresses int
	retention    time.Duration
	logger       *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*models.BatchJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBatchService creates the job runner
func NewBatchService(searcher Searcher, maxAddresses int, retention time.Duration, logger *zap.Logger) *BatchService {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchService{
		searcher:     searcher,
		maxAddresses: maxAddresses,
		retention:    retention,
		logger:       logger,
		jobs:         make(map[string]*models.BatchJob),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Submit registers a job for addresses and starts it
func (bs *BatchService) Submit(addresses []string) (models.BatchJob, error) {
	if len(addresses) == 0 {
		return models.BatchJob{}, ErrInvalidAddress
	}
	if bs.maxAddresses > 0 && len(addresses) > bs.maxAddresses {
		return models.BatchJob{}, fmt.Errorf("%w: %d > %d", ErrTooManyAddresses, len(addresses), bs.maxAddresses)
	}

	now := time.Now()
	job := &models.BatchJob{
		ID:        uuid.NewString(),
		Status:    models.JobStatusPending,
		Total:     len(addresses),
		Items:     make([]models.BatchItem, 0, len(addresses)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	bs.mu.Lock()
	bs.evictExpiredLocked(now)
	bs.jobs[job.ID] = job
	snapshot := *job
	bs.mu.Unlock()

	bs.wg.Add(1)
	go bs.run(job.ID, append([]string(nil), addresses...))

	bs.logger.Info("Batch job submitted", zap.String("job_id", job.ID), zap.Int("total", job.Total))
	return snapshot, nil
}

func (bs *BatchService) run(id string, addresses []string) {
	defer bs.wg.Done()
	bs.update(id, func(job *models.BatchJob) { job.Status = models.JobStatusRunning })

	for i, address := range addresses {
		if bs.ctx.Err() != nil {
			bs.update(id, func(job *models.BatchJob) { job.Status = models.JobStatusFailed })
			bs.logger.Warn("Batch job aborted", zap.String("job_id", id), zap.Int("processed", i))
			return
		}

		item := models.BatchItem{Index: i, Address: address}
		result, err := bs.searcher.SearchAddress(bs.ctx, address)
		if err != nil {
			item.Error = err.Error()
			bs.logger.Warn("Batch item failed",
				zap.String("job_id", id),
				zap.String("address", address),
				zap.Error(err))
		} else {
			item.Result = result
		}

		bs.update(id, func(job *models.BatchJob) {
			job.Items = append(job.Items, item)
			job.Processed++
			if err != nil {
				job.Failed++
			}
		})
	}

	bs.update(id, func(job *models.BatchJob) { job.Status = models.JobStatusDone })
	bs.logger.Info("Batch job completed", zap.String("job_id", id), zap.Int("total", len(addresses)))
}

func (bs *BatchService) update(id string, fn func(*models.BatchJob)) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if job, ok := bs.jobs[id]; ok {
		fn(job)
		job.UpdatedAt = time.Now()
	}
}

func (bs *BatchService) evictExpiredLocked(now time.Time) {
	if bs.retention <= 0 {
		return
	}
	for id, job := range bs.jobs {
		if job.Finished() && now.Sub(job.UpdatedAt) > bs.retention {
			delete(bs.jobs, id)
		}
	}
}

// Status returns a snapshot of the job without its items
func (bs *BatchService) Status(id string) (models.BatchJob, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	job, ok := bs.jobs[id]
	if !ok {
		return models.BatchJob{}, ErrJobNotFound
	}
	snapshot := *job
	snapshot.Items = nil
	return snapshot, nil
}

// Results returns the job snapshot with the items processed so far
func (bs *BatchService) Results(id string) (models.BatchJob, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	job, ok := bs.jobs[id]
	if !ok {
		return models.BatchJob{}, ErrJobNotFound
	}
	snapshot := *job
	snapshot.Items = append([]models.BatchItem(nil), job.Items...)
	return snapshot, nil
}

// Count returns the number of tracked jobs
func (bs *BatchService) Count() int {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return len(bs.jobs)
}

// Close stops running jobs and waits for them to return
func (bs *BatchService) Close(ctx context.Context) error {
	bs.cancel()

	done := make(chan struct{})
	go func() {
		bs.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
