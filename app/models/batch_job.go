package models

import "time"

// Batch job statuses
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// BatchItem is the outcome for one address of a batch job
type BatchItem struct {
	Index   int           `json:"index"`
	Address string        `json:"address"`
	Result  *SearchResult `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// BatchJob tracks a batch search run in the background
type BatchJob struct {
	ID        string      `json:"job_id"`
	Status    string      `json:"status"`
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	Total     int         `json:"total"`
	Items     []BatchItem `json:"-"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Progress is the processed share, 0..1
func (j *BatchJob) Progress() float64 {
	if j.Total == 0 {
		return 1
	}
	return float64(j.Processed) / float64(j.Total)
}

// Finished reports whether the job stopped running
func (j *BatchJob) Finished() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}
