package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// AnalysisJob asks an analyzer worker to run the vision extraction for one
// stored receipt. UserID overrides the owner recorded on the receipt when
// set.
type AnalysisJob struct {
	ReceiptID int64  `json:"receipt_id"`
	UserID    *int64 `json:"user_id,omitempty"`
}

// PublishAnalysisJob enqueues an analysis job for the given receipt.
func (q *Queue) PublishAnalysisJob(ctx context.Context, job AnalysisJob) (string, error) {
	if job.ReceiptID <= 0 {
		return "", fmt.Errorf("receipt id is required")
	}
	return q.PublishJSON(ctx, job, map[string]string{
		"receipt_id": strconv.FormatInt(job.ReceiptID, 10),
	})
}

// ParseAnalysisJob decodes a consumed message back into a job.
func ParseAnalysisJob(msg *Message) (AnalysisJob, error) {
	var job AnalysisJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		return job, fmt.Errorf("failed to decode analysis job: %w", err)
	}
	if job.ReceiptID <= 0 {
		return job, fmt.Errorf("analysis job has no receipt id")
	}
	return job, nil
}
