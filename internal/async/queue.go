// Package async runs the normalization pipeline over a bounded worker pool.
package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/subsidy-tracker/internal/core"
)

// Job is the smallest useful unit. Extend as needed later (trace, retry, etc).
type Job struct {
	Input       core.RawInput
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
