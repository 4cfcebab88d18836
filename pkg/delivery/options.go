package delivery

import (
	"log/slog"
	"time"
)

type workerOptions struct {
	pollInterval  time.Duration
	sweepInterval time.Duration
	batchSize     int
	logger        *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*workerOptions)

// WithPollInterval sets how often the worker checks for due notifications.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithSweepInterval sets how often expired notifications are purged.
func WithSweepInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.sweepInterval = d
		}
	}
}

// WithBatchSize caps how many due notifications one poll processes.
func WithBatchSize(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithLogger sets the worker's logger.
func WithLogger(log *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if log != nil {
			o.logger = log
		}
	}
}
