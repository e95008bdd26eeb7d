package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// SnapshotScheduler runs the snapshot executor on a cron schedule
type SnapshotScheduler struct {
	cron     *cron.Cron
	executor *Executor
	logger   *zap.Logger
	mu       sync.RWMutex
	entryID  cron.EntryID
	expr     string
	running  bool
	last     *ExecutionResult
}

// NewSnapshotScheduler creates a scheduler; nothing runs until Schedule and Start are called
func NewSnapshotScheduler(executor *Executor, logger *zap.Logger) *SnapshotScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotScheduler{
		cron:     cron.New(cron.WithParser(cronParser)),
		executor: executor,
		logger:   logger,
	}
}

// Schedule replaces the current schedule with expr
func (s *SnapshotScheduler) Schedule(expr string) error {
	if err := ValidateCronExpression(expr); err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}

	entryID, err := s.cron.AddFunc(expr, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("Scheduled snapshot failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = entryID
	s.expr = expr

	s.logger.Info("Snapshot schedule set",
		zap.String("cron", expr),
		zap.String("description", DescribeCronExpression(expr)))
	return nil
}

// Start starts the cron loop
func (s *SnapshotScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("snapshot scheduler already running")
	}
	s.running = true
	s.cron.Start()
	s.logger.Info("Snapshot scheduler started")
	return nil
}

// Stop stops the cron loop and waits for a running snapshot to finish
func (s *SnapshotScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Snapshot scheduler stopped")
}

// RunOnce executes a snapshot immediately
func (s *SnapshotScheduler) RunOnce(ctx context.Context) (*ExecutionResult, error) {
	result, err := s.executor.Execute(ctx)

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	if err != nil {
		return result, err
	}
	s.logger.Info("Snapshot completed",
		zap.String("execution_id", result.ExecutionID.String()),
		zap.String("status", result.Status),
		zap.Strings("files", result.Files),
		zap.Int64("duration_ms", result.DurationMs))
	return result, nil
}

// JobStatus represents the status of the snapshot job
type JobStatus struct {
	Cron    string           `json:"cron"`
	NextRun time.Time        `json:"next_run"`
	PrevRun time.Time        `json:"prev_run"`
	Running bool             `json:"running"`
	Last    *ExecutionResult `json:"last,omitempty"`
}

// Status returns the schedule and the last run
func (s *SnapshotScheduler) Status() JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := JobStatus{Cron: s.expr, Running: s.running, Last: s.last}
	if s.entryID != 0 {
		entry := s.cron.Entry(s.entryID)
		status.NextRun = entry.Next
		status.PrevRun = entry.Prev
	}
	return status
}

// NextRun computes when expr next fires after from
func NextRun(expr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(from), nil
}

// ValidateCronExpression validates a cron expression (seconds field optional)
func ValidateCronExpression(expr string) error {
	_, err := cronParser.Parse(expr)
	return err
}

// DescribeCronExpression returns a human-readable description of a cron expression
func DescribeCronExpression(expr string) string {
	switch expr {
	case "0 * * * *", "@hourly":
		return "Every hour"
	case "0 0 * * *", "@daily", "@midnight":
		return "Every day at midnight"
	case "0 0 * * 0", "@weekly":
		return "Every Sunday at midnight"
	case "0 0 1 * *", "@monthly":
		return "First day of every month at midnight"
	case "0 9 * * 1-5":
		return "Every weekday at 9:00 AM"
	default:
		return expr
	}
}
