// Package cleanup runs the scheduled sweep that reconciles courses whose
// synthesis died without reaching a terminal state.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/store"
)

// timeoutMessage is what stuck courses get as their error message.
const timeoutMessage = "Course creation timed out."

// Service periodically fails courses stuck in CREATING.
type Service struct {
	store     *store.Store
	interval  time.Duration
	threshold time.Duration
	logger    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates the sweep. interval is how often it runs; threshold is
// how old a CREATING course must be before it is declared dead.
func NewService(st *store.Store, interval, threshold time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:     st,
		interval:  interval,
		threshold: threshold,
		logger:    logger.With("component", "cleanup"),
	}
}

// Start launches the sweep loop. One sweep runs immediately so a restart
// reconciles orphans without waiting a full interval.
func (s *Service) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.sweep(ctx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
	s.logger.Info("cleanup service started", "interval", s.interval, "threshold", s.threshold)
}

// Stop halts the sweep loop and waits for an in-progress sweep.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("cleanup service stopped")
}

// sweep fails every course stuck past the threshold. Errors are logged and
// the loop continues; a failed sweep retries at the next tick.
func (s *Service) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.threshold)
	stuck, err := s.store.Courses.ListStuck(ctx, cutoff)
	if err != nil {
		s.logger.Error("sweep failed to list stuck courses", "error", err)
		return
	}
	for _, course := range stuck {
		if err := s.store.Courses.UpdateStatus(ctx, course.ID, models.CourseStatusFailed, timeoutMessage); err != nil {
			s.logger.Error("sweep failed to mark course", "course_id", course.ID, "error", err)
			continue
		}
		s.logger.Warn("stuck course marked failed",
			"course_id", course.ID, "user_id", course.UserID, "created_at", course.CreatedAt)
	}
	if len(stuck) > 0 {
		s.logger.Info("sweep completed", "failed_courses", len(stuck))
	}
}
