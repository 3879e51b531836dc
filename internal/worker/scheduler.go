package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"budgeteer/internal/ledger"
)

// Scheduler enqueues periodic sync requests for a fixed set of users.
type Scheduler struct {
	cron    *cron.Cron
	pub     ledger.SyncPublisher
	userIDs []string
}

func NewScheduler(pub ledger.SyncPublisher, userIDs []string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		pub:     pub,
		userIDs: userIDs,
	}
}

// Start registers the schedule (standard 5-field cron spec) and starts the
// timer. It returns immediately.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.enqueueAll); err != nil {
		return fmt.Errorf("parse sync schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	slog.Info("Sync scheduler started", "schedule", schedule, "users", len(s.userIDs))
	return nil
}

// Stop halts the timer and waits for any in-flight enqueue to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) enqueueAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, userID := range s.userIDs {
		if err := s.pub.PublishSyncRequest(ctx, userID); err != nil {
			slog.ErrorContext(ctx, "Failed to enqueue scheduled sync",
				"user_id", userID,
				"error", err)
			continue
		}
	}
}
