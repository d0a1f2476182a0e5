// Package worker contains the background reconciliation scheduler.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/intentd/intentd/internal/store"
	"github.com/intentd/intentd/internal/types"
)

// ReconcileStore defines the store operations needed by the scheduler.
type ReconcileStore interface {
	ReconcileDay(ctx context.Context, day time.Time) (*store.ReconcileResult, error)
	UnreconciledDays(ctx context.Context) ([]string, error)
}

// Scheduler drives outcome reconciliation. It moves through two states:
// uninitialized, then scheduled. Bootstrap runs the one-time catch-up pass
// and marks the scheduler registered; Run fires the recurring daily trigger.
// All durable state lives in the outcome tables, which is what makes catch-up
// correct after a restart.
type Scheduler struct {
	store      ReconcileStore
	fireAt     string // wall-clock "HH:MM"
	fireHour   int
	fireMinute int
	loc        *time.Location // location the wall-clock time is interpreted in
	now        func() time.Time

	mu         sync.Mutex
	registered bool
}

// NewScheduler creates a scheduler firing daily at fireAt wall-clock time in
// loc, reconciling the previous UTC calendar day on each fire. Fails when
// fireAt is not a valid "HH:MM" time.
func NewScheduler(s ReconcileStore, fireAt string, loc *time.Location) (*Scheduler, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(fireAt, "%d:%d", &hour, &minute); err != nil {
		return nil, fmt.Errorf("invalid fire time %q: %w", fireAt, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid fire time %q", fireAt)
	}

	return &Scheduler{
		store:      s,
		fireAt:     fireAt,
		fireHour:   hour,
		fireMinute: minute,
		loc:        loc,
		now:        time.Now,
	}, nil
}

// Bootstrap performs the one-time start-of-process sequence: a catch-up pass
// covering every intention-day missing associations, then registration of
// the recurring trigger. Returns true without doing either when a trigger
// was already registered in this process; the catch-up must observe "no job
// registered" before registration happens, or it would always skip itself.
func (s *Scheduler) Bootstrap(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registered {
		return true, nil
	}

	if err := s.catchUp(ctx); err != nil {
		return false, err
	}

	s.registered = true
	return false, nil
}

// catchUp reconciles every day that has intentions without association rows.
// One transaction per day; a failed day is logged and skipped so a single bad
// day cannot block the others (the next tick or restart retries it).
func (s *Scheduler) catchUp(ctx context.Context) error {
	start := s.now()

	days, err := s.store.UnreconciledDays(ctx)
	if err != nil {
		return fmt.Errorf("list unreconciled days: %w", err)
	}

	slog.Info("catch-up started",
		"component", "worker",
		"worker", "reconciliation",
		"days", len(days),
	)

	var failed int
	for _, dayStr := range days {
		day, err := types.ParseDay(dayStr)
		if err != nil {
			slog.Error("catch-up day unparseable",
				"component", "worker",
				"worker", "reconciliation",
				"day", dayStr,
				"error", err,
			)
			failed++
			continue
		}

		result, err := s.store.ReconcileDay(ctx, day)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("catch-up day failed",
				"component", "worker",
				"worker", "reconciliation",
				"day", dayStr,
				"error", err,
			)
			failed++
			continue
		}

		slog.Debug("catch-up day reconciled",
			"component", "worker",
			"worker", "reconciliation",
			"day", dayStr,
			"linked", result.Linked,
			"skipped", result.Skipped,
		)
	}

	slog.Info("catch-up completed",
		"component", "worker",
		"worker", "reconciliation",
		"days", len(days),
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Run fires the recurring trigger once per day at the configured wall-clock
// time. Blocks until ctx is cancelled. Bootstrap must have run first.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "reconciliation",
		"fire_at", s.fireAt,
		"location", s.loc.String(),
	)

	for {
		wait := time.Until(s.nextFire())
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "reconciliation",
				"reason", "context_cancelled",
			)
			return
		case <-timer.C:
			s.runTick(ctx)
		}
	}
}

// runTick reconciles the previous UTC calendar day.
func (s *Scheduler) runTick(ctx context.Context) {
	start := s.now()
	previousDay := start.UTC().AddDate(0, 0, -1)

	result, err := s.store.ReconcileDay(ctx, previousDay)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// No automatic retry: the day stays un-reconciled until the next
		// tick or a restart catch-up picks it up.
		slog.Error("reconciliation failed",
			"component", "worker",
			"action", "reconcile_failed",
			"day", types.Day(previousDay),
			"error", err,
		)
		return
	}

	slog.Info("reconciliation completed",
		"component", "worker",
		"action", "reconcile_complete",
		"day", types.Day(previousDay),
		"linked", result.Linked,
		"skipped", result.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// nextFire returns the next occurrence of the configured wall-clock time,
// strictly after now.
func (s *Scheduler) nextFire() time.Time {
	now := s.now().In(s.loc)

	next := time.Date(now.Year(), now.Month(), now.Day(), s.fireHour, s.fireMinute, 0, 0, s.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
