// Package store owns all durable state: goals with their order-number
// invariant, the goal activity ledger, daily intentions, and the
// outcome-to-intention associations maintained by reconciliation.
package store

import (
	"context"
	"time"

	"github.com/intentd/intentd/internal/types"
)

// ListOutcomesOptions narrows and pages outcome listings.
// Zero values mean "no constraint".
type ListOutcomesOptions struct {
	StartDay   string
	EndDay     string
	Limit      int
	Offset     int
	Descending bool
}

// ReconcileResult reports what a single-day reconciliation did.
type ReconcileResult struct {
	OutcomeID int64
	Linked    int
	Skipped   int
}

// GoalStats holds aggregate goal counts for health reporting.
type GoalStats struct {
	Total  int64
	Active int64
}

// Store is the persistence contract consumed by the API layer and the
// reconciliation worker.
type Store interface {
	// Goals
	AddGoal(ctx context.Context, g types.NewGoal) (*types.Goal, error)
	EditGoal(ctx context.Context, g types.Goal) error
	UpdateGoals(ctx context.Context, goals []types.Goal) error
	ArchiveGoal(ctx context.Context, id int64) error
	RestoreGoal(ctx context.Context, id int64) error
	DeleteGoal(ctx context.Context, id int64) error
	ListGoals(ctx context.Context, active bool) ([]types.Goal, error)
	ListGoalsByActivity(ctx context.Context, active bool) ([]types.GoalActivity, error)
	GetGoalStats(ctx context.Context) (*GoalStats, error)

	// Goal ledger
	GoalLogs(ctx context.Context, goalID int64) ([]types.GoalLog, error)

	// Intentions
	ListIntentions(ctx context.Context, start, end time.Time) ([]types.Intention, error)
	ListIntentionsOnLatestDay(ctx context.Context) ([]types.Intention, error)
	UpsertIntentions(ctx context.Context, intentions []types.Intention) ([]types.Intention, error)
	AppendIntentionText(ctx context.Context, id int64, text string) error

	// Outcomes
	OutcomeByDay(ctx context.Context, day string) (*types.Outcome, error)
	ListOutcomes(ctx context.Context, opts ListOutcomesOptions) ([]types.Outcome, error)
	OutcomeIntentions(ctx context.Context, outcomeID int64) ([]types.OutcomeIntention, error)
	ReviewOutcome(ctx context.Context, req types.ReviewOutcomeRequest) (int64, error)

	// Reconciliation
	ReconcileDay(ctx context.Context, day time.Time) (*ReconcileResult, error)
	UnreconciledDays(ctx context.Context) ([]string, error)

	Close() error
}
