package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/intentd/intentd/internal/types"
)

// ReconcileDay ensures an outcome record exists for the given day and that
// every intention dated that day has an association row. Idempotent: calling
// it again for the same day converges to the same end state, which also makes
// it safe to re-run after a partially failed attempt.
func (s *SQLiteStore) ReconcileDay(ctx context.Context, day time.Time) (*ReconcileResult, error) {
	dayStr := types.Day(day)
	startStr, endStr := types.DayBounds(day)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var outcomeID int64
	err = tx.GetContext(ctx, &outcomeID, `SELECT id FROM outcomes WHERE date = ?`, dayStr)
	if errors.Is(err, sql.ErrNoRows) {
		res, insertErr := tx.ExecContext(ctx, `INSERT INTO outcomes (reviewed, date) VALUES (0, ?)`, dayStr)
		if insertErr != nil {
			// A concurrent caller can win the unique-constraint race on
			// outcomes.date. Treat as transient and let the next tick retry.
			if isConstraintError(insertErr) {
				return nil, fmt.Errorf("outcome for %s: %w", dayStr, ErrConflict)
			}
			return nil, fmt.Errorf("insert outcome: %w", insertErr)
		}
		outcomeID, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("outcome id: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("select outcome: %w", err)
	}

	var intentionIDs []int64
	err = tx.SelectContext(ctx, &intentionIDs, `
		SELECT id FROM intentions WHERE date >= ? AND date <= ?
	`, startStr, endStr)
	if err != nil {
		return nil, fmt.Errorf("select intentions: %w", err)
	}

	result := &ReconcileResult{OutcomeID: outcomeID}
	for _, intentionID := range intentionIDs {
		var count int64
		err := tx.GetContext(ctx, &count, `
			SELECT COUNT(*) FROM outcomes_intentions WHERE outcome_id = ? AND intention_id = ?
		`, outcomeID, intentionID)
		if err != nil {
			return nil, fmt.Errorf("check association: %w", err)
		}
		if count > 0 {
			continue
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO outcomes_intentions (outcome_id, intention_id) VALUES (?, ?)
		`, outcomeID, intentionID)
		if err != nil {
			// One bad association must not lose the rest of the day; the
			// skipped pair is picked up by the next tick or catch-up pass.
			slog.Warn("association insert failed",
				"component", "store",
				"action", "reconcile_skip",
				"outcome_id", outcomeID,
				"intention_id", intentionID,
				"error", err,
			)
			result.Skipped++
			continue
		}
		result.Linked++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return result, nil
}

// UnreconciledDays returns the distinct UTC days of intentions that have no
// association row anywhere, oldest first. These are the days a catch-up pass
// must reconcile.
func (s *SQLiteStore) UnreconciledDays(ctx context.Context) ([]string, error) {
	var days []string
	err := s.db.SelectContext(ctx, &days, `
		SELECT DISTINCT strftime('%Y-%m-%d', date) FROM intentions i
		WHERE NOT EXISTS (
			SELECT 1 FROM outcomes_intentions oi WHERE oi.intention_id = i.id
		)
		ORDER BY 1 ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select unreconciled days: %w", err)
	}
	return days, nil
}

// isConstraintError reports whether err looks like a SQLite constraint
// violation. The modernc driver does not export a stable error type for
// this, so the message is matched.
func isConstraintError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "constraint")
}
