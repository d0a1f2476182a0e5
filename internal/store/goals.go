package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/intentd/intentd/internal/types"
	"github.com/jmoiron/sqlx"
)

// AddGoal creates an active goal at the end of the order, appending a
// "start" ledger entry. The order number, goal row, and ledger entry are
// committed atomically.
func (s *SQLiteStore) AddGoal(ctx context.Context, g types.NewGoal) (*types.Goal, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	maxOrder, err := maxActiveOrder(ctx, tx)
	if err != nil {
		return nil, err
	}
	if maxOrder >= types.MaxActiveGoals {
		return nil, ErrCapacityExceeded
	}

	goal := types.Goal{
		Active:      true,
		OrderNumber: maxOrder + 1,
		Title:       g.Title,
		Description: g.Description,
		Color:       g.Color,
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO goals (active, order_number, title, description, color)
		VALUES (?, ?, ?, ?, ?)
	`, goal.Active, goal.OrderNumber, goal.Title, goal.Description, goal.Color)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}

	goal.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("goal id: %w", err)
	}

	if err := s.appendGoalLog(ctx, tx, goal.ID, goal.OrderNumber, types.GoalLogStart); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &goal, nil
}

// ArchiveGoal marks a goal inactive and closes the gap it leaves: every
// active goal ordered after it moves down by one, so the active set stays
// contiguous starting at 1. An "end" ledger entry records the event.
func (s *SQLiteStore) ArchiveGoal(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var archivedOrder int
	err = tx.GetContext(ctx, &archivedOrder, `SELECT order_number FROM goals WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read goal order: %w", err)
	}
	// An active goal always carries a positive order number; zero means the
	// goal is already archived or the stored state is corrupt.
	if archivedOrder == 0 {
		return ErrInvariantViolation
	}

	if _, err := tx.ExecContext(ctx, `UPDATE goals SET active = 0, order_number = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("archive goal: %w", err)
	}

	var followers []types.Goal
	err = tx.SelectContext(ctx, &followers, `
		SELECT * FROM goals
		WHERE active = 1 AND order_number > ?
		ORDER BY order_number ASC
	`, archivedOrder)
	if err != nil {
		return fmt.Errorf("select goals to renumber: %w", err)
	}

	for _, follower := range followers {
		_, err := tx.ExecContext(ctx, `UPDATE goals SET order_number = ? WHERE id = ?`,
			follower.OrderNumber-1, follower.ID)
		if err != nil {
			return fmt.Errorf("renumber goal %d: %w", follower.ID, err)
		}
	}

	if err := s.appendGoalLog(ctx, tx, id, archivedOrder, types.GoalLogEnd); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// RestoreGoal reactivates an archived goal at the end of the active order,
// appending a "start" ledger entry.
func (s *SQLiteStore) RestoreGoal(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var goal types.Goal
	err = tx.GetContext(ctx, &goal, `SELECT * FROM goals WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read goal: %w", err)
	}
	if goal.Active {
		return ErrAlreadyActive
	}

	maxOrder, err := maxActiveOrder(ctx, tx)
	if err != nil {
		return err
	}
	if maxOrder >= types.MaxActiveGoals {
		return ErrCapacityExceeded
	}

	restoredOrder := maxOrder + 1
	if _, err := tx.ExecContext(ctx, `UPDATE goals SET active = 1, order_number = ? WHERE id = ?`,
		restoredOrder, id); err != nil {
		return fmt.Errorf("restore goal: %w", err)
	}

	if err := s.appendGoalLog(ctx, tx, id, restoredOrder, types.GoalLogStart); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// EditGoal updates a goal row in full by id. Updating zero rows is an error,
// distinguishing "target doesn't exist" from "nothing changed".
func (s *SQLiteStore) EditGoal(ctx context.Context, g types.Goal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE goals
		SET active = ?, order_number = ?, title = ?, description = ?, color = ?
		WHERE id = ?
	`, g.Active, g.OrderNumber, g.Title, g.Description, g.Color, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateGoals applies a batched upsert: rows with an id are updated, rows
// without are inserted. The whole batch commits or rolls back together.
func (s *SQLiteStore) UpdateGoals(ctx context.Context, goals []types.Goal) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, g := range goals {
		if g.ID != 0 {
			_, err = tx.ExecContext(ctx, `
				UPDATE goals
				SET active = ?, order_number = ?, title = ?, description = ?, color = ?
				WHERE id = ?
			`, g.Active, g.OrderNumber, g.Title, g.Description, g.Color, g.ID)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO goals (active, order_number, title, description, color)
				VALUES (?, ?, ?, ?, ?)
			`, g.Active, g.OrderNumber, g.Title, g.Description, g.Color)
		}
		if err != nil {
			return fmt.Errorf("upsert goal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// DeleteGoal removes a goal and everything that references it: intentions,
// ledger entries, outcome associations, and any outcome left without
// associations. Outcome ids are captured before the association rows are
// deleted; reversing that order would make every outcome look orphaned.
func (s *SQLiteStore) DeleteGoal(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.GetContext(ctx, &exists, `SELECT id FROM goals WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read goal: %w", err)
	}

	var intentionIDs []int64
	if err := tx.SelectContext(ctx, &intentionIDs, `SELECT id FROM intentions WHERE goal_id = ?`, id); err != nil {
		return fmt.Errorf("select intentions: %w", err)
	}

	if len(intentionIDs) > 0 {
		query, args, err := sqlx.In(`
			SELECT DISTINCT outcome_id FROM outcomes_intentions WHERE intention_id IN (?)
		`, intentionIDs)
		if err != nil {
			return fmt.Errorf("build outcome query: %w", err)
		}

		var outcomeIDs []int64
		if err := tx.SelectContext(ctx, &outcomeIDs, query, args...); err != nil {
			return fmt.Errorf("select associated outcomes: %w", err)
		}

		query, args, err = sqlx.In(`DELETE FROM outcomes_intentions WHERE intention_id IN (?)`, intentionIDs)
		if err != nil {
			return fmt.Errorf("build association delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete associations: %w", err)
		}

		if err := deleteOrphanedOutcomes(ctx, tx, outcomeIDs); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM intentions WHERE goal_id = ?`, id); err != nil {
		return fmt.Errorf("delete intentions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM goal_logs WHERE goal_id = ?`, id); err != nil {
		return fmt.Errorf("delete goal logs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// deleteOrphanedOutcomes removes each outcome that no longer has any
// association rows. An outcome with no intentions is meaningless.
func deleteOrphanedOutcomes(ctx context.Context, tx *sqlx.Tx, outcomeIDs []int64) error {
	for _, outcomeID := range outcomeIDs {
		var remaining int64
		err := tx.GetContext(ctx, &remaining,
			`SELECT COUNT(*) FROM outcomes_intentions WHERE outcome_id = ?`, outcomeID)
		if err != nil {
			return fmt.Errorf("count associations for outcome %d: %w", outcomeID, err)
		}

		if remaining == 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM outcomes WHERE id = ?`, outcomeID); err != nil {
				return fmt.Errorf("delete orphaned outcome %d: %w", outcomeID, err)
			}
		}
	}
	return nil
}

// ListGoals returns goals filtered by active state, ordered by order number.
func (s *SQLiteStore) ListGoals(ctx context.Context, active bool) ([]types.Goal, error) {
	var goals []types.Goal
	err := s.db.SelectContext(ctx, &goals, `
		SELECT * FROM goals WHERE active = ? ORDER BY order_number ASC
	`, active)
	if err != nil {
		return nil, fmt.Errorf("select goals: %w", err)
	}
	return goals, nil
}

// ListGoalsByActivity returns goals joined with their most recent ledger
// date, newest first.
func (s *SQLiteStore) ListGoalsByActivity(ctx context.Context, active bool) ([]types.GoalActivity, error) {
	var goals []types.GoalActivity
	err := s.db.SelectContext(ctx, &goals, `
		SELECT
			goals.id, goals.active, goals.order_number, goals.title,
			goals.description, goals.color,
			MAX(goal_logs.date) AS last_logged_at
		FROM goals
		INNER JOIN goal_logs ON goals.id = goal_logs.goal_id
		WHERE goals.active = ?
		  AND goal_logs.type IN ('start', 'end')
		GROUP BY goals.id
		ORDER BY last_logged_at DESC
	`, active)
	if err != nil {
		return nil, fmt.Errorf("select goals by activity: %w", err)
	}
	return goals, nil
}

// GetGoalStats returns aggregate goal counts.
func (s *SQLiteStore) GetGoalStats(ctx context.Context) (*GoalStats, error) {
	var stats GoalStats
	if err := s.db.GetContext(ctx, &stats.Total, `SELECT COUNT(*) FROM goals`); err != nil {
		return nil, fmt.Errorf("count goals: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.Active, `SELECT COUNT(*) FROM goals WHERE active = 1`); err != nil {
		return nil, fmt.Errorf("count active goals: %w", err)
	}
	return &stats, nil
}

// maxActiveOrder returns the highest order number among active goals,
// or zero when none are active.
func maxActiveOrder(ctx context.Context, tx *sqlx.Tx) (int, error) {
	var max int
	err := tx.GetContext(ctx, &max,
		`SELECT COALESCE(MAX(order_number), 0) FROM goals WHERE active = 1`)
	if err != nil {
		return 0, fmt.Errorf("max active order: %w", err)
	}
	return max, nil
}

// appendGoalLog writes one ledger entry inside the caller's transaction.
// The order number is an informational snapshot taken at event time.
func (s *SQLiteStore) appendGoalLog(ctx context.Context, tx *sqlx.Tx, goalID int64, orderNumber int, logType types.GoalLogType) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO goal_logs (goal_id, order_number, type, date)
		VALUES (?, ?, ?, ?)
	`, goalID, orderNumber, logType, types.Timestamp(s.now()))
	if err != nil {
		return fmt.Errorf("append goal log: %w", err)
	}
	return nil
}
