package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/intentd/intentd/internal/types"
)

// OutcomeByDay returns the outcome for a YYYY-MM-DD day, or ErrNotFound.
func (s *SQLiteStore) OutcomeByDay(ctx context.Context, day string) (*types.Outcome, error) {
	var outcome types.Outcome
	err := s.db.GetContext(ctx, &outcome, `SELECT * FROM outcomes WHERE date = ?`, day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select outcome: %w", err)
	}
	return &outcome, nil
}

// ListOutcomes returns outcomes, optionally constrained to a day range and
// paged. Ordered by id, ascending unless opts.Descending.
func (s *SQLiteStore) ListOutcomes(ctx context.Context, opts ListOutcomesOptions) ([]types.Outcome, error) {
	query := `SELECT * FROM outcomes`
	var args []any
	var where []string

	if opts.StartDay != "" {
		where = append(where, `date >= ?`)
		args = append(args, opts.StartDay)
	}
	if opts.EndDay != "" {
		where = append(where, `date <= ?`)
		args = append(args, opts.EndDay)
	}
	for i, clause := range where {
		if i == 0 {
			query += ` WHERE ` + clause
		} else {
			query += ` AND ` + clause
		}
	}

	if opts.Descending {
		query += ` ORDER BY id DESC`
	} else {
		query += ` ORDER BY id ASC`
	}

	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, opts.Offset)
		}
	}

	var outcomes []types.Outcome
	if err := s.db.SelectContext(ctx, &outcomes, query, args...); err != nil {
		return nil, fmt.Errorf("select outcomes: %w", err)
	}
	return outcomes, nil
}

// OutcomeIntentions returns the association rows of one outcome.
func (s *SQLiteStore) OutcomeIntentions(ctx context.Context, outcomeID int64) ([]types.OutcomeIntention, error) {
	var associations []types.OutcomeIntention
	err := s.db.SelectContext(ctx, &associations, `
		SELECT outcome_id, intention_id FROM outcomes_intentions WHERE outcome_id = ?
	`, outcomeID)
	if err != nil {
		return nil, fmt.Errorf("select outcome intentions: %w", err)
	}
	return associations, nil
}

// ReviewOutcome records a day's review. The outcome for the date is created
// if missing, its reviewed flag set otherwise, and the given intentions are
// associated with it. Returns the outcome id.
func (s *SQLiteStore) ReviewOutcome(ctx context.Context, req types.ReviewOutcomeRequest) (int64, error) {
	if _, err := types.ParseDay(req.Date); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var outcomeID int64
	err = tx.GetContext(ctx, &outcomeID, `SELECT id FROM outcomes WHERE date = ?`, req.Date)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx, `INSERT INTO outcomes (reviewed, date) VALUES (?, ?)`,
			req.Reviewed, req.Date)
		if err != nil {
			return 0, fmt.Errorf("insert outcome: %w", err)
		}
		outcomeID, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("outcome id: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("select outcome: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, `UPDATE outcomes SET reviewed = ? WHERE id = ?`,
			req.Reviewed, outcomeID); err != nil {
			return 0, fmt.Errorf("update outcome: %w", err)
		}
	}

	for _, intentionID := range req.IntentionIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO outcomes_intentions (outcome_id, intention_id)
			VALUES (?, ?)
		`, outcomeID, intentionID)
		if err != nil {
			return 0, fmt.Errorf("associate intention %d: %w", intentionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return outcomeID, nil
}
