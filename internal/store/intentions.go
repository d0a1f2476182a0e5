package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/intentd/intentd/internal/types"
)

// ListIntentions returns intentions whose timestamps fall within the
// UTC-normalized day bounds of [start, end], ordered by order number.
func (s *SQLiteStore) ListIntentions(ctx context.Context, start, end time.Time) ([]types.Intention, error) {
	startStr, _ := types.DayBounds(start)
	_, endStr := types.DayBounds(end)

	var intentions []types.Intention
	err := s.db.SelectContext(ctx, &intentions, `
		SELECT * FROM intentions
		WHERE date >= ? AND date <= ?
		ORDER BY order_number ASC
	`, startStr, endStr)
	if err != nil {
		return nil, fmt.Errorf("select intentions: %w", err)
	}
	return intentions, nil
}

// ListIntentionsOnLatestDay returns the intentions of the most recent day
// that has any, or an empty slice when the table is empty.
func (s *SQLiteStore) ListIntentionsOnLatestDay(ctx context.Context) ([]types.Intention, error) {
	var latest string
	err := s.db.GetContext(ctx, &latest, `SELECT date FROM intentions ORDER BY date DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return []types.Intention{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest intention date: %w", err)
	}

	day, err := time.Parse(time.RFC3339, latest)
	if err != nil {
		return nil, fmt.Errorf("parse latest intention date: %w", err)
	}

	return s.ListIntentions(ctx, day, day)
}

// UpsertIntentions replaces intentions by id, inserting the ones without an
// id. The whole batch commits or rolls back together.
func (s *SQLiteStore) UpsertIntentions(ctx context.Context, intentions []types.Intention) ([]types.Intention, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result := make([]types.Intention, 0, len(intentions))
	for _, in := range intentions {
		// Dates are stored in one canonical UTC millisecond form. Day-range
		// filtering compares raw strings, so an offset-bearing or fractionless
		// RFC 3339 date written verbatim would escape its own day's bounds.
		parsed, err := time.Parse(time.RFC3339, in.Date)
		if err != nil {
			return nil, fmt.Errorf("parse intention date %q: %w", in.Date, err)
		}
		in.Date = types.Timestamp(parsed)

		if in.ID != 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO intentions
					(id, goal_id, order_number, completed, text, sub_intention_qualifier, date)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, in.ID, in.GoalID, in.OrderNumber, in.Completed, in.Text, in.SubIntentionQualifier, in.Date)
			if err != nil {
				return nil, fmt.Errorf("replace intention %d: %w", in.ID, err)
			}
		} else {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO intentions
					(goal_id, order_number, completed, text, sub_intention_qualifier, date)
				VALUES (?, ?, ?, ?, ?, ?)
			`, in.GoalID, in.OrderNumber, in.Completed, in.Text, in.SubIntentionQualifier, in.Date)
			if err != nil {
				return nil, fmt.Errorf("insert intention: %w", err)
			}
			in.ID, err = res.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("intention id: %w", err)
			}
		}
		result = append(result, in)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return result, nil
}

// AppendIntentionText appends text to an intention's text field.
func (s *SQLiteStore) AppendIntentionText(ctx context.Context, id int64, text string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE intentions SET text = text || ? WHERE id = ?`, text, id)
	if err != nil {
		return fmt.Errorf("append intention text: %w", err)
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
