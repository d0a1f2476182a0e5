package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/intentd/intentd/internal/types"
)

// GoalLogs returns a goal's ledger entries in chronological order.
// Fails with ErrNotFound when the goal itself is absent.
func (s *SQLiteStore) GoalLogs(ctx context.Context, goalID int64) ([]types.GoalLog, error) {
	var exists int64
	err := s.db.GetContext(ctx, &exists, `SELECT id FROM goals WHERE id = ?`, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read goal: %w", err)
	}

	var logs []types.GoalLog
	err = s.db.SelectContext(ctx, &logs, `
		SELECT * FROM goal_logs WHERE goal_id = ? ORDER BY date ASC, id ASC
	`, goalID)
	if err != nil {
		return nil, fmt.Errorf("select goal logs: %w", err)
	}
	return logs, nil
}
