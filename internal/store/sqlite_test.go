package store

import (
	"context"
	"testing"
	"time"

	"github.com/intentd/intentd/internal/types"
)

// newTestStore opens a fresh in-memory store with a fixed clock.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	s.now = func() time.Time {
		return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	}
	return s
}

// addTestGoal inserts an active goal and returns it.
func addTestGoal(t *testing.T, s *SQLiteStore, title string) *types.Goal {
	t.Helper()

	goal, err := s.AddGoal(context.Background(), types.NewGoal{
		Title: title,
		Color: "blue",
	})
	if err != nil {
		t.Fatalf("add goal %q: %v", title, err)
	}
	return goal
}

// addTestIntention inserts one intention for a goal dated at noon UTC on day.
func addTestIntention(t *testing.T, s *SQLiteStore, goalID int64, day string, text string) types.Intention {
	t.Helper()

	d, err := types.ParseDay(day)
	if err != nil {
		t.Fatalf("parse day %q: %v", day, err)
	}

	inserted, err := s.UpsertIntentions(context.Background(), []types.Intention{{
		GoalID:      goalID,
		OrderNumber: 1,
		Text:        text,
		Date:        types.Timestamp(d.Add(12 * time.Hour)),
	}})
	if err != nil {
		t.Fatalf("insert intention: %v", err)
	}
	return inserted[0]
}

func TestNewSQLiteStore(t *testing.T) {
	s, err := NewMemoryStore()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
}

func TestGetGoalStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stats, err := s.GetGoalStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 0 || stats.Active != 0 {
		t.Errorf("empty store stats = %+v", stats)
	}

	g := addTestGoal(t, s, "read more")
	addTestGoal(t, s, "run more")
	if err := s.ArchiveGoal(ctx, g.ID); err != nil {
		t.Fatal(err)
	}

	stats, err = s.GetGoalStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
	if stats.Active != 1 {
		t.Errorf("Active = %d, want 1", stats.Active)
	}
}
