package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/intentd/intentd/internal/types"
)

// activeOrders returns the order numbers of active goals, in list order.
func activeOrders(t *testing.T, s *SQLiteStore) []int {
	t.Helper()

	goals, err := s.ListGoals(context.Background(), true)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	orders := make([]int, len(goals))
	for i, g := range goals {
		orders[i] = g.OrderNumber
	}
	return orders
}

// assertContiguous fails unless orders are exactly 1..N.
func assertContiguous(t *testing.T, orders []int) {
	t.Helper()
	for i, o := range orders {
		if o != i+1 {
			t.Fatalf("active order numbers = %v, want contiguous 1..%d", orders, len(orders))
		}
	}
}

func TestAddGoal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	goal := addTestGoal(t, s, "write every day")

	if goal.ID == 0 {
		t.Error("expected goal id to be set")
	}
	if !goal.Active {
		t.Error("expected new goal to be active")
	}
	if goal.OrderNumber != 1 {
		t.Errorf("OrderNumber = %d, want 1", goal.OrderNumber)
	}

	second := addTestGoal(t, s, "sleep earlier")
	if second.OrderNumber != 2 {
		t.Errorf("second OrderNumber = %d, want 2", second.OrderNumber)
	}

	// The add appends a "start" ledger entry
	logs, err := s.GoalLogs(ctx, goal.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	if logs[0].Type != types.GoalLogStart {
		t.Errorf("log type = %q, want start", logs[0].Type)
	}
}

func TestAddGoal_CapacityExceeded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < types.MaxActiveGoals; i++ {
		addTestGoal(t, s, "goal")
	}

	_, err := s.AddGoal(ctx, types.NewGoal{Title: "one too many", Color: "red"})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}

	// Active set unchanged
	orders := activeOrders(t, s)
	if len(orders) != types.MaxActiveGoals {
		t.Errorf("active count = %d, want %d", len(orders), types.MaxActiveGoals)
	}
	assertContiguous(t, orders)
}

func TestArchiveGoal_ClosesGap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := addTestGoal(t, s, "first")
	second := addTestGoal(t, s, "second")
	third := addTestGoal(t, s, "third")

	if err := s.ArchiveGoal(ctx, second.ID); err != nil {
		t.Fatal(err)
	}

	goals, err := s.ListGoals(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 2 {
		t.Fatalf("active goals = %d, want 2", len(goals))
	}
	if goals[0].ID != first.ID || goals[0].OrderNumber != 1 {
		t.Errorf("goal #1 = id %d order %d, want id %d order 1", goals[0].ID, goals[0].OrderNumber, first.ID)
	}
	if goals[1].ID != third.ID || goals[1].OrderNumber != 2 {
		t.Errorf("goal #3 = id %d order %d, want id %d order 2", goals[1].ID, goals[1].OrderNumber, third.ID)
	}

	archived, err := s.ListGoals(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 || archived[0].ID != second.ID {
		t.Fatalf("archived goals = %+v, want just goal %d", archived, second.ID)
	}
	if archived[0].OrderNumber != 0 {
		t.Errorf("archived OrderNumber = %d, want 0", archived[0].OrderNumber)
	}

	// Archive appends an "end" ledger entry
	logs, err := s.GoalLogs(ctx, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[1].Type != types.GoalLogEnd {
		t.Errorf("last log type = %q, want end", logs[1].Type)
	}
}

func TestArchiveGoal_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.ArchiveGoal(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestArchiveGoal_AlreadyArchived(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	goal := addTestGoal(t, s, "twice archived")
	if err := s.ArchiveGoal(ctx, goal.ID); err != nil {
		t.Fatal(err)
	}

	err := s.ArchiveGoal(ctx, goal.ID)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("err = %v, want ErrInvariantViolation", err)
	}
}

func TestRestoreGoal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	goal := addTestGoal(t, s, "paused")
	addTestGoal(t, s, "ongoing")
	if err := s.ArchiveGoal(ctx, goal.ID); err != nil {
		t.Fatal(err)
	}

	if err := s.RestoreGoal(ctx, goal.ID); err != nil {
		t.Fatal(err)
	}

	goals, err := s.ListGoals(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 2 {
		t.Fatalf("active goals = %d, want 2", len(goals))
	}
	// Restored goal joins at the end of the order
	if goals[1].ID != goal.ID || goals[1].OrderNumber != 2 {
		t.Errorf("restored goal = id %d order %d, want id %d order 2", goals[1].ID, goals[1].OrderNumber, goal.ID)
	}

	logs, err := s.GoalLogs(ctx, goal.ID)
	if err != nil {
		t.Fatal(err)
	}
	wantTypes := []types.GoalLogType{types.GoalLogStart, types.GoalLogEnd, types.GoalLogStart}
	if len(logs) != len(wantTypes) {
		t.Fatalf("got %d logs, want %d", len(logs), len(wantTypes))
	}
	for i, want := range wantTypes {
		if logs[i].Type != want {
			t.Errorf("log[%d] type = %q, want %q", i, logs[i].Type, want)
		}
	}
}

func TestRestoreGoal_AlreadyActive(t *testing.T) {
	s := newTestStore(t)

	goal := addTestGoal(t, s, "already running")
	err := s.RestoreGoal(context.Background(), goal.ID)
	if !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("err = %v, want ErrAlreadyActive", err)
	}
}

func TestRestoreGoal_CapacityExceeded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	archived := addTestGoal(t, s, "benched")
	if err := s.ArchiveGoal(ctx, archived.ID); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < types.MaxActiveGoals; i++ {
		addTestGoal(t, s, "goal")
	}

	err := s.RestoreGoal(ctx, archived.ID)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
}

func TestRestoreGoal_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.RestoreGoal(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// The order invariant survives arbitrary interleavings of add, archive,
// and restore.
func TestGoalOrderInvariant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g1 := addTestGoal(t, s, "one")
	g2 := addTestGoal(t, s, "two")
	g3 := addTestGoal(t, s, "three")
	g4 := addTestGoal(t, s, "four")

	steps := []func() error{
		func() error { return s.ArchiveGoal(ctx, g2.ID) },
		func() error { return s.ArchiveGoal(ctx, g1.ID) },
		func() error { return s.RestoreGoal(ctx, g2.ID) },
		func() error { return s.ArchiveGoal(ctx, g4.ID) },
		func() error { return s.RestoreGoal(ctx, g1.ID) },
		func() error { return s.ArchiveGoal(ctx, g3.ID) },
	}

	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		assertContiguous(t, activeOrders(t, s))
	}
}

func TestEditGoal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	goal := addTestGoal(t, s, "old title")
	goal.Title = "new title"
	goal.Color = "green"

	if err := s.EditGoal(ctx, *goal); err != nil {
		t.Fatal(err)
	}

	goals, err := s.ListGoals(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if goals[0].Title != "new title" || goals[0].Color != "green" {
		t.Errorf("edited goal = %+v", goals[0])
	}
}

func TestEditGoal_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.EditGoal(context.Background(), types.Goal{ID: 7, Title: "ghost", Color: "grey"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateGoals_Upserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existing := addTestGoal(t, s, "existing")
	existing.Title = "renamed"

	err := s.UpdateGoals(ctx, []types.Goal{
		*existing,
		{Active: true, OrderNumber: 2, Title: "brand new", Color: "orange"},
	})
	if err != nil {
		t.Fatal(err)
	}

	goals, err := s.ListGoals(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 2 {
		t.Fatalf("active goals = %d, want 2", len(goals))
	}
	if goals[0].Title != "renamed" {
		t.Errorf("goals[0].Title = %q", goals[0].Title)
	}
	if goals[1].Title != "brand new" {
		t.Errorf("goals[1].Title = %q", goals[1].Title)
	}
}

func TestDeleteGoal_CascadeComplete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	goal := addTestGoal(t, s, "doomed")
	other := addTestGoal(t, s, "survivor")

	in1 := addTestIntention(t, s, goal.ID, "2024-01-10", "doomed intention 1")
	in2 := addTestIntention(t, s, goal.ID, "2024-01-11", "doomed intention 2")
	kept := addTestIntention(t, s, other.ID, "2024-01-11", "kept intention")

	// Outcome on the 10th is associated only with the doomed goal's
	// intention; the one on the 11th also has a survivor.
	if _, err := s.ReviewOutcome(ctx, types.ReviewOutcomeRequest{
		Date: "2024-01-10", Reviewed: true, IntentionIDs: []int64{in1.ID},
	}); err != nil {
		t.Fatal(err)
	}
	sharedID, err := s.ReviewOutcome(ctx, types.ReviewOutcomeRequest{
		Date: "2024-01-11", Reviewed: true, IntentionIDs: []int64{in2.ID, kept.ID},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteGoal(ctx, goal.ID); err != nil {
		t.Fatal(err)
	}

	// No goal, no logs
	if _, err := s.GoalLogs(ctx, goal.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GoalLogs err = %v, want ErrNotFound", err)
	}

	// No intentions for the deleted goal remain
	start, _ := types.ParseDay("2024-01-01")
	end, _ := types.ParseDay("2024-01-31")
	intentions, err := s.ListIntentions(ctx, start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(intentions) != 1 || intentions[0].ID != kept.ID {
		t.Fatalf("remaining intentions = %+v, want just %d", intentions, kept.ID)
	}

	// The fully-orphaned outcome is gone; the shared one survives
	if _, err := s.OutcomeByDay(ctx, "2024-01-10"); !errors.Is(err, ErrNotFound) {
		t.Errorf("orphaned outcome err = %v, want ErrNotFound", err)
	}
	surviving, err := s.OutcomeByDay(ctx, "2024-01-11")
	if err != nil {
		t.Fatal(err)
	}
	if surviving.ID != sharedID {
		t.Errorf("surviving outcome id = %d, want %d", surviving.ID, sharedID)
	}

	// Only the survivor's association remains on the shared outcome
	associations, err := s.OutcomeIntentions(ctx, sharedID)
	if err != nil {
		t.Fatal(err)
	}
	if len(associations) != 1 || associations[0].IntentionID != kept.ID {
		t.Errorf("associations = %+v, want just intention %d", associations, kept.ID)
	}
}

func TestDeleteGoal_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.DeleteGoal(context.Background(), 1234)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteGoal_NoIntentions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	goal := addTestGoal(t, s, "barely started")
	if err := s.DeleteGoal(ctx, goal.ID); err != nil {
		t.Fatal(err)
	}

	goals, err := s.ListGoals(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 0 {
		t.Errorf("goals = %+v, want none", goals)
	}
}

func TestListGoalsByActivity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	early := addTestGoal(t, s, "early")

	s.now = func() time.Time { return base.Add(48 * time.Hour) }
	late := addTestGoal(t, s, "late")

	goals, err := s.ListGoalsByActivity(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 2 {
		t.Fatalf("goals = %d, want 2", len(goals))
	}
	if goals[0].ID != late.ID {
		t.Errorf("goals[0].ID = %d, want most recently logged %d", goals[0].ID, late.ID)
	}
	if goals[1].ID != early.ID {
		t.Errorf("goals[1].ID = %d, want %d", goals[1].ID, early.ID)
	}
}
