package types

import (
	"fmt"
	"time"
)

// GoalLogType classifies goal ledger entries.
type GoalLogType string

const (
	GoalLogStart GoalLogType = "start"
	GoalLogEnd   GoalLogType = "end"
)

// MaxActiveGoals caps the number of simultaneously active goals.
const MaxActiveGoals = 9

// Goal represents a tracked goal. Among active goals the order numbers form
// the contiguous set 1..N; archived goals carry order number 0.
type Goal struct {
	ID          int64   `db:"id" json:"id"`
	Active      bool    `db:"active" json:"active"`
	OrderNumber int     `db:"order_number" json:"order_number"`
	Title       string  `db:"title" json:"title"`
	Description *string `db:"description" json:"description,omitempty"`
	Color       string  `db:"color" json:"color"`
}

// GoalActivity is a goal joined with the date of its latest ledger entry.
type GoalActivity struct {
	Goal
	LastLoggedAt string `db:"last_logged_at" json:"last_logged_at"`
}

// GoalLog is one entry in the append-only goal activity ledger.
// OrderNumber is an informational snapshot taken at write time.
type GoalLog struct {
	ID          int64       `db:"id" json:"id"`
	GoalID      int64       `db:"goal_id" json:"goal_id"`
	OrderNumber *int        `db:"order_number" json:"order_number,omitempty"`
	Type        GoalLogType `db:"type" json:"type"`
	Date        string      `db:"date" json:"date"`
}

// Intention is a single daily intention attached to a goal.
// Date is an RFC 3339 UTC timestamp; the timestamp's UTC calendar day is the
// intention's day.
type Intention struct {
	ID                    int64   `db:"id" json:"id"`
	GoalID                int64   `db:"goal_id" json:"goal_id"`
	OrderNumber           int     `db:"order_number" json:"order_number"`
	Completed             bool    `db:"completed" json:"completed"`
	Text                  string  `db:"text" json:"text"`
	SubIntentionQualifier *string `db:"sub_intention_qualifier" json:"sub_intention_qualifier,omitempty"`
	Date                  string  `db:"date" json:"date"`
}

// Outcome summarizes one calendar day's review. Date is a YYYY-MM-DD UTC day
// string, unique across outcomes.
type Outcome struct {
	ID       int64  `db:"id" json:"id"`
	Reviewed bool   `db:"reviewed" json:"reviewed"`
	Date     string `db:"date" json:"date"`
}

// OutcomeIntention associates an intention with a day's outcome.
type OutcomeIntention struct {
	OutcomeID   int64 `db:"outcome_id" json:"outcome_id"`
	IntentionID int64 `db:"intention_id" json:"intention_id"`
}

// NewGoal is the input type for creating goals (without generated fields).
type NewGoal struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Color       string  `json:"color"`
}

// UpdateGoalsRequest is a batched goal upsert.
type UpdateGoalsRequest struct {
	Goals []Goal `json:"goals"`
}

// UpsertIntentionsRequest replaces intentions by id, inserting missing ones.
type UpsertIntentionsRequest struct {
	Intentions []Intention `json:"intentions"`
}

// AppendIntentionTextRequest appends text to an existing intention.
type AppendIntentionTextRequest struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// ReviewOutcomeRequest records a day's review: the outcome's reviewed flag
// plus the intentions that were part of the review.
type ReviewOutcomeRequest struct {
	Reviewed     bool    `json:"reviewed"`
	Date         string  `json:"date"`
	IntentionIDs []int64 `json:"intention_ids"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	GoalCount   int64  `json:"goal_count"`
	ActiveGoals int64  `json:"active_goals"`
}

// DayLayout is the wire format for calendar days.
const DayLayout = "2006-01-02"

// Day returns the UTC calendar day string for a timestamp.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD day string.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return t, nil
}

// DayBounds returns the inclusive RFC 3339 bounds of a UTC calendar day,
// [00:00:00.000, 23:59:59.999].
func DayBounds(day time.Time) (start, end string) {
	d := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	start = d.Format("2006-01-02T15:04:05.000Z")
	end = d.Add(24*time.Hour - time.Millisecond).Format("2006-01-02T15:04:05.000Z")
	return start, end
}

// Timestamp formats a time as the stored RFC 3339 UTC representation.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
