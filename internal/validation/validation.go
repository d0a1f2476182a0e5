// Package validation checks request payloads at the API boundary.
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/intentd/intentd/internal/types"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateDay returns an error if the value is not a YYYY-MM-DD day string.
func ValidateDay(field, value string) *ValidationError {
	if _, err := types.ParseDay(value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "must be a YYYY-MM-DD date",
		}
	}
	return nil
}

// ValidateTimestamp returns an error if the value is not an RFC 3339 timestamp.
func ValidateTimestamp(field, value string) *ValidationError {
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "must be an RFC 3339 timestamp",
		}
	}
	return nil
}

// ValidateSubIntentionQualifier returns an error if the qualifier is longer
// than three characters or not purely alphabetic.
func ValidateSubIntentionQualifier(field string, value *string) *ValidationError {
	if value == nil {
		return nil
	}
	if len(*value) > 3 {
		return &ValidationError{
			Field:   field,
			Message: "must be at most 3 characters",
		}
	}
	for _, r := range *value {
		if !unicode.IsLetter(r) {
			return &ValidationError{
				Field:   field,
				Message: "must contain only letters",
			}
		}
	}
	return nil
}

// ValidateNewGoal checks a goal creation payload.
func ValidateNewGoal(g types.NewGoal) []ValidationError {
	var errs []ValidationError
	if err := ValidateRequired("title", g.Title); err != nil {
		errs = append(errs, *err)
	}
	if err := ValidateRequired("color", g.Color); err != nil {
		errs = append(errs, *err)
	}
	return errs
}

// ValidateGoal checks a full goal row for edit/update operations.
func ValidateGoal(g types.Goal) []ValidationError {
	errs := ValidateNewGoal(types.NewGoal{Title: g.Title, Description: g.Description, Color: g.Color})
	if g.OrderNumber < 0 || g.OrderNumber > types.MaxActiveGoals {
		errs = append(errs, ValidationError{
			Field:   "order_number",
			Message: fmt.Sprintf("must be between 0 and %d", types.MaxActiveGoals),
		})
	}
	return errs
}

// ValidateIntention checks an intention upsert payload.
func ValidateIntention(index int, in types.Intention) []ValidationError {
	var errs []ValidationError
	prefix := fmt.Sprintf("intentions[%d].", index)

	if in.GoalID == 0 {
		errs = append(errs, ValidationError{Field: prefix + "goal_id", Message: "is required"})
	}
	if err := ValidateRequired(prefix+"text", in.Text); err != nil {
		errs = append(errs, *err)
	}
	if err := ValidateTimestamp(prefix+"date", in.Date); err != nil {
		errs = append(errs, *err)
	}
	if err := ValidateSubIntentionQualifier(prefix+"sub_intention_qualifier", in.SubIntentionQualifier); err != nil {
		errs = append(errs, *err)
	}
	return errs
}
