package job

import (
	"slices"

	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
)

// ValidateStatus checks that a status is in the allowed list.
func ValidateStatus(status string, allowed []string) error {
	if slices.Contains(allowed, status) {
		return nil
	}
	return clierr.Newf(clierr.InvalidStatus, "invalid status %q", status).
		WithDetails(map[string]any{
			"status":  status,
			"allowed": allowed,
		})
}

// ValidatePriority checks that a priority is one of Priorities.
func ValidatePriority(priority string) error {
	if slices.Contains(Priorities, priority) {
		return nil
	}
	return clierr.Newf(clierr.InvalidPriority, "invalid priority %q", priority).
		WithDetails(map[string]any{
			"priority": priority,
			"allowed":  Priorities,
		})
}

// ValidateDate returns a CLI error for invalid date input.
func ValidateDate(field, input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidDate, "invalid %s date: %v", field, err).
		WithDetails(map[string]any{
			"field": field,
			"input": input,
		})
}

// ValidateTime returns a CLI error for unparseable tracked-time input.
func ValidateTime(input string) *clierr.Error {
	return clierr.Newf(clierr.InvalidTime,
		"invalid time %q: use HH:MM:SS, MM:SS or minutes", input).
		WithDetails(map[string]any{"input": input})
}
