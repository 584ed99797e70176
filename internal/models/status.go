package models

import (
	"fmt"
	"strings"

	"github.com/akylbek/payment-system/payout-service/internal/apperrors"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// allowedTransitions is the closed transition table. A status with no entry
// (or an empty entry) is terminal.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:  {},
	StatusFailed:     {},
	StatusCancelled:  {},
}

func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// CanTransition reports whether from → to is in the transition table.
func CanTransition(from, to Status) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a ValidationError when from → to is not
// permitted. Terminal source states reject every target.
func ValidateTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	if from.Terminal() {
		return apperrors.NewFieldError("status",
			fmt.Sprintf("payout is in terminal status %q and cannot change status", from))
	}
	targets := make([]string, 0, len(allowedTransitions[from]))
	for _, t := range allowedTransitions[from] {
		targets = append(targets, string(t))
	}
	return apperrors.NewFieldError("status",
		fmt.Sprintf("invalid status transition from %q to %q; allowed targets: %s",
			from, to, strings.Join(targets, ", ")))
}
