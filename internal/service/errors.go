package service

import "fmt"

// ValidationError is malformed caller input, reported before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Reconciliation conflict reasons.
const (
	ConflictUnknown         = "unknown"
	ConflictAlreadyTerminal = "already-terminal"
	ConflictMissingID       = "missing-id"
)

// ReconciliationConflict is a callback that cannot move any transaction.
// It is logged, never returned to the provider.
type ReconciliationConflict struct {
	CheckoutRequestID string
	Reason            string
	Status            string // current status when already terminal
}

func (e *ReconciliationConflict) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("reconcile %q: %s (status %s)", e.CheckoutRequestID, e.Reason, e.Status)
	}
	return fmt.Sprintf("reconcile %q: %s", e.CheckoutRequestID, e.Reason)
}
