/*
errors.go - Centralized error types for the bonus engine

PURPOSE:
  All engine errors in one place. Callers branch on sentinels with
  errors.Is(); the HTTP layer maps them to response envelopes.

ERROR CATEGORIES:
  1. Not-found errors - period or employee missing
  2. Lifecycle errors - period already finalized
  3. Storage errors - aggregate/participant reads failing before writes

Degenerate numeric inputs (zero total revenue, zero max salary, zero
total weighted score) are NOT errors: the scoring and allocation
functions resolve them to zero by policy.

SEE ALSO:
  - engine.go: Returns these errors
  - repository.go: Implementations translate storage misses to sentinels
*/
package engine

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPeriodNotFound is returned when the referenced bonus period
	// does not exist.
	ErrPeriodNotFound = errors.New("bonus period not found")

	// ErrEmployeeNotFound is returned when the referenced employee
	// does not exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrPeriodFinalized is returned when calculation is requested for a
	// period that has been finalized. Finalization is a one-way lock.
	ErrPeriodFinalized = errors.New("bonus period is finalized")
)

// IsNotFound returns true if the error indicates a missing period or
// employee.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPeriodNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}
