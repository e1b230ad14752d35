/*
repository.go - Persistence interface for the bonus engine

PURPOSE:
  Defines the storage operations the engine depends on, so the scoring
  and allocation logic can be exercised against an in-memory double
  without a real database.

CONTRACT NOTES:
  - ActiveParticipants and GetParticipant return the employee joined with
    an explicit optional rating for the period. The join filter lives in
    the implementation; a missing rating row must surface as a nil Rating,
    never as a dropped employee.
  - UpsertCalculationResult is keyed on (bonus_period_id, employee_id).
    Recomputation overwrites; it never accumulates duplicate rows.
  - Aggregates return 0 (not an error) when no matching rows exist.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - engine/store:  in-memory store for tests and dev mode

SEE ALSO:
  - engine.go: The only consumer of this interface
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository is the engine's view of persistence.
type Repository interface {
	// GetBonusPeriod returns the period or ErrPeriodNotFound.
	GetBonusPeriod(ctx context.Context, id string) (*BonusPeriod, error)

	// ActiveParticipants returns every active employee in the department,
	// each with their optional rating for the period.
	ActiveParticipants(ctx context.Context, departmentID, bonusPeriodID string) ([]Participant, error)

	// GetParticipant returns one employee with their optional rating for
	// the period, or ErrEmployeeNotFound.
	GetParticipant(ctx context.Context, employeeID, bonusPeriodID string) (*Participant, error)

	// ActiveProjectRevenue returns the sum of revenue over the
	// department's active projects. Zero when there are none.
	ActiveProjectRevenue(ctx context.Context, departmentID string) (decimal.Decimal, error)

	// MaxActiveSalary returns the maximum salary among the department's
	// active employees. Zero when there are none.
	MaxActiveSalary(ctx context.Context, departmentID string) (decimal.Decimal, error)

	// ProjectAssignments returns every project the employee is assigned
	// to, with each project's current total headcount.
	ProjectAssignments(ctx context.Context, employeeID string) ([]ProjectAssignment, error)

	// ExistingWeightedScores returns the persisted weighted scores for a
	// period. Used only by single-employee recalculation.
	ExistingWeightedScores(ctx context.Context, bonusPeriodID string) ([]WeightedScoreRow, error)

	// UpsertCalculationResult writes a result row keyed on
	// (bonus_period_id, employee_id), overwriting any prior row.
	UpsertCalculationResult(ctx context.Context, result *CalculationResult) error

	// SetPeriodStatus advances the period lifecycle.
	SetPeriodStatus(ctx context.Context, id string, status PeriodStatus) error
}
