/*
Package engine provides the bonus allocation engine.

PURPOSE:
  This package contains the domain types and algorithms for distributing a
  fixed bonus pool among a department's employees. Given a bonus period
  (department + date range + pool), it scores each participating employee
  on performance, revenue contribution, and salary equity, then normalizes
  the scores across all participants to allocate the pool.

KEY CONCEPTS IN THIS FILE (types.go):
  - BonusPeriod: One allocation run (department, date range, pool, status)
  - Participant: An employee joined with their optional period rating
  - ProjectShare: An employee's equal-split share of one project's revenue
  - CalculationResult: Per-employee scores and allocated amounts
  - CalculationDetails: The inputs used, retained for auditability

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all money and scores
  2. Purity: Scoring and allocation are pure functions; storage access
     goes through the Repository interface only
  3. Explainability: Every result carries the inputs that produced it

SEE ALSO:
  - scores.go: Scoring formulas and fixed weights
  - attribution.go: Equal-split revenue attribution
  - allocate.go: Pool normalization across participants
  - engine.go: Orchestration over the Repository
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// LIFECYCLE STATUSES
// =============================================================================

// PeriodStatus is the lifecycle state of a bonus period.
// draft -> calculated happens when the engine runs; calculated -> finalized
// is a one-way lock after which recalculation is refused.
type PeriodStatus string

const (
	StatusDraft      PeriodStatus = "draft"
	StatusCalculated PeriodStatus = "calculated"
	StatusFinalized  PeriodStatus = "finalized"
)

// EmployeeStatus marks whether an employee participates in allocation.
type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

// ProjectStatus marks whether a project counts toward department revenue.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
)

// =============================================================================
// CORE ENTITIES
// =============================================================================

// Department groups employees, projects, and bonus periods.
type Department struct {
	ID   string
	Name string
}

// Employee as consumed by the engine. Only active employees in the target
// department participate in a period's allocation.
type Employee struct {
	ID           string
	DepartmentID string
	FirstName    string
	LastName     string
	Email        string
	Salary       decimal.Decimal
	Status       EmployeeStatus
}

// FullName returns the display name used in calculation results.
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Project carries the revenue figure that gets attributed to its members.
type Project struct {
	ID           string
	DepartmentID string
	Name         string
	Revenue      decimal.Decimal
	Status       ProjectStatus
}

// BonusPeriod identifies one allocation run.
type BonusPeriod struct {
	ID           string
	DepartmentID string
	Name         string
	StartDate    string // YYYY-MM-DD
	EndDate      string // YYYY-MM-DD
	BonusPool    decimal.Decimal
	Status       PeriodStatus
}

// EmployeeRating is one rating row per (period, employee).
// At most one per pair; writes are upserts.
type EmployeeRating struct {
	BonusPeriodID     string
	EmployeeID        string
	PerformanceRating int // 1-10, validated at the API boundary
	Notes             string
}

// Participant is an employee joined with their optional rating for a
// period. A nil Rating means the employee was not rated; scoring falls
// back to DefaultRating rather than excluding them.
type Participant struct {
	Employee Employee
	Rating   *int
}

// =============================================================================
// REVENUE ATTRIBUTION INPUTS/OUTPUTS
// =============================================================================

// ProjectAssignment is one project an employee is assigned to, with the
// current headcount on that project. Headcount counts every assigned
// employee, regardless of department or status.
type ProjectAssignment struct {
	ProjectID     string
	ProjectName   string
	Revenue       decimal.Decimal
	EmployeeCount int
}

// ProjectShare is the audit record of one project's contribution to an
// employee's attributed revenue. Retained verbatim in CalculationDetails.
type ProjectShare struct {
	ProjectID      string          `json:"project_id"`
	ProjectName    string          `json:"project_name"`
	ProjectRevenue decimal.Decimal `json:"project_revenue"`
	EmployeeCount  int             `json:"employee_count"`
	EmployeeShare  decimal.Decimal `json:"employee_share"`
}

// =============================================================================
// CALCULATION RESULTS
// =============================================================================

// CalculationDetails records the inputs that produced a result, so any
// allocation can be explained after the fact.
type CalculationDetails struct {
	PerformanceRating      int             `json:"performance_rating"`
	EmployeeRevenue        decimal.Decimal `json:"employee_revenue"`
	Salary                 decimal.Decimal `json:"salary"`
	MaxDepartmentSalary    decimal.Decimal `json:"max_department_salary"`
	TotalDepartmentRevenue decimal.Decimal `json:"total_department_revenue"`
	Projects               []ProjectShare  `json:"projects"`
}

// CalculationResult is one row per (period, employee). Recomputation
// overwrites the prior row for the same key, never accumulates duplicates.
type CalculationResult struct {
	BonusPeriodID         string
	EmployeeID            string
	EmployeeName          string
	ContributionScore     decimal.Decimal
	RevenueScore          decimal.Decimal
	SalaryAdjustmentScore decimal.Decimal
	WeightedScore         decimal.Decimal
	BonusAmount           decimal.Decimal
	BonusPercentage       decimal.Decimal
	Details               CalculationDetails
}

// WeightedScoreRow is a previously persisted weighted score, used as the
// normalization base for single-employee recalculation.
type WeightedScoreRow struct {
	EmployeeID    string
	WeightedScore decimal.Decimal
}

// MustParseDecimal parses a stored decimal string, returning zero on
// malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
