/*
scores.go - Scoring formulas for bonus allocation

PURPOSE:
  The three component scores and their fixed-weight combination. These are
  pure functions over decimals; they perform no I/O and no clamping.

FORMULAS:
  Contribution      = (performance_rating / 10) x 100
  Revenue           = (employee_revenue / total_department_revenue) x 100
  SalaryAdjustment  = (1 - employee_salary / max_department_salary) x 100
  Weighted          = 0.40xContribution + 0.40xRevenue + 0.20xSalaryAdjustment

DEGENERATE INPUTS:
  A zero denominator (no department revenue, no active employees) resolves
  to a score of 0. That is policy, not an error.

WEIGHTS ARE FIXED:
  The weights are compile-time constants. Making them configurable would
  change the meaning of every historical calculation.

SEE ALSO:
  - attribution.go: Produces the employee revenue input
  - allocate.go: Normalizes weighted scores into amounts
*/
package engine

import "github.com/shopspring/decimal"

// DefaultRating is used for employees with no rating row for the period.
// Unrated employees still participate; they are scored at the midpoint.
const DefaultRating = 5

// maxRating is the top of the 1-10 performance scale.
const maxRating = 10

var (
	weightContribution = decimal.NewFromFloat(0.40)
	weightRevenue      = decimal.NewFromFloat(0.40)
	weightSalary       = decimal.NewFromFloat(0.20)

	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ContributionScore converts a 1-10 performance rating to a 0-100 score.
// The input range is guaranteed by the caller; no clamping here.
func ContributionScore(performanceRating int) decimal.Decimal {
	return decimal.NewFromInt(int64(performanceRating)).
		Div(decimal.NewFromInt(maxRating)).
		Mul(hundred)
}

// RevenueScore is the employee's share of total department revenue, 0-100.
// Zero department revenue yields 0.
func RevenueScore(employeeRevenue, totalDepartmentRevenue decimal.Decimal) decimal.Decimal {
	if totalDepartmentRevenue.IsZero() {
		return decimal.Zero
	}
	return employeeRevenue.Div(totalDepartmentRevenue).Mul(hundred)
}

// SalaryAdjustmentScore is the inverse-salary equity correction: lower-paid
// employees score higher. Zero max salary yields 0. The result can be
// negative if the salary exceeds the supplied maximum; the function does
// not enforce that the maximum came from the same employee set.
func SalaryAdjustmentScore(employeeSalary, maxDepartmentSalary decimal.Decimal) decimal.Decimal {
	if maxDepartmentSalary.IsZero() {
		return decimal.Zero
	}
	return one.Sub(employeeSalary.Div(maxDepartmentSalary)).Mul(hundred)
}

// WeightedScore combines the three component scores with fixed weights.
func WeightedScore(contribution, revenue, salaryAdjustment decimal.Decimal) decimal.Decimal {
	return contribution.Mul(weightContribution).
		Add(revenue.Mul(weightRevenue)).
		Add(salaryAdjustment.Mul(weightSalary))
}
