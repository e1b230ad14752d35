/*
engine.go - Orchestration of bonus calculation runs

PURPOSE:
  Ties scoring, attribution, and allocation together over the Repository.
  Two entry points share the scoring math but differ in their
  normalization base:

  CalculateBonusesForPeriod:
    Scores ALL active department employees, derives the total weighted
    score from that same set, allocates the pool, persists every result,
    and marks the period calculated.

  RecalculateEmployeeBonus:
    Rescores ONE employee, but normalizes against the previously
    persisted weighted scores of the other employees (with the fresh
    score substituted for the target). Other employees' rows are left
    as-is even though their true scores may have drifted - a deliberate
    staleness tradeoff, not a bug.

FAILURE SEMANTICS:
  - Period or employee missing: not-found sentinel, no writes.
  - Aggregate or participant reads failing: propagated, no writes.
  - One result upsert failing mid-batch: logged, batch continues, and
    the period status still advances to calculated. Individual row
    failures are invisible to the caller; they appear only in logs.

CONCURRENCY:
  No locking. Two concurrent runs for the same period race with
  last-write-wins semantics per row, which is acceptable for a
  human-paced administrative workflow. Repeating a run with unchanged
  data produces identical rows.

SEE ALSO:
  - scores.go, attribution.go, allocate.go: The math
  - repository.go: The storage contract
*/
package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine runs bonus calculations against an injected Repository.
type Engine struct {
	repo   Repository
	logger *zap.Logger
}

// New creates an engine. A nil logger is replaced with a no-op logger.
func New(repo Repository, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{repo: repo, logger: logger}
}

// =============================================================================
// FULL-PERIOD CALCULATION
// =============================================================================

// CalculateBonusesForPeriod scores every active employee in the period's
// department, allocates the pool across them, persists the results, and
// advances the period to calculated.
func (e *Engine) CalculateBonusesForPeriod(ctx context.Context, bonusPeriodID string) ([]CalculationResult, error) {
	period, err := e.repo.GetBonusPeriod(ctx, bonusPeriodID)
	if err != nil {
		return nil, err
	}
	if period.Status == StatusFinalized {
		return nil, ErrPeriodFinalized
	}

	participants, err := e.repo.ActiveParticipants(ctx, period.DepartmentID, period.ID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	totalRevenue, maxSalary, err := e.departmentAggregates(ctx, period.DepartmentID)
	if err != nil {
		return nil, err
	}

	// Pass 1: score everyone and accumulate the normalization base.
	results := make([]*CalculationResult, 0, len(participants))
	for _, p := range participants {
		res, err := e.scoreParticipant(ctx, p, period.ID, totalRevenue, maxSalary)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	// Pass 2: proportional allocation.
	total := AllocatePool(results, period.BonusPool)
	e.logger.Debug("allocated bonus pool",
		zap.String("bonus_period_id", period.ID),
		zap.Int("participants", len(results)),
		zap.String("total_weighted_score", total.String()),
	)

	// Persist each row independently; one failed upsert does not abort
	// the batch, and the status still advances afterward.
	out := make([]CalculationResult, 0, len(results))
	for _, res := range results {
		if err := e.repo.UpsertCalculationResult(ctx, res); err != nil {
			e.logger.Error("failed to save calculation result",
				zap.String("bonus_period_id", period.ID),
				zap.String("employee_id", res.EmployeeID),
				zap.Error(err),
			)
		}
		out = append(out, *res)
	}

	if err := e.repo.SetPeriodStatus(ctx, period.ID, StatusCalculated); err != nil {
		e.logger.Error("failed to update bonus period status",
			zap.String("bonus_period_id", period.ID),
			zap.Error(err),
		)
	}

	return out, nil
}

// =============================================================================
// SINGLE-EMPLOYEE RECALCULATION
// =============================================================================

// RecalculateEmployeeBonus rescores one employee and reallocates their
// share against the persisted weighted scores of the other employees in
// the period. Only the target employee's row is rewritten.
func (e *Engine) RecalculateEmployeeBonus(ctx context.Context, bonusPeriodID, employeeID string) (*CalculationResult, error) {
	period, err := e.repo.GetBonusPeriod(ctx, bonusPeriodID)
	if err != nil {
		return nil, err
	}
	if period.Status == StatusFinalized {
		return nil, ErrPeriodFinalized
	}

	p, err := e.repo.GetParticipant(ctx, employeeID, period.ID)
	if err != nil {
		return nil, err
	}

	totalRevenue, maxSalary, err := e.departmentAggregates(ctx, period.DepartmentID)
	if err != nil {
		return nil, err
	}

	res, err := e.scoreParticipant(ctx, *p, period.ID, totalRevenue, maxSalary)
	if err != nil {
		return nil, err
	}

	// Normalization base: the persisted weighted scores of the OTHER
	// employees, plus this employee's fresh score. The stale row for the
	// target is replaced, not double-counted.
	rows, err := e.repo.ExistingWeightedScores(ctx, period.ID)
	if err != nil {
		return nil, fmt.Errorf("load existing weighted scores: %w", err)
	}
	total := res.WeightedScore
	for _, row := range rows {
		if row.EmployeeID == employeeID {
			continue
		}
		total = total.Add(row.WeightedScore)
	}

	if total.IsPositive() {
		ratio := res.WeightedScore.Div(total)
		res.BonusPercentage = ratio.Mul(hundred)
		res.BonusAmount = ratio.Mul(period.BonusPool)
	}

	if err := e.repo.UpsertCalculationResult(ctx, res); err != nil {
		return nil, fmt.Errorf("save calculation result: %w", err)
	}

	return res, nil
}

// =============================================================================
// SHARED SCORING
// =============================================================================

func (e *Engine) departmentAggregates(ctx context.Context, departmentID string) (totalRevenue, maxSalary decimal.Decimal, err error) {
	totalRevenue, err = e.repo.ActiveProjectRevenue(ctx, departmentID)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("load department revenue: %w", err)
	}
	maxSalary, err = e.repo.MaxActiveSalary(ctx, departmentID)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("load max department salary: %w", err)
	}
	return totalRevenue, maxSalary, nil
}

func (e *Engine) scoreParticipant(ctx context.Context, p Participant, bonusPeriodID string, totalRevenue, maxSalary decimal.Decimal) (*CalculationResult, error) {
	rating := DefaultRating
	if p.Rating != nil {
		rating = *p.Rating
	}

	assignments, err := e.repo.ProjectAssignments(ctx, p.Employee.ID)
	if err != nil {
		return nil, fmt.Errorf("load project assignments for %s: %w", p.Employee.ID, err)
	}
	employeeRevenue, projects := AttributeRevenue(assignments)

	contribution := ContributionScore(rating)
	revenue := RevenueScore(employeeRevenue, totalRevenue)
	salaryAdjustment := SalaryAdjustmentScore(p.Employee.Salary, maxSalary)
	weighted := WeightedScore(contribution, revenue, salaryAdjustment)

	return &CalculationResult{
		BonusPeriodID:         bonusPeriodID,
		EmployeeID:            p.Employee.ID,
		EmployeeName:          p.Employee.FullName(),
		ContributionScore:     contribution,
		RevenueScore:          revenue,
		SalaryAdjustmentScore: salaryAdjustment,
		WeightedScore:         weighted,
		BonusAmount:           decimal.Zero,
		BonusPercentage:       decimal.Zero,
		Details: CalculationDetails{
			PerformanceRating:      rating,
			EmployeeRevenue:        employeeRevenue,
			Salary:                 p.Employee.Salary,
			MaxDepartmentSalary:    maxSalary,
			TotalDepartmentRevenue: totalRevenue,
			Projects:               projects,
		},
	}, nil
}
