package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/bonus-engine/engine"
	"github.com/warp/bonus-engine/engine/store"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func newTestEngine() (*engine.Engine, *store.Memory) {
	mem := store.NewMemory()
	return engine.New(mem, nil), mem
}

func seedDepartment(mem *store.Memory) {
	mem.PutDepartment(engine.Department{ID: "dept-eng", Name: "Engineering"})
}

func seedPeriod(mem *store.Memory, pool float64) {
	mem.PutPeriod(engine.BonusPeriod{
		ID:           "period-q1",
		DepartmentID: "dept-eng",
		Name:         "Q1 Bonus",
		StartDate:    "2025-01-01",
		EndDate:      "2025-03-31",
		BonusPool:    dec(pool),
		Status:       engine.StatusDraft,
	})
}

func seedEmployee(mem *store.Memory, id string, salary float64) {
	mem.PutEmployee(engine.Employee{
		ID:           id,
		DepartmentID: "dept-eng",
		FirstName:    "Emp",
		LastName:     id,
		Salary:       dec(salary),
		Status:       engine.EmployeeActive,
	})
}

func rate(mem *store.Memory, employeeID string, rating int) {
	mem.PutRating(engine.EmployeeRating{
		BonusPeriodID:     "period-q1",
		EmployeeID:        employeeID,
		PerformanceRating: rating,
	})
}

// =============================================================================
// FULL-PERIOD CALCULATION
// =============================================================================

func TestCalculate_SingleParticipant_WorkedExample(t *testing.T) {
	// GIVEN: One active employee (rating 8) on a 200M project, plus an
	//        unstaffed 800M project making department revenue 1B
	// WHEN: Calculating the period with a 50M pool
	// THEN: Scores are 80/20/0 and the sole participant takes the pool
	eng, mem := newTestEngine()
	seedDepartment(mem)
	seedPeriod(mem, 50_000_000)
	seedEmployee(mem, "emp-1", 60_000_000)
	rate(mem, "emp-1", 8)

	mem.PutProject(engine.Project{ID: "proj-a", DepartmentID: "dept-eng", Name: "Apollo", Revenue: dec(200_000_000), Status: engine.ProjectActive})
	mem.PutProject(engine.Project{ID: "proj-b", DepartmentID: "dept-eng", Name: "Backlog", Revenue: dec(800_000_000), Status: engine.ProjectActive})
	mem.Assign("proj-a", "emp-1")

	results, err := eng.CalculateBonusesForPeriod(context.Background(), "period-q1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if !r.ContributionScore.Equal(dec(80)) {
		t.Errorf("contribution = %v, want 80", r.ContributionScore)
	}
	if !r.RevenueScore.Equal(dec(20)) {
		t.Errorf("revenue = %v, want 20", r.RevenueScore)
	}
	// Sole active employee, so their own salary is the department max.
	if !r.SalaryAdjustmentScore.IsZero() {
		t.Errorf("salary adjustment = %v, want 0", r.SalaryAdjustmentScore)
	}
	if !r.BonusPercentage.Equal(dec(100)) {
		t.Errorf("percentage = %v, want 100", r.BonusPercentage)
	}
	if !r.BonusAmount.Equal(dec(50_000_000)) {
		t.Errorf("amount = %v, want 50000000", r.BonusAmount)
	}

	// Audit payload retains the inputs.
	if r.Details.PerformanceRating != 8 {
		t.Errorf("details rating = %d, want 8", r.Details.PerformanceRating)
	}
	if !r.Details.TotalDepartmentRevenue.Equal(dec(1_000_000_000)) {
		t.Errorf("details total revenue = %v, want 1B", r.Details.TotalDepartmentRevenue)
	}
	if len(r.Details.Projects) != 1 || !r.Details.Projects[0].EmployeeShare.Equal(dec(200_000_000)) {
		t.Errorf("details projects = %+v, want one share of 200M", r.Details.Projects)
	}

	// Period advanced to calculated.
	period, _ := mem.Period("period-q1")
	if period.Status != engine.StatusCalculated {
		t.Errorf("period status = %s, want calculated", period.Status)
	}
}

func TestCalculate_UnratedEmployee_DefaultsToMidpoint(t *testing.T) {
	// An employee with no rating row participates at rating 5 rather
	// than being excluded.
	eng, mem := newTestEngine()
	seedDepartment(mem)
	seedPeriod(mem, 1_000_000)
	seedEmployee(mem, "emp-rated", 100_000)
	seedEmployee(mem, "emp-unrated", 100_000)
	rate(mem, "emp-rated", 8)

	results, err := eng.CalculateBonusesForPeriod(context.Background(), "period-q1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	unrated, ok := mem.Result("period-q1", "emp-unrated")
	if !ok {
		t.Fatal("unrated employee has no persisted result")
	}
	if unrated.Details.PerformanceRating != engine.DefaultRating {
		t.Errorf("details rating = %d, want %d", unrated.Details.PerformanceRating, engine.DefaultRating)
	}
	if !unrated.ContributionScore.Equal(dec(50)) {
		t.Errorf("contribution = %v, want 50", unrated.ContributionScore)
	}
}

func TestCalculate_PoolConservation(t *testing.T) {
	eng, mem := newTestEngine()
	seedDepartment(mem)
	seedPeriod(mem, 10_000_000)
	seedEmployee(mem, "emp-1", 90_000)
	seedEmployee(mem, "emp-2", 70_000)
	seedEmployee(mem, "emp-3", 50_000)
	rate(mem, "emp-1", 9)
	rate(mem, "emp-2", 6)
	rate(mem, "emp-3", 3)

	mem.PutProject(engine.Project{ID: "proj-a", DepartmentID: "dept-eng", Name: "Apollo", Revenue: dec(600_000), Status: engine.ProjectActive})
	mem.Assign("proj-a", "emp-1")
	mem.Assign("proj-a", "emp-2")

	results, err := eng.CalculateBonusesForPeriod(context.Background(), "period-q1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sumAmount := decimal.Zero
	sumPercentage := decimal.Zero
	for _, r := range results {
		sumAmount = sumAmount.Add(r.BonusAmount)
		sumPercentage = sumPercentage.Add(r.BonusPercentage)
	}
	if !approxEqual(sumAmount, dec(10_000_000)) {
		t.Errorf("sum of amounts = %v, want pool 10000000", sumAmount)
	}
	if !approxEqual(sumPercentage, dec(100)) {
		t.Errorf("sum of percentages = %v, want 100", sumPercentage)
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	// Running calculate twice with no data changes persists identical rows.
	eng, mem := newTestEngine()
	seedDepartment(mem)
	seedPeriod(mem, 5_000_000)
	seedEmployee(mem, "emp-1", 80_000)
	seedEmployee(mem, "emp-2", 60_000)
	rate(mem, "emp-1", 7)

	if _, err := eng.CalculateBonusesForPeriod(context.Background(), "period-q1"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first1, _ := mem.Result("period-q1", "emp-1")
	first2, _ := mem.Result("period-q1", "emp-2")

	if _, err := eng.CalculateBonusesForPeriod(context.Background(), "period-q1"); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second1, _ := mem.Result("period-q1", "emp-1")
	second2, _ := mem.Result("period-q1", "emp-2")

	if mem.ResultCount("period-q1") != 2 {
		t.Errorf("expected 2 rows after rerun, got %d", mem.ResultCount("period-q1"))
	}
	assertSameResult(t, first1, second1)
	assertSameResult(t, first2, second2)
}

func assertSameResult(t *testing.T, a, b engine.CalculationResult) {
	t.Helper()
	if !a.WeightedScore.Equal(b.WeightedScore) ||
		!a.BonusAmount.Equal(b.BonusAmount) ||
		!a.BonusPercentage.Equal(b.BonusPercentage) {
		t.Errorf("results differ between runs: %+v vs %+v", a, b)
	}
}

func TestCalculate_PeriodNotFound(t *testing.T) {
	eng, _ := newTestEngine()

	_, err := eng.CalculateBonusesForPeriod(context.Background(), "missing")
	if !errors.Is(err, engine.ErrPeriodNotFound) {
		t.Errorf("expected ErrPeriodNotFound, got %v", err)
	}
	if !engine.IsNotFound(err) {
		t.Error("IsNotFound should be true for a missing period")
	}
}

func TestCalculate_FinalizedPeriod_Refused(t *testing.T) {
	eng, mem := newTestEngine()
	seedDepartment(mem)
	mem.PutPeriod(engine.BonusPeriod{
		ID:           "period-q1",
		DepartmentID: "dept-eng",
		BonusPool:    dec(1000),
		Status:       engine.StatusFinalized,
	})

	_, err := eng.CalculateBonusesForPeriod(context.Background(), "period-q1")
	if !errors.Is(err, engine.ErrPeriodFinalized) {
		t.Errorf("expected ErrPeriodFinalized, got %v", err)
	}
}

func TestCalculate_NoParticipants_StillAdvancesStatus(t *testing.T) {
	eng, mem := newTestEngine()
	seedDepartment(mem)
	seedPeriod(mem, 1000)

	results, err := eng.CalculateBonusesForPeriod(context.Background(), "period-q1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	period, _ := mem.Period("period-q1")
	if period.Status != engine.StatusCalculated {
		t.Errorf("period status = %s, want calculated", period.Status)
	}
}

// =============================================================================
// PARTIAL PERSISTENCE FAILURES
// =============================================================================

// failingRepo fails the upsert for one employee to exercise the
// log-and-continue policy.
type failingRepo struct {
	*store.Memory
	failFor string
}

func (f *failingRepo) UpsertCalculationResult(ctx context.Context, result *engine.CalculationResult) error {
	if result.EmployeeID == f.failFor {
		return errors.New("disk full")
	}
	return f.Memory.UpsertCalculationResult(ctx, result)
}

func TestCalculate_PartialUpsertFailure_ContinuesAndAdvances(t *testing.T) {
	// GIVEN: The store rejects one employee's row
	// WHEN: Calculating the period
	// THEN: The other rows persist, the call succeeds, and the period
	//       still advances to calculated
	mem := store.NewMemory()
	repo := &failingRepo{Memory: mem, failFor: "emp-2"}
	eng := engine.New(repo, nil)

	seedDepartment(mem)
	seedPeriod(mem, 1_000_000)
	seedEmployee(mem, "emp-1", 80_000)
	seedEmployee(mem, "emp-2", 60_000)
	seedEmployee(mem, "emp-3", 40_000)

	results, err := eng.CalculateBonusesForPeriod(context.Background(), "period-q1")
	if err != nil {
		t.Fatalf("batch should not fail on a single bad row: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 computed results, got %d", len(results))
	}

	if _, ok := mem.Result("period-q1", "emp-1"); !ok {
		t.Error("emp-1 row should have persisted")
	}
	if _, ok := mem.Result("period-q1", "emp-2"); ok {
		t.Error("emp-2 row should not have persisted")
	}
	period, _ := mem.Period("period-q1")
	if period.Status != engine.StatusCalculated {
		t.Errorf("period status = %s, want calculated despite the failed row", period.Status)
	}
}

// =============================================================================
// SINGLE-EMPLOYEE RECALCULATION
// =============================================================================

func TestRecalculate_OnlyTargetRowChanges(t *testing.T) {
	// GIVEN: A fully calculated period
	// WHEN: One employee's rating changes and only they are recalculated
	// THEN: Their row updates; the other rows keep their stale values
	eng, mem := newTestEngine()
	seedDepartment(mem)
	seedPeriod(mem, 2_000_000)
	seedEmployee(mem, "emp-1", 90_000)
	seedEmployee(mem, "emp-2", 60_000)
	rate(mem, "emp-1", 6)
	rate(mem, "emp-2", 6)

	if _, err := eng.CalculateBonusesForPeriod(context.Background(), "period-q1"); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	before1, _ := mem.Result("period-q1", "emp-1")
	before2, _ := mem.Result("period-q1", "emp-2")

	rate(mem, "emp-2", 10)
	res, err := eng.RecalculateEmployeeBonus(context.Background(), "period-q1", "emp-2")
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	after1, _ := mem.Result("period-q1", "emp-1")
	after2, _ := mem.Result("period-q1", "emp-2")

	// emp-1's persisted row is untouched, even though its true share of
	// the pool has drifted.
	assertSameResult(t, before1, after1)

	if after2.WeightedScore.Equal(before2.WeightedScore) {
		t.Error("target weighted score should have changed")
	}
	if !after2.ContributionScore.Equal(dec(100)) {
		t.Errorf("target contribution = %v, want 100", after2.ContributionScore)
	}
	if !res.WeightedScore.Equal(after2.WeightedScore) {
		t.Error("returned result should match the persisted row")
	}
}

func TestRecalculate_SubstitutesFreshScoreInBase(t *testing.T) {
	// The normalization base sums the other employees' persisted scores
	// plus the target's fresh score - never the target's stale row.
	eng, mem := newTestEngine()
	seedDepartment(mem)
	seedPeriod(mem, 1_000_000)
	seedEmployee(mem, "emp-1", 50_000)
	seedEmployee(mem, "emp-2", 50_000)
	rate(mem, "emp-1", 5)
	rate(mem, "emp-2", 5)

	if _, err := eng.CalculateBonusesForPeriod(context.Background(), "period-q1"); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	other, _ := mem.Result("period-q1", "emp-1")

	rate(mem, "emp-2", 10)
	res, err := eng.RecalculateEmployeeBonus(context.Background(), "period-q1", "emp-2")
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	base := other.WeightedScore.Add(res.WeightedScore)
	wantAmount := res.WeightedScore.Div(base).Mul(dec(1_000_000))
	if !approxEqual(res.BonusAmount, wantAmount) {
		t.Errorf("amount = %v, want %v (fresh score substituted in base)", res.BonusAmount, wantAmount)
	}
}

func TestRecalculate_NoExistingRows_TakesFullPool(t *testing.T) {
	// Recalculating before any full run normalizes against the fresh
	// score alone.
	eng, mem := newTestEngine()
	seedDepartment(mem)
	seedPeriod(mem, 500_000)
	seedEmployee(mem, "emp-1", 50_000)
	rate(mem, "emp-1", 7)

	res, err := eng.RecalculateEmployeeBonus(context.Background(), "period-q1", "emp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.BonusPercentage.Equal(dec(100)) {
		t.Errorf("percentage = %v, want 100", res.BonusPercentage)
	}
	if !res.BonusAmount.Equal(dec(500_000)) {
		t.Errorf("amount = %v, want 500000", res.BonusAmount)
	}
}

func TestRecalculate_EmployeeNotFound(t *testing.T) {
	eng, mem := newTestEngine()
	seedDepartment(mem)
	seedPeriod(mem, 1000)

	_, err := eng.RecalculateEmployeeBonus(context.Background(), "period-q1", "ghost")
	if !errors.Is(err, engine.ErrEmployeeNotFound) {
		t.Errorf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestRecalculate_PeriodNotFound(t *testing.T) {
	eng, _ := newTestEngine()

	_, err := eng.RecalculateEmployeeBonus(context.Background(), "missing", "emp-1")
	if !errors.Is(err, engine.ErrPeriodNotFound) {
		t.Errorf("expected ErrPeriodNotFound, got %v", err)
	}
}
