// Package store provides an in-memory Repository implementation,
// used by the engine tests.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/bonus-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	departments map[string]engine.Department
	employees   map[string]engine.Employee
	projects    map[string]engine.Project
	members     map[string]map[string]bool // projectID -> employeeID set
	periods     map[string]engine.BonusPeriod
	ratings     map[periodEmployeeKey]engine.EmployeeRating
	results     map[periodEmployeeKey]engine.CalculationResult
}

type periodEmployeeKey struct {
	BonusPeriodID string
	EmployeeID    string
}

func NewMemory() *Memory {
	return &Memory{
		departments: make(map[string]engine.Department),
		employees:   make(map[string]engine.Employee),
		projects:    make(map[string]engine.Project),
		members:     make(map[string]map[string]bool),
		periods:     make(map[string]engine.BonusPeriod),
		ratings:     make(map[periodEmployeeKey]engine.EmployeeRating),
		results:     make(map[periodEmployeeKey]engine.CalculationResult),
	}
}

// =============================================================================
// SEEDING
// =============================================================================

func (m *Memory) PutDepartment(d engine.Department) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.departments[d.ID] = d
}

func (m *Memory) PutEmployee(e engine.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
}

func (m *Memory) PutProject(p engine.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	if m.members[p.ID] == nil {
		m.members[p.ID] = make(map[string]bool)
	}
}

func (m *Memory) Assign(projectID, employeeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[projectID] == nil {
		m.members[projectID] = make(map[string]bool)
	}
	m.members[projectID][employeeID] = true
}

func (m *Memory) PutPeriod(p engine.BonusPeriod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[p.ID] = p
}

// PutRating upserts the rating for (period, employee).
func (m *Memory) PutRating(r engine.EmployeeRating) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[periodEmployeeKey{r.BonusPeriodID, r.EmployeeID}] = r
}

// Result returns the persisted calculation row, if any.
func (m *Memory) Result(bonusPeriodID, employeeID string) (engine.CalculationResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[periodEmployeeKey{bonusPeriodID, employeeID}]
	return r, ok
}

// ResultCount returns how many rows are persisted for a period.
func (m *Memory) ResultCount(bonusPeriodID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for k := range m.results {
		if k.BonusPeriodID == bonusPeriodID {
			n++
		}
	}
	return n
}

// Period returns the stored period, if any.
func (m *Memory) Period(id string) (engine.BonusPeriod, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.periods[id]
	return p, ok
}

// =============================================================================
// REPOSITORY IMPLEMENTATION
// =============================================================================

func (m *Memory) GetBonusPeriod(_ context.Context, id string) (*engine.BonusPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.periods[id]
	if !ok {
		return nil, engine.ErrPeriodNotFound
	}
	return &p, nil
}

func (m *Memory) ActiveParticipants(_ context.Context, departmentID, bonusPeriodID string) ([]engine.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.Participant
	for _, e := range m.employees {
		if e.DepartmentID != departmentID || e.Status != engine.EmployeeActive {
			continue
		}
		out = append(out, m.participantLocked(e, bonusPeriodID))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Employee.ID < out[j].Employee.ID
	})
	return out, nil
}

func (m *Memory) GetParticipant(_ context.Context, employeeID, bonusPeriodID string) (*engine.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[employeeID]
	if !ok {
		return nil, engine.ErrEmployeeNotFound
	}
	p := m.participantLocked(e, bonusPeriodID)
	return &p, nil
}

func (m *Memory) participantLocked(e engine.Employee, bonusPeriodID string) engine.Participant {
	p := engine.Participant{Employee: e}
	if r, ok := m.ratings[periodEmployeeKey{bonusPeriodID, e.ID}]; ok {
		rating := r.PerformanceRating
		p.Rating = &rating
	}
	return p
}

func (m *Memory) ActiveProjectRevenue(_ context.Context, departmentID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := decimal.Zero
	for _, p := range m.projects {
		if p.DepartmentID == departmentID && p.Status == engine.ProjectActive {
			total = total.Add(p.Revenue)
		}
	}
	return total, nil
}

func (m *Memory) MaxActiveSalary(_ context.Context, departmentID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	max := decimal.Zero
	for _, e := range m.employees {
		if e.DepartmentID != departmentID || e.Status != engine.EmployeeActive {
			continue
		}
		if e.Salary.GreaterThan(max) {
			max = e.Salary
		}
	}
	return max, nil
}

func (m *Memory) ProjectAssignments(_ context.Context, employeeID string) ([]engine.ProjectAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.ProjectAssignment
	for projectID, members := range m.members {
		if !members[employeeID] {
			continue
		}
		p := m.projects[projectID]
		out = append(out, engine.ProjectAssignment{
			ProjectID:     p.ID,
			ProjectName:   p.Name,
			Revenue:       p.Revenue,
			EmployeeCount: len(members),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out, nil
}

func (m *Memory) ExistingWeightedScores(_ context.Context, bonusPeriodID string) ([]engine.WeightedScoreRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.WeightedScoreRow
	for k, r := range m.results {
		if k.BonusPeriodID != bonusPeriodID {
			continue
		}
		out = append(out, engine.WeightedScoreRow{
			EmployeeID:    k.EmployeeID,
			WeightedScore: r.WeightedScore,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *Memory) UpsertCalculationResult(_ context.Context, result *engine.CalculationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.results[periodEmployeeKey{result.BonusPeriodID, result.EmployeeID}] = *result
	return nil
}

func (m *Memory) SetPeriodStatus(_ context.Context, id string, status engine.PeriodStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.periods[id]
	if !ok {
		return engine.ErrPeriodNotFound
	}
	p.Status = status
	m.periods[id] = p
	return nil
}
