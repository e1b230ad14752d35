/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements engine.Repository plus the CRUD operations the HTTP layer
  needs (departments, employees, projects, assignments, ratings, bonus
  periods, calculation results) using SQLite. The same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  departments:        Department records
  employees:          Employee records (salary stored as decimal text)
  projects:           Projects with revenue and status
  employee_projects:  Assignment rows, unique per (employee, project)
  bonus_periods:      Allocation runs with pool and lifecycle status
  employee_ratings:   At most one rating per (period, employee); upserted
  bonus_calculations: One result per (period, employee); upserted, with
                      the calculation_details audit payload as JSON

UPSERT KEYS:
  employee_ratings and bonus_calculations carry UNIQUE constraints on
  (bonus_period_id, employee_id). Recalculation overwrites rows in place;
  duplicates cannot accumulate.

DECIMAL STORAGE:
  Money and scores are stored as decimal strings and aggregated in Go
  with shopspring/decimal, so no precision is lost to SQLite's float
  affinity.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. There is no application-level
  lock around a calculation run: two concurrent runs race with
  last-write-wins per row, which matches the workflow's human pace.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/bonus.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := engine.New(store, logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/repository.go: Interface definition
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/bonus-engine/engine"
)

// Store implements engine.Repository and the CRUD store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		department_id TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT,
		salary TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_department
		ON employees(department_id, status);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		department_id TEXT NOT NULL,
		name TEXT NOT NULL,
		revenue TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_department
		ON projects(department_id, status);

	CREATE TABLE IF NOT EXISTS employee_projects (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, project_id)
	);

	CREATE INDEX IF NOT EXISTS idx_employee_projects_employee
		ON employee_projects(employee_id);
	CREATE INDEX IF NOT EXISTS idx_employee_projects_project
		ON employee_projects(project_id);

	CREATE TABLE IF NOT EXISTS bonus_periods (
		id TEXT PRIMARY KEY,
		department_id TEXT NOT NULL,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		bonus_pool TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bonus_periods_department
		ON bonus_periods(department_id);

	CREATE TABLE IF NOT EXISTS employee_ratings (
		id TEXT PRIMARY KEY,
		bonus_period_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		performance_rating INTEGER NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(bonus_period_id, employee_id)
	);

	CREATE TABLE IF NOT EXISTS bonus_calculations (
		id TEXT PRIMARY KEY,
		bonus_period_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		employee_name TEXT NOT NULL,
		contribution_score TEXT NOT NULL,
		revenue_score TEXT NOT NULL,
		salary_adjustment_score TEXT NOT NULL,
		weighted_score TEXT NOT NULL,
		bonus_amount TEXT NOT NULL,
		bonus_percentage TEXT NOT NULL,
		calculation_details TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(bonus_period_id, employee_id)
	);

	CREATE INDEX IF NOT EXISTS idx_bonus_calculations_period
		ON bonus_calculations(bonus_period_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REPOSITORY IMPLEMENTATION (engine.Repository)
// =============================================================================

// GetBonusPeriod returns the period or engine.ErrPeriodNotFound.
func (s *Store) GetBonusPeriod(ctx context.Context, id string) (*engine.BonusPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p engine.BonusPeriod
	var pool string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, department_id, name, start_date, end_date, bonus_pool, status
		 FROM bonus_periods WHERE id = ?`, id,
	).Scan(&p.ID, &p.DepartmentID, &p.Name, &p.StartDate, &p.EndDate, &pool, &p.Status)

	if err == sql.ErrNoRows {
		return nil, engine.ErrPeriodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bonus period: %w", err)
	}
	p.BonusPool = engine.MustParseDecimal(pool)
	return &p, nil
}

// ActiveParticipants joins active department employees with their optional
// rating for the period. The join filter is explicit: a missing rating row
// yields a nil Rating, never a dropped employee.
func (s *Store) ActiveParticipants(ctx context.Context, departmentID, bonusPeriodID string) ([]engine.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT e.id, e.department_id, e.first_name, e.last_name, e.email, e.salary, e.status,
		       r.performance_rating
		FROM employees e
		LEFT JOIN employee_ratings r
		  ON r.employee_id = e.id AND r.bonus_period_id = ?
		WHERE e.department_id = ? AND e.status = 'active'
		ORDER BY e.id
	`

	rows, err := s.db.QueryContext(ctx, query, bonusPeriodID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []engine.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// GetParticipant returns one employee with their optional period rating,
// or engine.ErrEmployeeNotFound.
func (s *Store) GetParticipant(ctx context.Context, employeeID, bonusPeriodID string) (*engine.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT e.id, e.department_id, e.first_name, e.last_name, e.email, e.salary, e.status,
		       r.performance_rating
		FROM employees e
		LEFT JOIN employee_ratings r
		  ON r.employee_id = e.id AND r.bonus_period_id = ?
		WHERE e.id = ?
	`

	rows, err := s.db.QueryContext(ctx, query, bonusPeriodID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, engine.ErrEmployeeNotFound
	}
	p, err := scanParticipant(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanParticipant(rows *sql.Rows) (engine.Participant, error) {
	var p engine.Participant
	var email sql.NullString
	var salary string
	var rating sql.NullInt64

	err := rows.Scan(
		&p.Employee.ID, &p.Employee.DepartmentID,
		&p.Employee.FirstName, &p.Employee.LastName,
		&email, &salary, &p.Employee.Status, &rating,
	)
	if err != nil {
		return p, fmt.Errorf("failed to scan participant: %w", err)
	}

	p.Employee.Email = email.String
	p.Employee.Salary = engine.MustParseDecimal(salary)
	if rating.Valid {
		r := int(rating.Int64)
		p.Rating = &r
	}
	return p, nil
}

// ActiveProjectRevenue sums revenue over the department's active projects.
// Summation happens in Go to keep decimal precision.
func (s *Store) ActiveProjectRevenue(ctx context.Context, departmentID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT revenue FROM projects WHERE department_id = ? AND status = 'active'`,
		departmentID,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query department revenue: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var revenue string
		if err := rows.Scan(&revenue); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(engine.MustParseDecimal(revenue))
	}
	return total, rows.Err()
}

// MaxActiveSalary returns the maximum salary among the department's active
// employees, zero when there are none.
func (s *Store) MaxActiveSalary(ctx context.Context, departmentID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT salary FROM employees WHERE department_id = ? AND status = 'active'`,
		departmentID,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query salaries: %w", err)
	}
	defer rows.Close()

	max := decimal.Zero
	for rows.Next() {
		var salary string
		if err := rows.Scan(&salary); err != nil {
			return decimal.Zero, err
		}
		if d := engine.MustParseDecimal(salary); d.GreaterThan(max) {
			max = d
		}
	}
	return max, rows.Err()
}

// ProjectAssignments returns every project the employee is assigned to,
// with each project's current total headcount. Headcount counts all
// assigned employees regardless of department or status.
func (s *Store) ProjectAssignments(ctx context.Context, employeeID string) ([]engine.ProjectAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT p.id, p.name, p.revenue,
		       (SELECT COUNT(*) FROM employee_projects m WHERE m.project_id = p.id)
		FROM employee_projects ep
		JOIN projects p ON p.id = ep.project_id
		WHERE ep.employee_id = ?
		ORDER BY p.id
	`

	rows, err := s.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project assignments: %w", err)
	}
	defer rows.Close()

	var assignments []engine.ProjectAssignment
	for rows.Next() {
		var a engine.ProjectAssignment
		var revenue string
		if err := rows.Scan(&a.ProjectID, &a.ProjectName, &revenue, &a.EmployeeCount); err != nil {
			return nil, err
		}
		a.Revenue = engine.MustParseDecimal(revenue)
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ExistingWeightedScores returns the persisted weighted scores for a period.
func (s *Store) ExistingWeightedScores(ctx context.Context, bonusPeriodID string) ([]engine.WeightedScoreRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT employee_id, weighted_score FROM bonus_calculations WHERE bonus_period_id = ?`,
		bonusPeriodID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query weighted scores: %w", err)
	}
	defer rows.Close()

	var out []engine.WeightedScoreRow
	for rows.Next() {
		var row engine.WeightedScoreRow
		var score string
		if err := rows.Scan(&row.EmployeeID, &score); err != nil {
			return nil, err
		}
		row.WeightedScore = engine.MustParseDecimal(score)
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpsertCalculationResult writes a result row keyed on
// (bonus_period_id, employee_id), overwriting any prior row.
func (s *Store) UpsertCalculationResult(ctx context.Context, result *engine.CalculationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	detailsJSON, err := json.Marshal(result.Details)
	if err != nil {
		return fmt.Errorf("failed to encode calculation details: %w", err)
	}

	query := `
		INSERT INTO bonus_calculations
		(id, bonus_period_id, employee_id, employee_name, contribution_score, revenue_score,
		 salary_adjustment_score, weighted_score, bonus_amount, bonus_percentage,
		 calculation_details, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bonus_period_id, employee_id) DO UPDATE SET
			employee_name = excluded.employee_name,
			contribution_score = excluded.contribution_score,
			revenue_score = excluded.revenue_score,
			salary_adjustment_score = excluded.salary_adjustment_score,
			weighted_score = excluded.weighted_score,
			bonus_amount = excluded.bonus_amount,
			bonus_percentage = excluded.bonus_percentage,
			calculation_details = excluded.calculation_details,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		uuid.NewString(),
		result.BonusPeriodID,
		result.EmployeeID,
		result.EmployeeName,
		result.ContributionScore.String(),
		result.RevenueScore.String(),
		result.SalaryAdjustmentScore.String(),
		result.WeightedScore.String(),
		result.BonusAmount.String(),
		result.BonusPercentage.String(),
		string(detailsJSON),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert calculation result: %w", err)
	}
	return nil
}

// SetPeriodStatus advances the period lifecycle.
func (s *Store) SetPeriodStatus(ctx context.Context, id string, status engine.PeriodStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE bonus_periods SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update period status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrPeriodNotFound
	}
	return nil
}

// =============================================================================
// DEPARTMENT STORE
// =============================================================================

// SaveDepartment inserts or updates a department.
func (s *Store) SaveDepartment(ctx context.Context, d engine.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO departments (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`
	_, err := s.db.ExecContext(ctx, query, d.ID, d.Name,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetDepartment retrieves a department by ID. Returns nil when missing.
func (s *Store) GetDepartment(ctx context.Context, id string) (*engine.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var d engine.Department
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM departments WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDepartments returns all departments.
func (s *Store) ListDepartments(ctx context.Context) ([]engine.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []engine.Department
	for rows.Next() {
		var d engine.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// DeleteDepartment removes a department.
func (s *Store) DeleteDepartment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM departments WHERE id = ?`, id)
	return err
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, e engine.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, department_id, first_name, last_name, email, salary, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			department_id = excluded.department_id,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			salary = excluded.salary,
			status = excluded.status
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.DepartmentID, e.FirstName, e.LastName, e.Email,
		e.Salary.String(), e.Status,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetEmployee retrieves an employee by ID. Returns nil when missing.
func (s *Store) GetEmployee(ctx context.Context, id string) (*engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e engine.Employee
	var email sql.NullString
	var salary string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, department_id, first_name, last_name, email, salary, status
		 FROM employees WHERE id = ?`, id,
	).Scan(&e.ID, &e.DepartmentID, &e.FirstName, &e.LastName, &email, &salary, &e.Status)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Email = email.String
	e.Salary = engine.MustParseDecimal(salary)
	return &e, nil
}

// ListEmployees returns employees, optionally filtered by department.
func (s *Store) ListEmployees(ctx context.Context, departmentID string) ([]engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, department_id, first_name, last_name, email, salary, status FROM employees`
	var args []any
	if departmentID != "" {
		query += ` WHERE department_id = ?`
		args = append(args, departmentID)
	}
	query += ` ORDER BY last_name, first_name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []engine.Employee
	for rows.Next() {
		var e engine.Employee
		var email sql.NullString
		var salary string
		if err := rows.Scan(&e.ID, &e.DepartmentID, &e.FirstName, &e.LastName, &email, &salary, &e.Status); err != nil {
			return nil, err
		}
		e.Email = email.String
		e.Salary = engine.MustParseDecimal(salary)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee and their project assignments.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM employee_projects WHERE employee_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	return err
}

// =============================================================================
// PROJECT STORE
// =============================================================================

// SaveProject inserts or updates a project.
func (s *Store) SaveProject(ctx context.Context, p engine.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO projects (id, department_id, name, revenue, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			department_id = excluded.department_id,
			name = excluded.name,
			revenue = excluded.revenue,
			status = excluded.status
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.DepartmentID, p.Name, p.Revenue.String(), p.Status,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetProject retrieves a project by ID. Returns nil when missing.
func (s *Store) GetProject(ctx context.Context, id string) (*engine.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p engine.Project
	var revenue string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, department_id, name, revenue, status FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.DepartmentID, &p.Name, &revenue, &p.Status)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Revenue = engine.MustParseDecimal(revenue)
	return &p, nil
}

// ListProjects returns projects, optionally filtered by department.
func (s *Store) ListProjects(ctx context.Context, departmentID string) ([]engine.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, department_id, name, revenue, status FROM projects`
	var args []any
	if departmentID != "" {
		query += ` WHERE department_id = ?`
		args = append(args, departmentID)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []engine.Project
	for rows.Next() {
		var p engine.Project
		var revenue string
		if err := rows.Scan(&p.ID, &p.DepartmentID, &p.Name, &revenue, &p.Status); err != nil {
			return nil, err
		}
		p.Revenue = engine.MustParseDecimal(revenue)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and its assignments.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM employee_projects WHERE project_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

// =============================================================================
// PROJECT ASSIGNMENTS
// =============================================================================

// AssignEmployeeToProject adds an assignment row. Re-assigning the same
// pair is a no-op.
func (s *Store) AssignEmployeeToProject(ctx context.Context, employeeID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employee_projects (id, employee_id, project_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(employee_id, project_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), employeeID, projectID,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// RemoveEmployeeFromProject deletes an assignment row.
func (s *Store) RemoveEmployeeFromProject(ctx context.Context, employeeID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM employee_projects WHERE employee_id = ? AND project_id = ?`,
		employeeID, projectID,
	)
	return err
}

// ProjectMembers returns the IDs of employees assigned to a project.
func (s *Store) ProjectMembers(ctx context.Context, projectID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT employee_id FROM employee_projects WHERE project_id = ? ORDER BY employee_id`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =============================================================================
// BONUS PERIOD STORE
// =============================================================================

// SaveBonusPeriod inserts or updates a bonus period.
func (s *Store) SaveBonusPeriod(ctx context.Context, p engine.BonusPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO bonus_periods (id, department_id, name, start_date, end_date, bonus_pool, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			department_id = excluded.department_id,
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			bonus_pool = excluded.bonus_pool,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.DepartmentID, p.Name, p.StartDate, p.EndDate,
		p.BonusPool.String(), p.Status, now, now,
	)
	return err
}

// ListBonusPeriods returns bonus periods, optionally filtered by department.
func (s *Store) ListBonusPeriods(ctx context.Context, departmentID string) ([]engine.BonusPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, department_id, name, start_date, end_date, bonus_pool, status FROM bonus_periods`
	var args []any
	if departmentID != "" {
		query += ` WHERE department_id = ?`
		args = append(args, departmentID)
	}
	query += ` ORDER BY start_date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []engine.BonusPeriod
	for rows.Next() {
		var p engine.BonusPeriod
		var pool string
		if err := rows.Scan(&p.ID, &p.DepartmentID, &p.Name, &p.StartDate, &p.EndDate, &pool, &p.Status); err != nil {
			return nil, err
		}
		p.BonusPool = engine.MustParseDecimal(pool)
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// =============================================================================
// RATINGS STORE
// =============================================================================

// SaveRating upserts the rating for (period, employee). At most one row
// exists per pair.
func (s *Store) SaveRating(ctx context.Context, r engine.EmployeeRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employee_ratings (id, bonus_period_id, employee_id, performance_rating, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bonus_period_id, employee_id) DO UPDATE SET
			performance_rating = excluded.performance_rating,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), r.BonusPeriodID, r.EmployeeID,
		r.PerformanceRating, r.Notes, now, now,
	)
	return err
}

// RatingsForPeriod returns all ratings recorded for a period.
func (s *Store) RatingsForPeriod(ctx context.Context, bonusPeriodID string) ([]engine.EmployeeRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT bonus_period_id, employee_id, performance_rating, notes
		 FROM employee_ratings WHERE bonus_period_id = ? ORDER BY employee_id`,
		bonusPeriodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []engine.EmployeeRating
	for rows.Next() {
		var r engine.EmployeeRating
		var notes sql.NullString
		if err := rows.Scan(&r.BonusPeriodID, &r.EmployeeID, &r.PerformanceRating, &notes); err != nil {
			return nil, err
		}
		r.Notes = notes.String
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// =============================================================================
// CALCULATION RESULTS
// =============================================================================

// ResultsForPeriod returns the persisted calculation results for a period.
func (s *Store) ResultsForPeriod(ctx context.Context, bonusPeriodID string) ([]engine.CalculationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT bonus_period_id, employee_id, employee_name, contribution_score, revenue_score,
		       salary_adjustment_score, weighted_score, bonus_amount, bonus_percentage, calculation_details
		FROM bonus_calculations
		WHERE bonus_period_id = ?
		ORDER BY employee_id
	`

	rows, err := s.db.QueryContext(ctx, query, bonusPeriodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []engine.CalculationResult
	for rows.Next() {
		var r engine.CalculationResult
		var contribution, revenue, salaryAdjustment, weighted, amount, percentage string
		var details sql.NullString

		if err := rows.Scan(
			&r.BonusPeriodID, &r.EmployeeID, &r.EmployeeName,
			&contribution, &revenue, &salaryAdjustment, &weighted,
			&amount, &percentage, &details,
		); err != nil {
			return nil, err
		}

		r.ContributionScore = engine.MustParseDecimal(contribution)
		r.RevenueScore = engine.MustParseDecimal(revenue)
		r.SalaryAdjustmentScore = engine.MustParseDecimal(salaryAdjustment)
		r.WeightedScore = engine.MustParseDecimal(weighted)
		r.BonusAmount = engine.MustParseDecimal(amount)
		r.BonusPercentage = engine.MustParseDecimal(percentage)
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &r.Details); err != nil {
				return nil, fmt.Errorf("failed to decode calculation details: %w", err)
			}
		}

		results = append(results, r)
	}
	return results, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"bonus_calculations", "employee_ratings", "bonus_periods",
		"employee_projects", "projects", "employees", "departments",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
