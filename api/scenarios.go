/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates a department with
	employees, projects, a bonus period, and ratings ready to calculate.

AVAILABLE SCENARIOS:

	engineering-quarter: Four engineers, three projects, mixed ratings
	single-engineer:     One participant taking the whole pool

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create department and employees
 3. Create projects and assign members
 4. Create a draft bonus period
 5. Record performance ratings

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "engineering-quarter"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Response helpers
  - server.go: Scenario routes
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/bonus-engine/engine"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "engineering-quarter",
		Name:        "Engineering Quarter",
		Description: "Four engineers across three projects with mixed ratings and one unrated employee",
	},
	{
		ID:          "single-engineer",
		Name:        "Single Engineer",
		Description: "One participant who takes the entire pool regardless of score",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and seeds the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "engineering-quarter":
		err = loadEngineeringQuarterScenario(ctx, h)
	case "single-engineer":
		err = loadSingleEngineerScenario(ctx, h)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.Logger.Info("loaded scenario", zap.String("scenario_id", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadEngineeringQuarterScenario seeds four engineers, three projects
// (one with no members), and a rated draft period.
func loadEngineeringQuarterScenario(ctx context.Context, h *Handler) error {
	if err := h.Store.SaveDepartment(ctx, engine.Department{
		ID: "dept-eng", Name: "Engineering",
	}); err != nil {
		return err
	}

	employees := []engine.Employee{
		{ID: "emp-ana", DepartmentID: "dept-eng", FirstName: "Ana", LastName: "Marques",
			Email: "ana@example.com", Salary: decimal.NewFromInt(95_000_000), Status: engine.EmployeeActive},
		{ID: "emp-budi", DepartmentID: "dept-eng", FirstName: "Budi", LastName: "Santoso",
			Email: "budi@example.com", Salary: decimal.NewFromInt(80_000_000), Status: engine.EmployeeActive},
		{ID: "emp-chen", DepartmentID: "dept-eng", FirstName: "Chen", LastName: "Wei",
			Email: "chen@example.com", Salary: decimal.NewFromInt(65_000_000), Status: engine.EmployeeActive},
		{ID: "emp-dewi", DepartmentID: "dept-eng", FirstName: "Dewi", LastName: "Lestari",
			Email: "dewi@example.com", Salary: decimal.NewFromInt(55_000_000), Status: engine.EmployeeActive},
		// Inactive: excluded from allocation entirely.
		{ID: "emp-eko", DepartmentID: "dept-eng", FirstName: "Eko", LastName: "Prasetyo",
			Email: "eko@example.com", Salary: decimal.NewFromInt(70_000_000), Status: engine.EmployeeInactive},
	}
	for _, e := range employees {
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}

	projects := []engine.Project{
		{ID: "proj-apollo", DepartmentID: "dept-eng", Name: "Apollo",
			Revenue: decimal.NewFromInt(600_000_000), Status: engine.ProjectActive},
		{ID: "proj-borealis", DepartmentID: "dept-eng", Name: "Borealis",
			Revenue: decimal.NewFromInt(300_000_000), Status: engine.ProjectActive},
		// Counts toward department revenue but attributes nothing.
		{ID: "proj-comet", DepartmentID: "dept-eng", Name: "Comet",
			Revenue: decimal.NewFromInt(100_000_000), Status: engine.ProjectActive},
	}
	for _, p := range projects {
		if err := h.Store.SaveProject(ctx, p); err != nil {
			return err
		}
	}

	assignments := []struct{ employeeID, projectID string }{
		{"emp-ana", "proj-apollo"},
		{"emp-budi", "proj-apollo"},
		{"emp-budi", "proj-borealis"},
		{"emp-chen", "proj-borealis"},
	}
	for _, a := range assignments {
		if err := h.Store.AssignEmployeeToProject(ctx, a.employeeID, a.projectID); err != nil {
			return err
		}
	}

	if err := h.Store.SaveBonusPeriod(ctx, engine.BonusPeriod{
		ID: "period-q1", DepartmentID: "dept-eng", Name: "Q1 2025",
		StartDate: "2025-01-01", EndDate: "2025-03-31",
		BonusPool: decimal.NewFromInt(120_000_000), Status: engine.StatusDraft,
	}); err != nil {
		return err
	}

	// Dewi is deliberately left unrated to exercise the default rating.
	ratings := []engine.EmployeeRating{
		{BonusPeriodID: "period-q1", EmployeeID: "emp-ana", PerformanceRating: 9, Notes: "Led Apollo delivery"},
		{BonusPeriodID: "period-q1", EmployeeID: "emp-budi", PerformanceRating: 7},
		{BonusPeriodID: "period-q1", EmployeeID: "emp-chen", PerformanceRating: 6},
	}
	for _, rt := range ratings {
		if err := h.Store.SaveRating(ctx, rt); err != nil {
			return err
		}
	}

	return nil
}

// loadSingleEngineerScenario seeds one participant; any positive score
// takes 100% of the pool.
func loadSingleEngineerScenario(ctx context.Context, h *Handler) error {
	if err := h.Store.SaveDepartment(ctx, engine.Department{
		ID: "dept-solo", Name: "Platform",
	}); err != nil {
		return err
	}

	if err := h.Store.SaveEmployee(ctx, engine.Employee{
		ID: "emp-solo", DepartmentID: "dept-solo",
		FirstName: "Farah", LastName: "Nasution",
		Email: "farah@example.com",
		Salary: decimal.NewFromInt(60_000_000), Status: engine.EmployeeActive,
	}); err != nil {
		return err
	}

	if err := h.Store.SaveProject(ctx, engine.Project{
		ID: "proj-atlas", DepartmentID: "dept-solo", Name: "Atlas",
		Revenue: decimal.NewFromInt(200_000_000), Status: engine.ProjectActive,
	}); err != nil {
		return err
	}
	if err := h.Store.AssignEmployeeToProject(ctx, "emp-solo", "proj-atlas"); err != nil {
		return err
	}

	if err := h.Store.SaveBonusPeriod(ctx, engine.BonusPeriod{
		ID: "period-solo", DepartmentID: "dept-solo", Name: "H1 2025",
		StartDate: "2025-01-01", EndDate: "2025-06-30",
		BonusPool: decimal.NewFromInt(50_000_000), Status: engine.StatusDraft,
	}); err != nil {
		return err
	}

	return h.Store.SaveRating(ctx, engine.EmployeeRating{
		BonusPeriodID: "period-solo", EmployeeID: "emp-solo", PerformanceRating: 8,
	})
}
