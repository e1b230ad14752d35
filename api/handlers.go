/*
handlers.go - HTTP API handlers for the bonus allocation system

PURPOSE:
  Exposes the bonus engine and its collaborator data via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Departments:
    GET    /api/departments                List departments
    POST   /api/departments                Create/update department
    GET    /api/departments/{id}           Get department
    DELETE /api/departments/{id}           Delete department

  Employees:
    GET    /api/employees?department_id=   List employees
    POST   /api/employees                  Create/update employee
    GET    /api/employees/{id}             Get employee
    DELETE /api/employees/{id}             Delete employee

  Projects:
    GET    /api/projects?department_id=    List projects
    POST   /api/projects                   Create/update project
    GET    /api/projects/{id}              Get project
    DELETE /api/projects/{id}              Delete project
    GET    /api/projects/{id}/members      List assigned employee IDs
    POST   /api/projects/{id}/members      Assign an employee
    DELETE /api/projects/{id}/members/{employeeID}  Remove an employee

  Bonus periods:
    GET    /api/bonus-periods?department_id=          List periods
    POST   /api/bonus-periods                         Create/update period
    GET    /api/bonus-periods/{id}                    Get period
    POST   /api/bonus-periods/{id}/calculate          Run the engine
    GET    /api/bonus-periods/{id}/results            Persisted results
    POST   /api/bonus-periods/{id}/finalize           Lock the period
    GET    /api/bonus-periods/{id}/ratings            List ratings
    POST   /api/bonus-periods/{id}/ratings            Upsert a rating
    POST   /api/bonus-periods/{id}/employees/{employeeID}/recalculate
                                                      Recalculate one employee

  Scenarios:
    GET    /api/scenarios                  List demo scenarios
    POST   /api/scenarios/load             Load a demo scenario
    POST   /api/scenarios/reset            Clear the database

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (calculating a finalized period)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/bonus-engine/engine"
	"github.com/warp/bonus-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *engine.Engine
	Logger *zap.Logger

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler. A nil logger is replaced with a
// no-op logger.
func NewHandler(store *sqlite.Store, eng *engine.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Store: store, Engine: eng, Logger: logger}
}

// =============================================================================
// DEPARTMENT HANDLERS
// =============================================================================

// ListDepartments returns all departments.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list departments", err)
		return
	}

	dtos := make([]DepartmentDTO, len(departments))
	for i, d := range departments {
		dtos[i] = DepartmentDTO{ID: d.ID, Name: d.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveDepartment creates or updates a department.
func (h *Handler) SaveDepartment(w http.ResponseWriter, r *http.Request) {
	var req SaveDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	d := engine.Department{ID: req.ID, Name: req.Name}
	if err := h.Store.SaveDepartment(r.Context(), d); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save department", err)
		return
	}
	writeJSON(w, http.StatusCreated, DepartmentDTO{ID: d.ID, Name: d.Name})
}

// GetDepartment returns a single department.
func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := h.Store.GetDepartment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get department", err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "Department not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, DepartmentDTO{ID: d.ID, Name: d.Name})
}

// DeleteDepartment removes a department.
func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteDepartment(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete department", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns employees, optionally filtered by department_id.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	departmentID := r.URL.Query().Get("department_id")

	employees, err := h.Store.ListEmployees(r.Context(), departmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveEmployee creates or updates an employee.
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var req SaveEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DepartmentID == "" || req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "department_id, first_name and last_name are required", nil)
		return
	}
	if req.Salary < 0 {
		writeError(w, http.StatusBadRequest, "salary must not be negative", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = string(engine.EmployeeActive)
	}

	e := engine.Employee{
		ID:           req.ID,
		DepartmentID: req.DepartmentID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Salary:       decimal.NewFromFloat(req.Salary),
		Status:       engine.EmployeeStatus(req.Status),
	}
	if err := h.Store.SaveEmployee(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(e))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*e))
}

// DeleteEmployee removes an employee.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteEmployee(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns projects, optionally filtered by department_id.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	departmentID := r.URL.Query().Get("department_id")

	projects, err := h.Store.ListProjects(r.Context(), departmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveProject creates or updates a project.
func (h *Handler) SaveProject(w http.ResponseWriter, r *http.Request) {
	var req SaveProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DepartmentID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "department_id and name are required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = string(engine.ProjectActive)
	}

	p := engine.Project{
		ID:           req.ID,
		DepartmentID: req.DepartmentID,
		Name:         req.Name,
		Revenue:      decimal.NewFromFloat(req.Revenue),
		Status:       engine.ProjectStatus(req.Status),
	}
	if err := h.Store.SaveProject(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save project", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(p))
}

// GetProject returns a single project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get project", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*p))
}

// DeleteProject removes a project and its assignments.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteProject(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProjectMembers returns the employee IDs assigned to a project.
func (h *Handler) ListProjectMembers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	members, err := h.Store.ProjectMembers(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list project members", err)
		return
	}
	if members == nil {
		members = []string{}
	}
	writeJSON(w, http.StatusOK, members)
}

// AddProjectMember assigns an employee to a project. Idempotent.
func (h *Handler) AddProjectMember(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	var req ProjectMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}

	if err := h.Store.AssignEmployeeToProject(r.Context(), req.EmployeeID, projectID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to assign employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveProjectMember removes an employee from a project.
func (h *Handler) RemoveProjectMember(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	employeeID := chi.URLParam(r, "employeeID")

	if err := h.Store.RemoveEmployeeFromProject(r.Context(), employeeID, projectID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to remove employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BONUS PERIOD HANDLERS
// =============================================================================

// ListBonusPeriods returns periods, optionally filtered by department_id.
func (h *Handler) ListBonusPeriods(w http.ResponseWriter, r *http.Request) {
	departmentID := r.URL.Query().Get("department_id")

	periods, err := h.Store.ListBonusPeriods(r.Context(), departmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bonus periods", err)
		return
	}

	dtos := make([]BonusPeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toBonusPeriodDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveBonusPeriod creates or updates a bonus period. New periods start
// in draft.
func (h *Handler) SaveBonusPeriod(w http.ResponseWriter, r *http.Request) {
	var req SaveBonusPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DepartmentID == "" || req.Name == "" || req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest, "department_id, name, start_date and end_date are required", nil)
		return
	}
	if req.BonusPool < 0 {
		writeError(w, http.StatusBadRequest, "bonus_pool must not be negative", nil)
		return
	}

	status := engine.StatusDraft
	if req.ID == "" {
		req.ID = uuid.NewString()
	} else if existing, err := h.Store.GetBonusPeriod(r.Context(), req.ID); err == nil {
		status = existing.Status
	}

	p := engine.BonusPeriod{
		ID:           req.ID,
		DepartmentID: req.DepartmentID,
		Name:         req.Name,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		BonusPool:    decimal.NewFromFloat(req.BonusPool),
		Status:       status,
	}
	if err := h.Store.SaveBonusPeriod(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save bonus period", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBonusPeriodDTO(p))
}

// GetBonusPeriod returns a single bonus period.
func (h *Handler) GetBonusPeriod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Store.GetBonusPeriod(r.Context(), id)
	if err != nil {
		if engine.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Bonus period not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get bonus period", err)
		return
	}
	writeJSON(w, http.StatusOK, toBonusPeriodDTO(*p))
}

// CalculateBonuses runs the engine for a period and returns the results.
func (h *Handler) CalculateBonuses(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	results, err := h.Engine.CalculateBonusesForPeriod(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CalculateResponse{
		Success: true,
		Results: toCalculationResultDTOs(results),
	})
}

// GetResults returns the persisted calculation results for a period.
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.Store.GetBonusPeriod(r.Context(), id); err != nil {
		if engine.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Bonus period not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get bonus period", err)
		return
	}

	results, err := h.Store.ResultsForPeriod(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load results", err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationResultDTOs(results))
}

// FinalizePeriod locks a period. Further calculation runs are refused.
func (h *Handler) FinalizePeriod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Store.GetBonusPeriod(r.Context(), id)
	if err != nil {
		if engine.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Bonus period not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get bonus period", err)
		return
	}
	if p.Status == engine.StatusDraft {
		writeError(w, http.StatusConflict, "Period has not been calculated yet", nil)
		return
	}

	if err := h.Store.SetPeriodStatus(r.Context(), id, engine.StatusFinalized); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to finalize period", err)
		return
	}
	p.Status = engine.StatusFinalized
	writeJSON(w, http.StatusOK, toBonusPeriodDTO(*p))
}

// RecalculateEmployee recalculates one employee's bonus within a period.
func (h *Handler) RecalculateEmployee(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "id")
	employeeID := chi.URLParam(r, "employeeID")

	result, err := h.Engine.RecalculateEmployeeBonus(r.Context(), periodID, employeeID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationResultDTO(*result))
}

// =============================================================================
// RATING HANDLERS
// =============================================================================

// ListRatings returns the ratings recorded for a period.
func (h *Handler) ListRatings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ratings, err := h.Store.RatingsForPeriod(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ratings", err)
		return
	}

	dtos := make([]RatingDTO, len(ratings))
	for i, rt := range ratings {
		dtos[i] = RatingDTO{
			BonusPeriodID:     rt.BonusPeriodID,
			EmployeeID:        rt.EmployeeID,
			PerformanceRating: rt.PerformanceRating,
			Notes:             rt.Notes,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveRating upserts one employee's rating for a period. The 1-10 range
// is enforced here; the engine itself never sees an out-of-range value.
func (h *Handler) SaveRating(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "id")

	var req SaveRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}
	if req.PerformanceRating < 1 || req.PerformanceRating > 10 {
		writeError(w, http.StatusBadRequest, "performance_rating must be between 1 and 10", nil)
		return
	}

	rating := engine.EmployeeRating{
		BonusPeriodID:     periodID,
		EmployeeID:        req.EmployeeID,
		PerformanceRating: req.PerformanceRating,
		Notes:             req.Notes,
	}
	if err := h.Store.SaveRating(r.Context(), rating); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rating", err)
		return
	}
	writeJSON(w, http.StatusCreated, RatingDTO{
		BonusPeriodID:     rating.BonusPeriodID,
		EmployeeID:        rating.EmployeeID,
		PerformanceRating: rating.PerformanceRating,
		Notes:             rating.Notes,
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Success: false, Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine sentinels to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, engine.ErrPeriodFinalized):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Calculation failed", err)
	}
}
