/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY REPRESENTATION:
  Internally everything is decimal.Decimal; at the API boundary amounts
  are rendered as JSON numbers via InexactFloat64. Clients treating
  these as display values lose nothing; the exact decimals stay in the
  database.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: Domain model these map from
*/
package api

import (
	"github.com/warp/bonus-engine/engine"
)

// =============================================================================
// DEPARTMENTS
// =============================================================================

// DepartmentDTO represents a department in API responses.
type DepartmentDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SaveDepartmentRequest creates or updates a department. An empty ID
// means create; the server assigns one.
type SaveDepartmentRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID           string  `json:"id"`
	DepartmentID string  `json:"department_id"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email,omitempty"`
	Salary       float64 `json:"salary"`
	Status       string  `json:"status"`
}

// SaveEmployeeRequest creates or updates an employee.
type SaveEmployeeRequest struct {
	ID           string  `json:"id,omitempty"`
	DepartmentID string  `json:"department_id"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email,omitempty"`
	Salary       float64 `json:"salary"`
	Status       string  `json:"status,omitempty"`
}

// =============================================================================
// PROJECTS
// =============================================================================

// ProjectDTO represents a project in API responses.
type ProjectDTO struct {
	ID           string  `json:"id"`
	DepartmentID string  `json:"department_id"`
	Name         string  `json:"name"`
	Revenue      float64 `json:"revenue"`
	Status       string  `json:"status"`
}

// SaveProjectRequest creates or updates a project.
type SaveProjectRequest struct {
	ID           string  `json:"id,omitempty"`
	DepartmentID string  `json:"department_id"`
	Name         string  `json:"name"`
	Revenue      float64 `json:"revenue"`
	Status       string  `json:"status,omitempty"`
}

// ProjectMemberRequest assigns an employee to a project.
type ProjectMemberRequest struct {
	EmployeeID string `json:"employee_id"`
}

// =============================================================================
// BONUS PERIODS
// =============================================================================

// BonusPeriodDTO represents a bonus period in API responses.
type BonusPeriodDTO struct {
	ID           string  `json:"id"`
	DepartmentID string  `json:"department_id"`
	Name         string  `json:"name"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	BonusPool    float64 `json:"bonus_pool"`
	Status       string  `json:"status"`
}

// SaveBonusPeriodRequest creates or updates a bonus period.
type SaveBonusPeriodRequest struct {
	ID           string  `json:"id,omitempty"`
	DepartmentID string  `json:"department_id"`
	Name         string  `json:"name"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	BonusPool    float64 `json:"bonus_pool"`
}

// =============================================================================
// RATINGS
// =============================================================================

// RatingDTO represents a performance rating in API responses.
type RatingDTO struct {
	BonusPeriodID     string `json:"bonus_period_id"`
	EmployeeID        string `json:"employee_id"`
	PerformanceRating int    `json:"performance_rating"`
	Notes             string `json:"notes,omitempty"`
}

// SaveRatingRequest records a rating for one employee in a period.
type SaveRatingRequest struct {
	EmployeeID        string `json:"employee_id"`
	PerformanceRating int    `json:"performance_rating"`
	Notes             string `json:"notes,omitempty"`
}

// =============================================================================
// CALCULATION RESULTS
// =============================================================================

// ProjectShareDTO is one project's contribution to an employee's
// attributed revenue in the audit breakdown.
type ProjectShareDTO struct {
	ProjectID      string  `json:"project_id"`
	ProjectName    string  `json:"project_name"`
	ProjectRevenue float64 `json:"project_revenue"`
	EmployeeCount  int     `json:"employee_count"`
	EmployeeShare  float64 `json:"employee_share"`
}

// CalculationDetailsDTO echoes the inputs a result was computed from.
type CalculationDetailsDTO struct {
	PerformanceRating      int               `json:"performance_rating"`
	EmployeeRevenue        float64           `json:"employee_revenue"`
	Salary                 float64           `json:"salary"`
	MaxDepartmentSalary    float64           `json:"max_department_salary"`
	TotalDepartmentRevenue float64           `json:"total_department_revenue"`
	Projects               []ProjectShareDTO `json:"projects"`
}

// CalculationResultDTO is one employee's scores and allocated bonus.
type CalculationResultDTO struct {
	BonusPeriodID         string                `json:"bonus_period_id"`
	EmployeeID            string                `json:"employee_id"`
	EmployeeName          string                `json:"employee_name"`
	ContributionScore     float64               `json:"contribution_score"`
	RevenueScore          float64               `json:"revenue_score"`
	SalaryAdjustmentScore float64               `json:"salary_adjustment_score"`
	WeightedScore         float64               `json:"weighted_score"`
	BonusAmount           float64               `json:"bonus_amount"`
	BonusPercentage       float64               `json:"bonus_percentage"`
	Details               CalculationDetailsDTO `json:"calculation_details"`
}

// CalculateResponse wraps a full-period calculation run.
type CalculateResponse struct {
	Success bool                   `json:"success"`
	Results []CalculationResultDTO `json:"results"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEmployeeDTO(e engine.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:           e.ID,
		DepartmentID: e.DepartmentID,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Email:        e.Email,
		Salary:       e.Salary.InexactFloat64(),
		Status:       string(e.Status),
	}
}

func toProjectDTO(p engine.Project) ProjectDTO {
	return ProjectDTO{
		ID:           p.ID,
		DepartmentID: p.DepartmentID,
		Name:         p.Name,
		Revenue:      p.Revenue.InexactFloat64(),
		Status:       string(p.Status),
	}
}

func toBonusPeriodDTO(p engine.BonusPeriod) BonusPeriodDTO {
	return BonusPeriodDTO{
		ID:           p.ID,
		DepartmentID: p.DepartmentID,
		Name:         p.Name,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		BonusPool:    p.BonusPool.InexactFloat64(),
		Status:       string(p.Status),
	}
}

func toCalculationResultDTO(r engine.CalculationResult) CalculationResultDTO {
	projects := make([]ProjectShareDTO, len(r.Details.Projects))
	for i, s := range r.Details.Projects {
		projects[i] = ProjectShareDTO{
			ProjectID:      s.ProjectID,
			ProjectName:    s.ProjectName,
			ProjectRevenue: s.ProjectRevenue.InexactFloat64(),
			EmployeeCount:  s.EmployeeCount,
			EmployeeShare:  s.EmployeeShare.InexactFloat64(),
		}
	}

	return CalculationResultDTO{
		BonusPeriodID:         r.BonusPeriodID,
		EmployeeID:            r.EmployeeID,
		EmployeeName:          r.EmployeeName,
		ContributionScore:     r.ContributionScore.InexactFloat64(),
		RevenueScore:          r.RevenueScore.InexactFloat64(),
		SalaryAdjustmentScore: r.SalaryAdjustmentScore.InexactFloat64(),
		WeightedScore:         r.WeightedScore.InexactFloat64(),
		BonusAmount:           r.BonusAmount.InexactFloat64(),
		BonusPercentage:       r.BonusPercentage.InexactFloat64(),
		Details: CalculationDetailsDTO{
			PerformanceRating:      r.Details.PerformanceRating,
			EmployeeRevenue:        r.Details.EmployeeRevenue.InexactFloat64(),
			Salary:                 r.Details.Salary.InexactFloat64(),
			MaxDepartmentSalary:    r.Details.MaxDepartmentSalary.InexactFloat64(),
			TotalDepartmentRevenue: r.Details.TotalDepartmentRevenue.InexactFloat64(),
			Projects:               projects,
		},
	}
}

func toCalculationResultDTOs(results []engine.CalculationResult) []CalculationResultDTO {
	dtos := make([]CalculationResultDTO, len(results))
	for i, r := range results {
		dtos[i] = toCalculationResultDTO(r)
	}
	return dtos
}
