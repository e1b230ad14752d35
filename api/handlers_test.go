/*
handlers_test.go - HTTP-level tests for the bonus API

Tests run against a real router and an in-memory SQLite store, so they
exercise routing, JSON encoding, validation, and engine wiring together.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/bonus-engine/engine"
	"github.com/warp/bonus-engine/store/sqlite"
)

func newTestServer(t *testing.T) (*Handler, *httptest.Server) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, engine.New(store, nil), nil)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return h, srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// =============================================================================
// CALCULATION FLOW
// =============================================================================

func TestCalculate_EngineeringQuarterScenario(t *testing.T) {
	// GIVEN: The engineering-quarter demo data
	// WHEN: Running a full calculation over the period
	// THEN: Every active employee gets a result and the pool is fully
	//       distributed
	h, srv := newTestServer(t)
	require.NoError(t, loadEngineeringQuarterScenario(context.Background(), h))

	resp := postJSON(t, srv.URL+"/api/bonus-periods/period-q1/calculate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[CalculateResponse](t, resp)

	assert.True(t, out.Success)
	require.Len(t, out.Results, 4, "inactive employee must be excluded")

	sum := 0.0
	for _, r := range out.Results {
		sum += r.BonusAmount
	}
	assert.InDelta(t, 120_000_000, sum, 1)

	// The unrated employee falls back to the midpoint rating.
	var dewi *CalculationResultDTO
	for i := range out.Results {
		if out.Results[i].EmployeeID == "emp-dewi" {
			dewi = &out.Results[i]
		}
	}
	require.NotNil(t, dewi)
	assert.Equal(t, 5, dewi.Details.PerformanceRating)
	assert.InDelta(t, 50, dewi.ContributionScore, 0.001)

	// Status advanced to calculated.
	getResp, err := http.Get(srv.URL + "/api/bonus-periods/period-q1")
	require.NoError(t, err)
	period := decodeBody[BonusPeriodDTO](t, getResp)
	assert.Equal(t, "calculated", period.Status)
}

func TestCalculate_PeriodNotFound(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/bonus-periods/no-such-period/calculate", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCalculate_FinalizedPeriod_Conflict(t *testing.T) {
	h, srv := newTestServer(t)
	require.NoError(t, loadSingleEngineerScenario(context.Background(), h))

	resp := postJSON(t, srv.URL+"/api/bonus-periods/period-solo/calculate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/bonus-periods/period-solo/finalize", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/bonus-periods/period-solo/calculate", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestFinalize_DraftPeriod_Conflict(t *testing.T) {
	// A period must be calculated before it can be finalized.
	h, srv := newTestServer(t)
	require.NoError(t, loadSingleEngineerScenario(context.Background(), h))

	resp := postJSON(t, srv.URL+"/api/bonus-periods/period-solo/finalize", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCalculate_SingleEngineer_TakesFullPool(t *testing.T) {
	h, srv := newTestServer(t)
	require.NoError(t, loadSingleEngineerScenario(context.Background(), h))

	resp := postJSON(t, srv.URL+"/api/bonus-periods/period-solo/calculate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[CalculateResponse](t, resp)

	require.Len(t, out.Results, 1)
	assert.InDelta(t, 100, out.Results[0].BonusPercentage, 0.001)
	assert.InDelta(t, 50_000_000, out.Results[0].BonusAmount, 0.001)
}

// =============================================================================
// RECALCULATION
// =============================================================================

func TestRecalculateEmployee_OnlyTargetRowChanges(t *testing.T) {
	h, srv := newTestServer(t)
	require.NoError(t, loadEngineeringQuarterScenario(context.Background(), h))

	resp := postJSON(t, srv.URL+"/api/bonus-periods/period-q1/calculate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resultsResp, err := http.Get(srv.URL + "/api/bonus-periods/period-q1/results")
	require.NoError(t, err)
	before := decodeBody[[]CalculationResultDTO](t, resultsResp)
	require.Len(t, before, 4)

	// Bump Chen's rating and recalculate only Chen.
	resp = postJSON(t, srv.URL+"/api/bonus-periods/period-q1/ratings", SaveRatingRequest{
		EmployeeID: "emp-chen", PerformanceRating: 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/bonus-periods/period-q1/employees/emp-chen/recalculate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	recalc := decodeBody[CalculationResultDTO](t, resp)
	assert.Equal(t, 10, recalc.Details.PerformanceRating)

	resultsResp, err = http.Get(srv.URL + "/api/bonus-periods/period-q1/results")
	require.NoError(t, err)
	after := decodeBody[[]CalculationResultDTO](t, resultsResp)

	for i := range before {
		if before[i].EmployeeID == "emp-chen" {
			assert.Greater(t, after[i].WeightedScore, before[i].WeightedScore)
			continue
		}
		// Other rows untouched, including their now-stale amounts.
		assert.Equal(t, before[i].WeightedScore, after[i].WeightedScore, before[i].EmployeeID)
		assert.Equal(t, before[i].BonusAmount, after[i].BonusAmount, before[i].EmployeeID)
	}
}

func TestRecalculateEmployee_NotFound(t *testing.T) {
	h, srv := newTestServer(t)
	require.NoError(t, loadSingleEngineerScenario(context.Background(), h))

	resp := postJSON(t, srv.URL+"/api/bonus-periods/period-solo/employees/no-such/recalculate", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// RATINGS
// =============================================================================

func TestSaveRating_RangeValidation(t *testing.T) {
	h, srv := newTestServer(t)
	require.NoError(t, loadSingleEngineerScenario(context.Background(), h))

	for _, rating := range []int{0, 11, -3} {
		resp := postJSON(t, srv.URL+"/api/bonus-periods/period-solo/ratings", SaveRatingRequest{
			EmployeeID: "emp-solo", PerformanceRating: rating,
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "rating %d", rating)
	}
}

func TestSaveRating_Upsert(t *testing.T) {
	h, srv := newTestServer(t)
	require.NoError(t, loadSingleEngineerScenario(context.Background(), h))

	for _, rating := range []int{4, 9} {
		resp := postJSON(t, srv.URL+"/api/bonus-periods/period-solo/ratings", SaveRatingRequest{
			EmployeeID: "emp-solo", PerformanceRating: rating,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/api/bonus-periods/period-solo/ratings")
	require.NoError(t, err)
	ratings := decodeBody[[]RatingDTO](t, resp)
	require.Len(t, ratings, 1)
	assert.Equal(t, 9, ratings[0].PerformanceRating)
}

// =============================================================================
// CRUD SURFACE
// =============================================================================

func TestEmployeeLifecycle(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/departments", SaveDepartmentRequest{Name: "Design"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	dept := decodeBody[DepartmentDTO](t, resp)
	require.NotEmpty(t, dept.ID)

	resp = postJSON(t, srv.URL+"/api/employees", SaveEmployeeRequest{
		DepartmentID: dept.ID,
		FirstName:    "Gita",
		LastName:     "Savitri",
		Salary:       45_000_000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	emp := decodeBody[EmployeeDTO](t, resp)
	assert.Equal(t, "active", emp.Status, "status defaults to active")

	getResp, err := http.Get(srv.URL + "/api/employees/" + emp.ID)
	require.NoError(t, err)
	got := decodeBody[EmployeeDTO](t, getResp)
	assert.Equal(t, "Gita", got.FirstName)
	assert.InDelta(t, 45_000_000, got.Salary, 0.001)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/employees/"+emp.ID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	missing, err := http.Get(srv.URL + "/api/employees/" + emp.ID)
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestSaveEmployee_Validation(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/employees", SaveEmployeeRequest{
		FirstName: "No", LastName: "Department",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/employees", SaveEmployeeRequest{
		DepartmentID: "dept-x", FirstName: "Neg", LastName: "Salary", Salary: -1,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProjectMembers(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/departments", SaveDepartmentRequest{ID: "dept-x", Name: "X"})
	resp.Body.Close()
	resp = postJSON(t, srv.URL+"/api/employees", SaveEmployeeRequest{
		ID: "emp-x", DepartmentID: "dept-x", FirstName: "A", LastName: "B", Salary: 1,
	})
	resp.Body.Close()
	resp = postJSON(t, srv.URL+"/api/projects", SaveProjectRequest{
		ID: "proj-x", DepartmentID: "dept-x", Name: "X", Revenue: 100,
	})
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/projects/proj-x/members", ProjectMemberRequest{EmployeeID: "emp-x"})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/api/projects/proj-x/members")
	require.NoError(t, err)
	members := decodeBody[[]string](t, listResp)
	assert.Equal(t, []string{"emp-x"}, members)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/projects/proj-x/members/emp-x", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	require.Equal(t, http.StatusNoContent, delResp.StatusCode)

	listResp, err = http.Get(srv.URL + "/api/projects/proj-x/members")
	require.NoError(t, err)
	members = decodeBody[[]string](t, listResp)
	assert.Empty(t, members)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarioEndpoints(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/scenarios")
	require.NoError(t, err)
	list := decodeBody[[]ScenarioDTO](t, resp)
	assert.Len(t, list, 2)

	resp = postJSON(t, srv.URL+"/api/scenarios/load", LoadScenarioRequest{ScenarioID: "engineering-quarter"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/scenarios/current")
	require.NoError(t, err)
	current := decodeBody[ScenarioDTO](t, resp)
	assert.Equal(t, "engineering-quarter", current.ID)

	resp = postJSON(t, srv.URL+"/api/scenarios/load", LoadScenarioRequest{ScenarioID: "bogus"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/scenarios/reset", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	empResp, err := http.Get(srv.URL + "/api/employees")
	require.NoError(t, err)
	employees := decodeBody[[]EmployeeDTO](t, empResp)
	assert.Empty(t, employees)
}
