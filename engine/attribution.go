/*
attribution.go - Equal-split revenue attribution

PURPOSE:
  Computes an employee's attributed revenue from their project
  assignments. Each project's revenue is split equally among every
  employee currently assigned to it; the employee's total is the sum of
  their shares. The per-project breakdown is retained for the
  calculation_details audit payload.

SPLIT RULE:
  employee_share = project.revenue / employee_count_on_project

  The split is by current headcount only: not weighted by role, time on
  project, or headcount at the time revenue was earned. A project with
  zero assigned employees contributes a share of 0 (not an error).

CONSISTENCY NOTE:
  The department revenue aggregate used by RevenueScore is computed from
  a separate query over active projects. It is NOT reconciled with the
  sum of attributed shares; cross-department assignments can make the
  two disagree. That mismatch is part of the contract.

SEE ALSO:
  - scores.go: RevenueScore consumes the attributed total
  - repository.go: ProjectAssignments supplies the input rows
*/
package engine

import "github.com/shopspring/decimal"

// AttributeRevenue splits each assigned project's revenue equally across
// its current members and returns the employee's total together with the
// per-project audit breakdown. Projects with no members contribute zero
// but still appear in the breakdown.
func AttributeRevenue(assignments []ProjectAssignment) (decimal.Decimal, []ProjectShare) {
	total := decimal.Zero
	shares := make([]ProjectShare, 0, len(assignments))

	for _, a := range assignments {
		share := decimal.Zero
		if a.EmployeeCount > 0 {
			share = a.Revenue.Div(decimal.NewFromInt(int64(a.EmployeeCount)))
		}
		total = total.Add(share)

		shares = append(shares, ProjectShare{
			ProjectID:      a.ProjectID,
			ProjectName:    a.ProjectName,
			ProjectRevenue: a.Revenue,
			EmployeeCount:  a.EmployeeCount,
			EmployeeShare:  share,
		})
	}

	return total, shares
}
