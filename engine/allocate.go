/*
allocate.go - Pool normalization across participants

PURPOSE:
  The second pass of the allocation algorithm. Given every participant's
  weighted score and the period's bonus pool, assigns each participant
  their proportional percentage and monetary amount.

ALGORITHM:
  total = sum of all weighted scores
  for each participant:
      bonus_percentage = weighted / total x 100
      bonus_amount     = weighted / total x pool

INVARIANTS (when total > 0):
  sum(bonus_amount)     ~= pool  (to decimal division precision)
  sum(bonus_percentage) ~= 100

ZERO TOTAL:
  If the total weighted score is zero (or negative, which salary
  adjustment can produce in degenerate data), every amount and
  percentage stays 0. Never a division by zero.

SEE ALSO:
  - engine.go: Runs pass one (scoring) before calling this
*/
package engine

import "github.com/shopspring/decimal"

// AllocatePool distributes pool across results in proportion to their
// weighted scores, mutating BonusAmount and BonusPercentage in place.
// Returns the total weighted score used as the normalization base.
func AllocatePool(results []*CalculationResult, pool decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range results {
		total = total.Add(r.WeightedScore)
	}

	if !total.IsPositive() {
		return total
	}

	for _, r := range results {
		ratio := r.WeightedScore.Div(total)
		r.BonusPercentage = ratio.Mul(hundred)
		r.BonusAmount = ratio.Mul(pool)
	}
	return total
}
