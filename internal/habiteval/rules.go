package habiteval

import (
	"github.com/shopspring/decimal"

	"github.com/OybekDeveloper/leora/internal/domain"
)

// Evaluate decides a finance rule for one day's transactions. The returned
// value is the measured quantity (summed spend or transaction count) that
// the outcome was decided on.
func Evaluate(rule domain.FinanceRule, txs []domain.Transaction) (domain.Outcome, decimal.Decimal) {
	switch rule.Type {
	case domain.RuleNoSpendInCategories:
		spent, n := spend(txs, func(tx domain.Transaction) bool {
			return tx.IsExpense() && rule.HasCategory(tx.CategoryID)
		})
		return outcome(n == 0), spent

	case domain.RuleSpendInCategories:
		// Any transaction type in the categories counts.
		spent, n := spend(txs, func(tx domain.Transaction) bool {
			return rule.HasCategory(tx.CategoryID)
		})
		if n == 0 {
			return domain.Miss, spent
		}
		if rule.MinAmount != nil {
			return outcome(spent.GreaterThanOrEqual(*rule.MinAmount)), spent
		}
		return domain.Done, spent

	case domain.RuleHasAnyTransactions:
		_, n := spend(txs, func(tx domain.Transaction) bool {
			return len(rule.AccountIDs) == 0 || rule.HasAccount(tx.AccountID)
		})
		return outcome(n > 0), decimal.NewFromInt(int64(n))

	case domain.RuleDailySpendUnder:
		// Other currencies are left out, not converted.
		spent, _ := spend(txs, func(tx domain.Transaction) bool {
			return tx.IsExpense() && tx.Amount.Currency() == rule.Limit.Currency()
		})
		return outcome(spent.LessThan(rule.Limit.Decimal())), spent
	}
	return domain.Miss, decimal.Zero
}

// spend sums the absolute amounts of the transactions keep accepts.
func spend(txs []domain.Transaction, keep func(domain.Transaction) bool) (decimal.Decimal, int) {
	sum, n := decimal.Zero, 0
	for _, tx := range txs {
		if keep(tx) {
			sum = sum.Add(tx.Amount.Decimal().Abs())
			n++
		}
	}
	return sum, n
}

func outcome(done bool) domain.Outcome {
	if done {
		return domain.Done
	}
	return domain.Miss
}
