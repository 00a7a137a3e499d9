package core

import (
	"sort"
	"strings"
)

// BudgetPercentage computes spent/limit as a percentage rounded to two
// decimals. A non-positive limit is a validation failure, not a zero.
func BudgetPercentage(spent, limit float64) (float64, error) {
	if limit <= 0 {
		return 0, ErrInvalidLimit
	}
	return Round2(spent / limit * 100), nil
}

// ClassifyBudget maps a usage percentage onto the status ladder. The
// boundaries are inclusive on the lower edge: exactly 80% is WARNING,
// exactly 100% is EXCEEDED.
func ClassifyBudget(percentage float64) BudgetStatus {
	switch {
	case percentage >= 100:
		return StatusExceeded
	case percentage >= 80:
		return StatusWarning
	case percentage >= 50:
		return StatusNormal
	default:
		return StatusSafe
	}
}

// statusRank fixes the severity ordering used when sorting by status.
// Unknown status strings rank below SAFE so backend additions sort last
// rather than being reclassified.
var statusRank = map[BudgetStatus]int{
	StatusExceeded: 4,
	StatusWarning:  3,
	StatusNormal:   2,
	StatusSafe:     1,
}

// StatusSeverity returns the fixed rank of a backend-supplied status
// string. The status itself is preserved verbatim; only its sort weight is
// computed here.
func StatusSeverity(s BudgetStatus) int {
	return statusRank[BudgetStatus(strings.ToUpper(string(s)))]
}

// FilterBudgetsByStatus returns the budgets whose status matches the given
// filter, case-insensitively. The "all" sentinel (or an empty filter)
// returns a copy of the input with its order untouched.
func FilterBudgetsByStatus(budgets []Budget, status string) []Budget {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" || status == "all" {
		out := make([]Budget, len(budgets))
		copy(out, budgets)
		return out
	}
	out := make([]Budget, 0, len(budgets))
	for _, b := range budgets {
		if strings.ToLower(string(b.Status)) == status {
			out = append(out, b)
		}
	}
	return out
}

// Budget sort keys.
const (
	BudgetSortStatus   SortKey = "status"
	BudgetSortLimit    SortKey = "amount_limit"
	BudgetSortSpent    SortKey = "spent"
	BudgetSortCategory SortKey = "category"
)

// SortBudgets returns a sorted copy of budgets ordered by the state's key
// and direction. Ties keep their incoming order.
func SortBudgets(budgets []Budget, state SortState) []Budget {
	out := make([]Budget, len(budgets))
	copy(out, budgets)

	less := func(a, b Budget) bool { return false }
	switch state.Key {
	case BudgetSortStatus:
		less = func(a, b Budget) bool { return StatusSeverity(a.Status) < StatusSeverity(b.Status) }
	case BudgetSortLimit:
		less = func(a, b Budget) bool { return a.AmountLimit < b.AmountLimit }
	case BudgetSortSpent:
		less = func(a, b Budget) bool { return a.Spent < b.Spent }
	case BudgetSortCategory:
		less = func(a, b Budget) bool { return a.CategoryName < b.CategoryName }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		if state.Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
