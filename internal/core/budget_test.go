package core

import (
	"errors"
	"testing"
)

func TestBudgetPercentage(t *testing.T) {
	tests := []struct {
		name    string
		spent   float64
		limit   float64
		want    float64
		wantErr error
	}{
		{name: "half spent", spent: 50, limit: 100, want: 50},
		{name: "rounds to two decimals", spent: 1, limit: 3, want: 33.33},
		{name: "over limit", spent: 150, limit: 100, want: 150},
		{name: "zero limit rejected", spent: 10, limit: 0, wantErr: ErrInvalidLimit},
		{name: "negative limit rejected", spent: 10, limit: -5, wantErr: ErrInvalidLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BudgetPercentage(tt.spent, tt.limit)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("BudgetPercentage() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("BudgetPercentage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyBudget(t *testing.T) {
	tests := []struct {
		name       string
		percentage float64
		want       BudgetStatus
	}{
		{name: "exactly 100 is exceeded", percentage: 100, want: StatusExceeded},
		{name: "above 100 is exceeded", percentage: 131.5, want: StatusExceeded},
		{name: "exactly 80 is warning", percentage: 80, want: StatusWarning},
		{name: "just below 100 is warning", percentage: 99.99, want: StatusWarning},
		{name: "exactly 50 is normal", percentage: 50, want: StatusNormal},
		{name: "below 50 is safe", percentage: 49.99, want: StatusSafe},
		{name: "zero is safe", percentage: 0, want: StatusSafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyBudget(tt.percentage); got != tt.want {
				t.Errorf("ClassifyBudget(%v) = %v, want %v", tt.percentage, got, tt.want)
			}
		})
	}
}

func TestClassifyBudget_SpentLimitBoundaries(t *testing.T) {
	// 80/100 lands exactly on the warning boundary, 100/100 on exceeded.
	p, err := BudgetPercentage(80, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ClassifyBudget(p); got != StatusWarning {
		t.Errorf("spent 80 of 100: status = %v, want WARNING", got)
	}

	p, err = BudgetPercentage(100, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ClassifyBudget(p); got != StatusExceeded {
		t.Errorf("spent 100 of 100: status = %v, want EXCEEDED", got)
	}
}

func TestFilterBudgetsByStatus(t *testing.T) {
	budgets := []Budget{
		{ID: 1, Status: StatusExceeded},
		{ID: 2, Status: StatusSafe},
		{ID: 3, Status: StatusWarning},
		{ID: 4, Status: StatusSafe},
	}

	t.Run("all sentinel returns input order unchanged", func(t *testing.T) {
		got := FilterBudgetsByStatus(budgets, "all")
		if len(got) != len(budgets) {
			t.Fatalf("len = %d, want %d", len(got), len(budgets))
		}
		for i := range got {
			if got[i].ID != budgets[i].ID {
				t.Errorf("order changed at %d: got %d, want %d", i, got[i].ID, budgets[i].ID)
			}
		}
	})

	t.Run("case-insensitive match", func(t *testing.T) {
		got := FilterBudgetsByStatus(budgets, "Safe")
		if len(got) != 2 || got[0].ID != 2 || got[1].ID != 4 {
			t.Errorf("FilterBudgetsByStatus(Safe) = %v", got)
		}
	})

	t.Run("ALL sentinel is case-insensitive", func(t *testing.T) {
		if got := FilterBudgetsByStatus(budgets, "ALL"); len(got) != len(budgets) {
			t.Errorf("len = %d, want %d", len(got), len(budgets))
		}
	})
}

func TestSortBudgets_StatusSeverity(t *testing.T) {
	budgets := []Budget{
		{ID: 1, Status: StatusNormal},
		{ID: 2, Status: StatusExceeded},
		{ID: 3, Status: StatusSafe},
		{ID: 4, Status: StatusWarning},
	}

	got := SortBudgets(budgets, SortState{Key: BudgetSortStatus, Descending: true})
	wantOrder := []int64{2, 4, 1, 3}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("position %d: got budget %d, want %d", i, got[i].ID, want)
		}
	}

	// Input must stay untouched.
	if budgets[0].ID != 1 || budgets[3].ID != 4 {
		t.Error("SortBudgets mutated its input")
	}
}

func TestSortBudgets_CategoryAscending(t *testing.T) {
	budgets := []Budget{
		{ID: 1, CategoryName: "Transport"},
		{ID: 2, CategoryName: "Food"},
		{ID: 3, CategoryName: "Rent"},
	}

	got := SortBudgets(budgets, SortState{Key: BudgetSortCategory, Descending: false})
	if got[0].ID != 2 || got[1].ID != 3 || got[2].ID != 1 {
		t.Errorf("unexpected order: %v, %v, %v", got[0].CategoryName, got[1].CategoryName, got[2].CategoryName)
	}
}
