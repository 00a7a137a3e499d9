package core

import (
	"testing"
	"time"
)

func mustParseDateTime(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDateTime(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestSortTransactions_ByDateAndAmount(t *testing.T) {
	txns := []Transaction{
		{ID: 1, Date: mustParseDateTime(t, "2024-01-01 10:00:00"), Amount: 50},
		{ID: 2, Date: mustParseDateTime(t, "2024-02-01 10:00:00"), Amount: 20},
	}

	byDateDesc := SortTransactions(txns, SortState{Key: TxSortDate, Descending: true})
	if byDateDesc[0].ID != 2 {
		t.Errorf("date descending: first = %d, want the February entry", byDateDesc[0].ID)
	}

	byAmountAsc := SortTransactions(txns, SortState{Key: TxSortAmount, Descending: false})
	if byAmountAsc[0].Amount != 20 {
		t.Errorf("amount ascending: first amount = %v, want 20", byAmountAsc[0].Amount)
	}
}

func TestSortTransactions_ToggleReverses(t *testing.T) {
	txns := []Transaction{
		{ID: 1, Amount: 30},
		{ID: 2, Amount: 10},
		{ID: 3, Amount: 20},
	}

	state := SortState{}.Toggle(TxSortAmount) // new key: descending
	desc := SortTransactions(txns, state)
	state = state.Toggle(TxSortAmount) // same key: flip
	asc := SortTransactions(txns, state)

	for i := range desc {
		if desc[i].ID != asc[len(asc)-1-i].ID {
			t.Fatalf("ascending is not the exact reverse of descending at %d", i)
		}
	}
}

func TestSortTransactions_Idempotent(t *testing.T) {
	txns := []Transaction{
		{ID: 1, Amount: 10},
		{ID: 2, Amount: 20},
		{ID: 3, Amount: 30},
	}
	state := SortState{Key: TxSortAmount, Descending: false}

	once := SortTransactions(txns, state)
	twice := SortTransactions(once, state)
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Fatalf("re-sorting a sorted list changed order at %d", i)
		}
	}
}

func TestSortTransactions_DoesNotMutateInput(t *testing.T) {
	txns := []Transaction{
		{ID: 1, Amount: 30},
		{ID: 2, Amount: 10},
	}
	_ = SortTransactions(txns, SortState{Key: TxSortAmount, Descending: false})
	if txns[0].ID != 1 || txns[1].ID != 2 {
		t.Error("SortTransactions mutated its input")
	}
}

func TestSortTransactions_StableOnTies(t *testing.T) {
	txns := []Transaction{
		{ID: 1, Amount: 10},
		{ID: 2, Amount: 10},
		{ID: 3, Amount: 10},
	}
	got := SortTransactions(txns, SortState{Key: TxSortAmount, Descending: true})
	for i, want := range []int64{1, 2, 3} {
		if got[i].ID != want {
			t.Errorf("tie order broken at %d: got %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestSortState_Toggle(t *testing.T) {
	tests := []struct {
		name  string
		state SortState
		key   SortKey
		want  SortState
	}{
		{
			name:  "new key resets to descending",
			state: SortState{Key: TxSortDate, Descending: false},
			key:   TxSortAmount,
			want:  SortState{Key: TxSortAmount, Descending: true},
		},
		{
			name:  "same key flips direction",
			state: SortState{Key: TxSortAmount, Descending: true},
			key:   TxSortAmount,
			want:  SortState{Key: TxSortAmount, Descending: false},
		},
		{
			name:  "same key flips back",
			state: SortState{Key: TxSortAmount, Descending: false},
			key:   TxSortAmount,
			want:  SortState{Key: TxSortAmount, Descending: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Toggle(tt.key); got != tt.want {
				t.Errorf("Toggle() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFilterTransactions(t *testing.T) {
	txns := []Transaction{
		{ID: 1, AccountID: 1, Date: mustParseDateTime(t, "2024-01-05 09:00:00")},
		{ID: 2, AccountID: 2, Date: mustParseDateTime(t, "2024-01-10 09:00:00")},
		{ID: 3, AccountID: 1, Date: mustParseDateTime(t, "2024-02-01 09:00:00")},
	}

	t.Run("by account", func(t *testing.T) {
		got := FilterTransactions(txns, TransactionFilter{AccountID: 1})
		if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
			t.Errorf("unexpected result: %v", got)
		}
	})

	t.Run("by date range inclusive", func(t *testing.T) {
		from := mustParseDateTime(t, "2024-01-05 09:00:00")
		to := mustParseDateTime(t, "2024-01-10 09:00:00")
		got := FilterTransactions(txns, TransactionFilter{From: from, To: to})
		if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
			t.Errorf("unexpected result: %v", got)
		}
	})

	t.Run("zero filter keeps everything", func(t *testing.T) {
		if got := FilterTransactions(txns, TransactionFilter{}); len(got) != 3 {
			t.Errorf("len = %d, want 3", len(got))
		}
	})
}
