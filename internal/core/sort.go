package core

import (
	"sort"
	"time"
)

type (
	// SortKey names a sortable column of a record listing.
	SortKey string

	// SortState is the toggle state of a sortable listing: the active key
	// and its direction.
	SortState struct {
		Key        SortKey
		Descending bool
	}

	// TransactionFilter narrows a transaction listing. Zero fields are
	// ignored; the date bounds are inclusive.
	TransactionFilter struct {
		AccountID int64
		From      time.Time
		To        time.Time
	}
)

// Transaction sort keys.
const (
	TxSortDate   SortKey = "date"
	TxSortAmount SortKey = "amount"
)

// Recurring payment sort keys.
const (
	RecSortDueDate SortKey = "next_due_date"
	RecSortAmount  SortKey = "amount"
)

// Toggle returns the state after clicking key: clicking the active key
// flips the direction, switching to a new key resets to descending.
func (s SortState) Toggle(key SortKey) SortState {
	if s.Key == key {
		return SortState{Key: key, Descending: !s.Descending}
	}
	return SortState{Key: key, Descending: true}
}

// SortTransactions returns a sorted copy of txns. The input slice is never
// mutated and ties keep their incoming order, so re-sorting an already
// sorted listing leaves it unchanged.
func SortTransactions(txns []Transaction, state SortState) []Transaction {
	out := make([]Transaction, len(txns))
	copy(out, txns)

	var less func(a, b Transaction) bool
	switch state.Key {
	case TxSortDate:
		less = func(a, b Transaction) bool { return a.Date.Before(b.Date) }
	case TxSortAmount:
		less = func(a, b Transaction) bool { return a.Amount < b.Amount }
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

// SortRecurring returns a sorted copy of payments, by due date or amount.
func SortRecurring(payments []RecurringPayment, state SortState) []RecurringPayment {
	out := make([]RecurringPayment, len(payments))
	copy(out, payments)

	var less func(a, b RecurringPayment) bool
	switch state.Key {
	case RecSortDueDate:
		less = func(a, b RecurringPayment) bool { return a.NextDueDate.Before(b.NextDueDate) }
	case RecSortAmount:
		less = func(a, b RecurringPayment) bool { return a.Amount < b.Amount }
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

// FilterTransactions returns the transactions matching f, preserving order.
func FilterTransactions(txns []Transaction, f TransactionFilter) []Transaction {
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if f.AccountID != 0 && t.AccountID != f.AccountID {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && t.Date.After(f.To) {
			continue
		}
		out = append(out, t)
	}
	return out
}
