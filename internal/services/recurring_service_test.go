package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestProcessDueCatchesUpMissedPeriods(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewRecurringService(f.repo, nil)

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)
	id, err := f.repo.CreateRecurring(ctx, core.RecurringPayment{
		UserID: f.userID, AccountID: f.accountID, CategoryID: f.expense,
		Amount: 30, Frequency: core.Monthly,
		StartDate: start, NextDueDate: start, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	// Three monthly periods have passed: Jan 15, Feb 15, Mar 15.
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.Local)
	processed, err := svc.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("process due: %v", err)
	}
	if processed != 3 {
		t.Errorf("processed = %d, want 3", processed)
	}

	p, err := f.repo.GetRecurring(ctx, f.userID, id)
	if err != nil {
		t.Fatalf("get recurring: %v", err)
	}
	want := time.Date(2024, 4, 15, 0, 0, 0, 0, time.Local)
	if !p.NextDueDate.Equal(want) {
		t.Errorf("next_due_date = %v, want %v", p.NextDueDate, want)
	}

	transactions, total, err := f.repo.ListTransactions(ctx, f.userID, storage.TransactionFilter{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if total != 3 {
		t.Fatalf("settlements = %d, want 3", total)
	}
	for _, tx := range transactions {
		if tx.RecurringID != id {
			t.Errorf("settlement %d missing recurring link", tx.ID)
		}
	}
	// Each settlement is dated at its own due date, newest first.
	if got := core.FormatDate(transactions[0].Date); got != "2024-03-15" {
		t.Errorf("latest settlement date = %s, want 2024-03-15", got)
	}
	if got := core.FormatDate(transactions[2].Date); got != "2024-01-15" {
		t.Errorf("earliest settlement date = %s, want 2024-01-15", got)
	}

	t.Run("balance reflects all settlements", func(t *testing.T) {
		a, err := f.repo.GetAccount(ctx, f.userID, f.accountID)
		if err != nil {
			t.Fatalf("get account: %v", err)
		}
		if a.Balance != -90 {
			t.Errorf("balance = %v, want -90", a.Balance)
		}
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		processed, err := svc.ProcessDue(ctx, now)
		if err != nil {
			t.Fatalf("process due: %v", err)
		}
		if processed != 0 {
			t.Errorf("processed = %d, want 0", processed)
		}
	})
}

func TestProcessDueSkipsInactivePayments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewRecurringService(f.repo, nil)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	if _, err := f.repo.CreateRecurring(ctx, core.RecurringPayment{
		UserID: f.userID, AccountID: f.accountID, CategoryID: f.expense,
		Amount: 30, Frequency: core.Weekly,
		StartDate: start, NextDueDate: start, IsActive: false,
	}); err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	processed, err := svc.ProcessDue(ctx, time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("process due: %v", err)
	}
	if processed != 0 {
		t.Errorf("processed = %d, want 0 for paused payment", processed)
	}
}

func TestExecuteOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewRecurringService(f.repo, nil)

	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local)
	id, err := f.repo.CreateRecurring(ctx, core.RecurringPayment{
		UserID: f.userID, AccountID: f.accountID, CategoryID: f.expense,
		Amount: 45, Frequency: core.Monthly,
		StartDate: due, NextDueDate: due, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.Local)
	p, err := svc.ExecuteOne(ctx, f.userID, id, now)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := time.Date(2024, 7, 1, 0, 0, 0, 0, time.Local)
	if !p.NextDueDate.Equal(want) {
		t.Errorf("next_due_date = %v, want %v", p.NextDueDate, want)
	}

	t.Run("paused payment rejected", func(t *testing.T) {
		p.IsActive = false
		if err := f.repo.UpdateRecurring(ctx, *p); err != nil {
			t.Fatalf("pause: %v", err)
		}
		if _, err := svc.ExecuteOne(ctx, f.userID, id, now); err == nil {
			t.Error("executing a paused payment succeeded")
		}
	})
}
