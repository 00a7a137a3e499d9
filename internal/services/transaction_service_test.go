package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestBalanceDelta(t *testing.T) {
	tests := []struct {
		name         string
		categoryType core.CategoryType
		amount       float64
		want         float64
	}{
		{"income adds", core.Income, 100, 100},
		{"income with negative input still adds", core.Income, -100, 100},
		{"expense subtracts", core.Expense, 50, -50},
		{"expense with negative input still subtracts", core.Expense, -50, -50},
		{"zero amount", core.Expense, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BalanceDelta(tt.categoryType, tt.amount); got != tt.want {
				t.Errorf("BalanceDelta(%s, %v) = %v, want %v",
					tt.categoryType, tt.amount, got, tt.want)
			}
		})
	}
}

func TestUpdateChecksGroupMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewTransactionService(f.repo, nil)

	otherID, err := f.repo.CreateUser(ctx, "other", "other@example.com", "hash", "VND")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	groupID, err := f.repo.CreateGroup(ctx, "Trip", otherID)
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	created, _, err := svc.Create(ctx, core.Transaction{
		UserID: f.userID, AccountID: f.accountID, CategoryID: f.expense,
		CurrencyCode: "VND", Date: time.Now(),
	}, core.AmountInput{Amount: 50, ExchangeRate: 1})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	update := core.Transaction{
		ID: created.ID, UserID: f.userID,
		AccountID: f.accountID, CategoryID: f.expense,
		GroupID: groupID, CurrencyCode: "VND", Date: created.Date,
	}

	// Not a member yet: the group ledger must stay out of reach.
	_, err = svc.Update(ctx, update, core.AmountInput{Amount: 50, ExchangeRate: 1})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update into foreign group: err = %v, want ErrNotFound", err)
	}

	if err := f.repo.AddGroupMember(ctx, groupID, f.userID); err != nil {
		t.Fatalf("add member: %v", err)
	}
	updated, err := svc.Update(ctx, update, core.AmountInput{Amount: 50, ExchangeRate: 1})
	if err != nil {
		t.Fatalf("update as member: %v", err)
	}
	if updated.GroupID != groupID {
		t.Errorf("group_id = %d, want %d", updated.GroupID, groupID)
	}
}
