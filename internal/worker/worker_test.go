package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// seedOverspentUser creates a user whose only budget is fully used.
func seedOverspentUser(t *testing.T, repo *storage.SQLiteRepository, email string) int64 {
	t.Helper()
	ctx := context.Background()

	userID, err := repo.CreateUser(ctx, "tester", email, "hash", "VND")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	accountID, err := repo.CreateAccount(ctx, core.Account{UserID: userID, Name: "Wallet", Type: core.Cash})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	catID, err := repo.CreateCategory(ctx, core.Category{UserID: userID, Name: "Food", Type: core.Expense})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := repo.CreateBudget(ctx, core.Budget{
		UserID: userID, CategoryID: catID, AmountLimit: 100,
		StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local),
		EndDate:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.Local),
	}); err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: userID, AccountID: accountID, CategoryID: catID,
		Amount: 150, CurrencyCode: "VND", ExchangeRate: 1,
		Date: time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local),
	}, -150); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return userID
}

func TestSweepBudgetsCoversAllBatches(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	for i := 0; i < 3; i++ {
		seedOverspentUser(t, repo, fmt.Sprintf("user%d@example.com", i))
	}

	// Batch size smaller than the user count forces multiple batches.
	w := NewNotificationWorker(repo, services.NewNotificationService(repo), 2)

	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.Local)
	created, err := w.SweepBudgets(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if created != 3 {
		t.Errorf("alerts created = %d, want one per user", created)
	}

	t.Run("rerun same day creates nothing", func(t *testing.T) {
		created, err := w.SweepBudgets(context.Background(), now)
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if created != 0 {
			t.Errorf("alerts on rerun = %d, want 0", created)
		}
	})

	t.Run("cancelled context stops between batches", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := w.SweepBudgets(ctx, now); err == nil {
			t.Error("sweep ignored cancelled context")
		}
	})
}
