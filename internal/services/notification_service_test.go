package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

type fixture struct {
	repo      *storage.SQLiteRepository
	userID    int64
	accountID int64
	expense   int64
	income    int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	repo := newTestRepo(t)

	userID, err := repo.CreateUser(ctx, "tester", "tester@example.com", "hash", "VND")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	accountID, err := repo.CreateAccount(ctx, core.Account{UserID: userID, Name: "Wallet", Type: core.Cash})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	expense, err := repo.CreateCategory(ctx, core.Category{UserID: userID, Name: "Food", Type: core.Expense})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	income, err := repo.CreateCategory(ctx, core.Category{UserID: userID, Name: "Salary", Type: core.Income})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return fixture{repo: repo, userID: userID, accountID: accountID, expense: expense, income: income}
}

func (f fixture) addExpense(t *testing.T, amount float64, date time.Time) int64 {
	t.Helper()
	id, err := f.repo.CreateTransaction(context.Background(), core.Transaction{
		UserID: f.userID, AccountID: f.accountID, CategoryID: f.expense,
		Amount: amount, CurrencyCode: "VND", ExchangeRate: 1, Date: date,
	}, -amount)
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return id
}

func countNotifications(t *testing.T, repo *storage.SQLiteRepository, userID int64, typ core.NotificationType) int {
	t.Helper()
	list, err := repo.ListNotifications(context.Background(), userID, false, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	n := 0
	for _, item := range list {
		if item.Type == typ {
			n++
		}
	}
	return n
}

func TestCheckUnusualSpending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewNotificationService(f.repo)

	// Build up history: three ordinary expenses averaging 100.
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		f.addExpense(t, 100, base.AddDate(0, 0, i))
	}

	t.Run("ordinary expense passes", func(t *testing.T) {
		id := f.addExpense(t, 110, base.AddDate(0, 0, 10))
		if err := svc.CheckUnusualSpending(ctx, f.userID, id, f.expense); err != nil {
			t.Fatalf("check: %v", err)
		}
		if n := countNotifications(t, f.repo, f.userID, core.NotifyUnusualSpending); n != 0 {
			t.Errorf("alerts = %d, want 0 for expense within the ratio", n)
		}
	})

	t.Run("outlier flagged once per day", func(t *testing.T) {
		id := f.addExpense(t, 400, base.AddDate(0, 0, 11))
		if err := svc.CheckUnusualSpending(ctx, f.userID, id, f.expense); err != nil {
			t.Fatalf("check: %v", err)
		}
		if n := countNotifications(t, f.repo, f.userID, core.NotifyUnusualSpending); n != 1 {
			t.Fatalf("alerts = %d, want 1", n)
		}

		// The worker may redeliver the same event; no duplicate.
		if err := svc.CheckUnusualSpending(ctx, f.userID, id, f.expense); err != nil {
			t.Fatalf("recheck: %v", err)
		}
		if n := countNotifications(t, f.repo, f.userID, core.NotifyUnusualSpending); n != 1 {
			t.Errorf("alerts after redelivery = %d, want 1", n)
		}
	})

	t.Run("income never flagged", func(t *testing.T) {
		id, err := f.repo.CreateTransaction(ctx, core.Transaction{
			UserID: f.userID, AccountID: f.accountID, CategoryID: f.income,
			Amount: 9999, CurrencyCode: "VND", ExchangeRate: 1, Date: base,
		}, 9999)
		if err != nil {
			t.Fatalf("create income: %v", err)
		}
		if err := svc.CheckUnusualSpending(ctx, f.userID, id, f.income); err != nil {
			t.Fatalf("check: %v", err)
		}
		if n := countNotifications(t, f.repo, f.userID, core.NotifyUnusualSpending); n != 1 {
			t.Errorf("alerts = %d, want unchanged", n)
		}
	})
}

func TestCheckUnusualSpendingNeedsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewNotificationService(f.repo)

	// Two samples are below the minimum; even a huge outlier is ignored.
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	f.addExpense(t, 100, base)
	f.addExpense(t, 100, base.AddDate(0, 0, 1))

	id := f.addExpense(t, 5000, base.AddDate(0, 0, 2))
	if err := svc.CheckUnusualSpending(ctx, f.userID, id, f.expense); err != nil {
		t.Fatalf("check: %v", err)
	}
	if n := countNotifications(t, f.repo, f.userID, core.NotifyUnusualSpending); n != 0 {
		t.Errorf("alerts = %d, want 0 without enough history", n)
	}
}

func TestRemindUpcomingBills(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewNotificationService(f.repo)

	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.Local)
	payments := []struct {
		due    time.Time
		active bool
	}{
		{now.AddDate(0, 0, 2), true},  // inside the window
		{now.AddDate(0, 0, 10), true}, // outside
		{now.AddDate(0, 0, 1), false}, // paused
	}
	for _, p := range payments {
		_, err := f.repo.CreateRecurring(ctx, core.RecurringPayment{
			UserID: f.userID, AccountID: f.accountID, CategoryID: f.expense,
			Amount: 50, Frequency: core.Monthly,
			StartDate: p.due, NextDueDate: p.due, IsActive: p.active,
		})
		if err != nil {
			t.Fatalf("create recurring: %v", err)
		}
	}

	created, err := svc.RemindUpcomingBills(ctx, now)
	if err != nil {
		t.Fatalf("remind: %v", err)
	}
	if created != 1 {
		t.Errorf("created = %d, want 1 (only the active in-window payment)", created)
	}

	t.Run("same day run is a no-op", func(t *testing.T) {
		created, err := svc.RemindUpcomingBills(ctx, now)
		if err != nil {
			t.Fatalf("remind: %v", err)
		}
		if created != 0 {
			t.Errorf("created on rerun = %d, want 0", created)
		}
	})
}

func TestRemindUpcomingBillsDedupFollowsClock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewNotificationService(f.repo)

	// Anchored to the real clock: the stored created_at is, too.
	now := time.Now()
	due := now.AddDate(0, 0, 2)
	if _, err := f.repo.CreateRecurring(ctx, core.RecurringPayment{
		UserID: f.userID, AccountID: f.accountID, CategoryID: f.expense,
		Amount: 50, Frequency: core.Monthly,
		StartDate: due, NextDueDate: due, IsActive: true,
	}); err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	created, err := svc.RemindUpcomingBills(ctx, now)
	if err != nil {
		t.Fatalf("remind: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	created, err = svc.RemindUpcomingBills(ctx, now)
	if err != nil {
		t.Fatalf("remind: %v", err)
	}
	if created != 0 {
		t.Fatalf("created on same-day rerun = %d, want 0", created)
	}

	// The dedup day must follow the clock passed in, not the wall clock:
	// two days later the payment is due today and deserves a fresh reminder.
	created, err = svc.RemindUpcomingBills(ctx, now.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("remind: %v", err)
	}
	if created != 1 {
		t.Errorf("created on a later day = %d, want 1", created)
	}
}

func TestCheckUserBudgets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewNotificationService(f.repo)

	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.Local)
	if _, err := f.repo.CreateBudget(ctx, core.Budget{
		UserID: f.userID, CategoryID: f.expense, AmountLimit: 100,
		StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local),
		EndDate:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.Local),
	}); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	t.Run("below warning threshold", func(t *testing.T) {
		f.addExpense(t, 50, time.Date(2024, 5, 5, 12, 0, 0, 0, time.Local))
		created, err := svc.CheckUserBudgets(ctx, f.userID, now)
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if created != 0 {
			t.Errorf("created = %d, want 0 at 50%%", created)
		}
	})

	t.Run("exceeded creates danger alert", func(t *testing.T) {
		f.addExpense(t, 60, time.Date(2024, 5, 6, 12, 0, 0, 0, time.Local))
		created, err := svc.CheckUserBudgets(ctx, f.userID, now)
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if created != 1 {
			t.Fatalf("created = %d, want 1 at 110%%", created)
		}

		list, err := f.repo.ListNotifications(ctx, f.userID, true, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		var alert *core.Notification
		for i := range list {
			if list[i].Type == core.NotifyBudgetAlert {
				alert = &list[i]
			}
		}
		if alert == nil {
			t.Fatal("no budget alert recorded")
		}
		if alert.Severity != core.SeverityDanger {
			t.Errorf("severity = %s, want danger", alert.Severity)
		}
	})
}
