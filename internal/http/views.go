package http

import (
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Wire representations. All wall-clock values use the local layouts
// from core, never UTC ISO strings.

type accountView struct {
	ID        int64   `json:"account_id"`
	Name      string  `json:"account_name"`
	Type      string  `json:"account_type"`
	Balance   float64 `json:"balance"`
	CreatedAt string  `json:"created_at"`
}

func viewAccount(a core.Account) accountView {
	return accountView{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   core.Round2(a.Balance),
		CreatedAt: core.FormatDateTime(a.CreatedAt),
	}
}

type categoryView struct {
	ID     int64  `json:"category_id"`
	Name   string `json:"category_name"`
	Type   string `json:"type"`
	Source string `json:"source"`
}

func viewCategory(c core.Category) categoryView {
	source := "Custom"
	if c.UserID == 0 {
		source = "System"
	}
	return categoryView{ID: c.ID, Name: c.Name, Type: string(c.Type), Source: source}
}

type transactionView struct {
	ID             int64   `json:"transaction_id"`
	AccountID      int64   `json:"account_id"`
	CategoryID     int64   `json:"category_id"`
	GroupID        int64   `json:"group_id,omitempty"`
	RecurringID    int64   `json:"recurring_id,omitempty"`
	Amount         float64 `json:"amount"`
	OriginalAmount float64 `json:"original_amount,omitempty"`
	CurrencyCode   string  `json:"currency_code"`
	ExchangeRate   float64 `json:"exchange_rate"`
	Date           string  `json:"transaction_date"`
	Description    string  `json:"description"`
	AccountName    string  `json:"account_name"`
	CategoryName   string  `json:"category_name"`
	CategoryType   string  `json:"category_type"`
}

func viewTransaction(t core.Transaction) transactionView {
	return transactionView{
		ID:             t.ID,
		AccountID:      t.AccountID,
		CategoryID:     t.CategoryID,
		GroupID:        t.GroupID,
		RecurringID:    t.RecurringID,
		Amount:         t.Amount,
		OriginalAmount: t.OriginalAmount,
		CurrencyCode:   t.CurrencyCode,
		ExchangeRate:   t.ExchangeRate,
		Date:           core.FormatDateTime(t.Date),
		Description:    t.Description,
		AccountName:    t.AccountName,
		CategoryName:   t.CategoryName,
		CategoryType:   string(t.CategoryType),
	}
}

func viewTransactions(ts []core.Transaction) []transactionView {
	out := make([]transactionView, len(ts))
	for i, t := range ts {
		out[i] = viewTransaction(t)
	}
	return out
}

type budgetView struct {
	ID           int64   `json:"budget_id"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	AmountLimit  float64 `json:"amount_limit"`
	Spent        float64 `json:"spent"`
	Remaining    float64 `json:"remaining"`
	Percentage   float64 `json:"percentage"`
	Status       string  `json:"status"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
}

// viewBudget derives percentage and status from the aggregated spend.
func viewBudget(b core.Budget) budgetView {
	pct, err := core.BudgetPercentage(b.Spent, b.AmountLimit)
	if err != nil {
		pct = 0
	}
	return budgetView{
		ID:           b.ID,
		CategoryID:   b.CategoryID,
		CategoryName: b.CategoryName,
		AmountLimit:  b.AmountLimit,
		Spent:        core.Round2(b.Spent),
		Remaining:    core.Round2(b.AmountLimit - b.Spent),
		Percentage:   pct,
		Status:       string(core.ClassifyBudget(pct)),
		StartDate:    core.FormatDate(b.StartDate),
		EndDate:      core.FormatDate(b.EndDate),
	}
}

func viewBudgets(bs []core.Budget) []budgetView {
	out := make([]budgetView, len(bs))
	for i, b := range bs {
		out[i] = viewBudget(b)
	}
	return out
}

type recurringView struct {
	ID           int64   `json:"recurring_id"`
	AccountID    int64   `json:"account_id"`
	CategoryID   int64   `json:"category_id"`
	AccountName  string  `json:"account_name"`
	CategoryName string  `json:"category_name"`
	Amount       float64 `json:"amount"`
	Frequency    string  `json:"frequency"`
	StartDate    string  `json:"start_date"`
	NextDueDate  string  `json:"next_due_date"`
	IsActive     bool    `json:"is_active"`
	DaysUntilDue int     `json:"days_until_due"`
	IsOverdue    bool    `json:"is_overdue"`
	IsDueSoon    bool    `json:"is_due_soon"`
}

func viewRecurring(p core.RecurringPayment, now time.Time) recurringView {
	overdue, dueSoon := core.DueFlags(p.NextDueDate, now)
	return recurringView{
		ID:           p.ID,
		AccountID:    p.AccountID,
		CategoryID:   p.CategoryID,
		AccountName:  p.AccountName,
		CategoryName: p.CategoryName,
		Amount:       p.Amount,
		Frequency:    string(p.Frequency),
		StartDate:    core.FormatDate(p.StartDate),
		NextDueDate:  core.FormatDate(p.NextDueDate),
		IsActive:     p.IsActive,
		DaysUntilDue: core.DaysUntilDue(p.NextDueDate, now),
		IsOverdue:    overdue,
		IsDueSoon:    dueSoon,
	}
}

func viewRecurringList(ps []core.RecurringPayment, now time.Time) []recurringView {
	out := make([]recurringView, len(ps))
	for i, p := range ps {
		out[i] = viewRecurring(p, now)
	}
	return out
}

type groupView struct {
	ID          int64   `json:"group_id"`
	Name        string  `json:"group_name"`
	CreatedBy   int64   `json:"created_by"`
	CreatorName string  `json:"creator_name"`
	IsCreator   bool    `json:"is_creator"`
	MemberCount int     `json:"member_count"`
	TotalSpent  float64 `json:"total_spent"`
	CreatedAt   string  `json:"created_at"`
}

func viewGroup(g core.Group) groupView {
	return groupView{
		ID:          g.ID,
		Name:        g.Name,
		CreatedBy:   g.CreatedBy,
		CreatorName: g.CreatorName,
		IsCreator:   g.IsCreator,
		MemberCount: g.MemberCount,
		TotalSpent:  core.Round2(g.TotalSpent),
		CreatedAt:   core.FormatDateTime(g.CreatedAt),
	}
}

type memberView struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	JoinedAt string `json:"joined_at"`
}

func viewMember(m core.GroupMember) memberView {
	return memberView{
		UserID:   m.UserID,
		Username: m.Username,
		Email:    m.Email,
		JoinedAt: core.FormatDateTime(m.JoinedAt),
	}
}

type notificationView struct {
	ID        int64  `json:"notification_id"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	RelatedID int64  `json:"related_id,omitempty"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func viewNotification(n core.Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		Type:      string(n.Type),
		Severity:  string(n.Severity),
		Title:     n.Title,
		Message:   n.Message,
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		CreatedAt: core.FormatDateTime(n.CreatedAt),
	}
}

type userView struct {
	ID           int64  `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	BaseCurrency string `json:"base_currency"`
	CreatedAt    string `json:"created_at"`
}

func viewUser(u *storage.User) userView {
	return userView{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		BaseCurrency: u.BaseCurrency,
		CreatedAt:    core.FormatDateTime(u.CreatedAt),
	}
}
