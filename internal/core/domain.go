package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Frequency = "Daily"
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
	Yearly  Frequency = "Yearly"
)

const (
	Income  CategoryType = "Income"
	Expense CategoryType = "Expense"
)

const (
	Cash       AccountType = "Cash"
	Bank       AccountType = "Bank Account"
	CreditCard AccountType = "Credit Card"
	EWallet    AccountType = "E-Wallet"
	Investment AccountType = "Investment"
)

const (
	StatusSafe     BudgetStatus = "SAFE"
	StatusNormal   BudgetStatus = "NORMAL"
	StatusWarning  BudgetStatus = "WARNING"
	StatusExceeded BudgetStatus = "EXCEEDED"
)

const (
	NotifyUpcomingBill    NotificationType = "upcoming_bill"
	NotifyUnusualSpending NotificationType = "unusual_spending"
	NotifyBudgetAlert     NotificationType = "budget_alert"
)

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

type (
	Frequency        string
	CategoryType     string
	AccountType      string
	BudgetStatus     string
	NotificationType string
	Severity         string

	Account struct {
		ID        int64
		UserID    int64
		Name      string
		Type      AccountType
		Balance   float64
		CreatedAt time.Time
	}

	Category struct {
		ID     int64
		UserID int64 // zero for system categories
		Name   string
		Type   CategoryType
	}

	Transaction struct {
		ID             int64
		UserID         int64
		AccountID      int64
		CategoryID     int64
		GroupID        int64 // zero when not shared
		RecurringID    int64 // zero when not from a recurring payment
		Amount         float64
		OriginalAmount float64 // zero unless foreign-currency entry
		CurrencyCode   string
		ExchangeRate   float64
		Date           time.Time
		Description    string
		AccountName    string
		CategoryName   string
		CategoryType   CategoryType
	}

	Budget struct {
		ID           int64
		UserID       int64
		CategoryID   int64
		CategoryName string
		AmountLimit  float64
		Spent        float64
		Percentage   float64
		Status       BudgetStatus
		StartDate    time.Time
		EndDate      time.Time
		CreatedAt    time.Time
	}

	RecurringPayment struct {
		ID           int64
		UserID       int64
		AccountID    int64
		CategoryID   int64
		AccountName  string
		CategoryName string
		Amount       float64
		Frequency    Frequency
		StartDate    time.Time
		NextDueDate  time.Time
		IsActive     bool
	}

	Group struct {
		ID          int64
		Name        string
		CreatedBy   int64
		CreatorName string
		IsCreator   bool
		MemberCount int
		TotalSpent  float64
		CreatedAt   time.Time
	}

	GroupMember struct {
		UserID   int64
		Username string
		Email    string
		JoinedAt time.Time
	}

	Notification struct {
		ID        int64
		UserID    int64
		Type      NotificationType
		Severity  Severity
		Title     string
		Message   string
		RelatedID int64
		IsRead    bool
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidRate        = errors.New("invalid exchange rate")
	ErrInvalidLimit       = errors.New("invalid budget limit")
	ErrInvalidDateRange   = errors.New("end date must be after start date")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidCategory    = errors.New("invalid category type")
	ErrEmptyName          = errors.New("empty name")
)

// ValidFrequency reports whether f is one of the supported repetition types.
func ValidFrequency(f Frequency) bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	switch a.Type {
	case Cash, Bank, CreditCard, EWallet, Investment:
	default:
		return ErrInvalidAccountType
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Type != Income && c.Type != Expense {
		return ErrInvalidCategory
	}
	return nil
}

// Validate checks the fields a budget must satisfy at creation time.
// A non-positive limit is rejected here so the percentage computation
// never has to divide by zero downstream.
func (b Budget) Validate() error {
	if b.AmountLimit <= 0 {
		return ErrInvalidLimit
	}
	if !b.EndDate.After(b.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

func (p RecurringPayment) Validate() error {
	if p.Amount == 0 {
		return ErrInvalidAmount
	}
	if !ValidFrequency(p.Frequency) {
		return ErrInvalidFrequency
	}
	if p.StartDate.IsZero() {
		return errors.New("start date cannot be zero")
	}
	return nil
}
