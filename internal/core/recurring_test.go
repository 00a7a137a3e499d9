package core

import (
	"testing"
	"time"
)

func TestDueFlags(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.Local)

	tests := []struct {
		name        string
		nextDue     time.Time
		wantOverdue bool
		wantDueSoon bool
	}{
		{
			name:        "past due date is overdue",
			nextDue:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local),
			wantOverdue: true,
		},
		{
			name:        "yesterday is overdue even late in the day",
			nextDue:     time.Date(2024, 3, 14, 23, 0, 0, 0, time.Local),
			wantOverdue: true,
		},
		{
			name:        "today is due soon, not overdue",
			nextDue:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local),
			wantDueSoon: true,
		},
		{
			name:        "seventh day is still due soon",
			nextDue:     time.Date(2024, 3, 22, 0, 0, 0, 0, time.Local),
			wantDueSoon: true,
		},
		{
			name:    "eighth day is neither",
			nextDue: time.Date(2024, 3, 23, 0, 0, 0, 0, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overdue, dueSoon := DueFlags(tt.nextDue, now)
			if overdue != tt.wantOverdue || dueSoon != tt.wantDueSoon {
				t.Errorf("DueFlags() = (%v, %v), want (%v, %v)",
					overdue, dueSoon, tt.wantOverdue, tt.wantDueSoon)
			}
		})
	}
}

func TestDaysUntilDue_AcrossDaylightSaving(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// US clocks spring forward on 2024-03-10, making that day 23 hours.
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, ny)
	due := time.Date(2024, 3, 11, 0, 30, 0, 0, ny)

	if got := DaysUntilDue(due, now); got != 2 {
		t.Errorf("DaysUntilDue() = %d, want 2 across the spring-forward day", got)
	}
}

func TestDueFlags_OverdueWinsOverDueSoon(t *testing.T) {
	now := time.Date(2024, 3, 15, 8, 0, 0, 0, time.Local)
	past := time.Date(2024, 3, 14, 0, 0, 0, 0, time.Local)

	p := RecurringPayment{NextDueDate: past}
	if !p.IsOverdue(now) {
		t.Error("payment with past due date must be overdue")
	}
	if p.IsDueSoon(now) {
		t.Error("overdue payment must not also be due soon")
	}
}

func TestNextAfter(t *testing.T) {
	tests := []struct {
		name string
		freq Frequency
		due  time.Time
		want time.Time
	}{
		{
			name: "daily",
			freq: Daily,
			due:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local),
			want: time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local),
		},
		{
			name: "weekly",
			freq: Weekly,
			due:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local),
			want: time.Date(2024, 1, 8, 0, 0, 0, 0, time.Local),
		},
		{
			name: "monthly",
			freq: Monthly,
			due:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local),
			want: time.Date(2024, 4, 15, 0, 0, 0, 0, time.Local),
		},
		{
			name: "monthly end-of-month normalizes forward",
			freq: Monthly,
			due:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local),
			want: time.Date(2024, 3, 2, 0, 0, 0, 0, time.Local),
		},
		{
			name: "yearly across leap day",
			freq: Yearly,
			due:  time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local),
			want: time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextAfter(tt.freq, tt.due); !got.Equal(tt.want) {
				t.Errorf("NextAfter(%s) = %v, want %v", tt.freq, got, tt.want)
			}
		})
	}
}

func TestParseDateTime_LocalInterpretation(t *testing.T) {
	got, err := ParseDateTime("2024-06-01 13:45:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Location() != time.Local {
		t.Errorf("location = %v, want Local", got.Location())
	}
	if FormatDateTime(got) != "2024-06-01 13:45:00" {
		t.Errorf("round trip = %q", FormatDateTime(got))
	}
}

func TestValidate_Budget(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local)

	if err := (Budget{AmountLimit: 100, StartDate: start, EndDate: end}).Validate(); err != nil {
		t.Errorf("valid budget rejected: %v", err)
	}
	if err := (Budget{AmountLimit: 0, StartDate: start, EndDate: end}).Validate(); err != ErrInvalidLimit {
		t.Errorf("zero limit: error = %v, want ErrInvalidLimit", err)
	}
	if err := (Budget{AmountLimit: 100, StartDate: end, EndDate: start}).Validate(); err != ErrInvalidDateRange {
		t.Errorf("inverted range: error = %v, want ErrInvalidDateRange", err)
	}
	if err := (Budget{AmountLimit: 100, StartDate: start, EndDate: start}).Validate(); err != ErrInvalidDateRange {
		t.Errorf("equal dates: error = %v, want ErrInvalidDateRange", err)
	}
}
