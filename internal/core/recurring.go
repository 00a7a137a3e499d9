package core

import "time"

// DueSoonWindowDays is the forward window within which an upcoming payment
// counts as due soon.
const DueSoonWindowDays = 7

// DaysUntilDue returns the number of calendar days from now's date to the
// due date. Negative values mean the payment is overdue. Both midnights
// are anchored in UTC so a daylight saving shift between the two dates
// cannot skew the count.
func DaysUntilDue(nextDue, now time.Time) int {
	due := time.Date(nextDue.Year(), nextDue.Month(), nextDue.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(due.Sub(today) / (24 * time.Hour))
}

// DueFlags classifies a due date against the current moment: overdue when
// strictly past, due soon when inside the forward window. Overdue wins over
// due soon.
func DueFlags(nextDue, now time.Time) (overdue, dueSoon bool) {
	days := DaysUntilDue(nextDue, now)
	overdue = days < 0
	dueSoon = days >= 0 && days <= DueSoonWindowDays
	return overdue, dueSoon
}

// NextAfter advances a due date by one frequency step. Monthly and yearly
// steps follow time.AddDate normalization (Jan 31 + 1 month lands on
// Mar 2/3), mirroring the date arithmetic of the backing database.
func NextAfter(f Frequency, due time.Time) time.Time {
	switch f {
	case Daily:
		return due.AddDate(0, 0, 1)
	case Weekly:
		return due.AddDate(0, 0, 7)
	case Monthly:
		return due.AddDate(0, 1, 0)
	case Yearly:
		return due.AddDate(1, 0, 0)
	}
	return due
}

// IsOverdue reports whether the payment's next due date is strictly before
// now, at date granularity.
func (p RecurringPayment) IsOverdue(now time.Time) bool {
	overdue, _ := DueFlags(p.NextDueDate, now)
	return overdue
}

// IsDueSoon reports whether the payment falls inside the due-soon window.
func (p RecurringPayment) IsDueSoon(now time.Time) bool {
	_, dueSoon := DueFlags(p.NextDueDate, now)
	return dueSoon
}
