package entitlement

import "time"

// =============================================================================
// PERIOD - Accumulation window for balance calculation
// =============================================================================

// Period is the time window prior claims are counted within.
// Balance is always computed for a window, not at a point in time.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t falls within [Start, End].
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}

// =============================================================================
// FISCAL CALENDAR
// =============================================================================

// FiscalCalendar derives accumulation windows from an as-of date.
// StartMonth 1 means calendar years; 4 means April-to-March fiscal years.
type FiscalCalendar struct {
	StartMonth time.Month
}

// DefaultCalendar uses calendar years.
var DefaultCalendar = FiscalCalendar{StartMonth: time.January}

// YearFor returns the fiscal year containing date.
func (fc FiscalCalendar) YearFor(date time.Time) Period {
	month := fc.StartMonth
	if month == 0 {
		month = time.January
	}
	start := time.Date(date.Year(), month, 1, 0, 0, 0, 0, time.UTC)
	if date.Before(start) {
		start = start.AddDate(-1, 0, 0)
	}
	end := start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	return Period{Start: start, End: end}
}

// WindowFor returns the accumulation window ending at asOf's fiscal
// year and extending back accumulableYears additional years. A window
// of 0 years means "this fiscal year only": claims before the current
// year do not count against balance.
func (fc FiscalCalendar) WindowFor(asOf time.Time, accumulableYears int) Period {
	if accumulableYears < 0 {
		accumulableYears = 0
	}
	current := fc.YearFor(asOf)
	return Period{
		Start: current.Start.AddDate(-accumulableYears, 0, 0),
		End:   current.End,
	}
}
