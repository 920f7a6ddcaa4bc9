package core

import "time"

// Step advances a due date by one frequency interval. Step is pure and
// never rolls over month boundaries: month-based frequencies target the
// anchor day of month (the definition's start day), clamped to the length
// of the target month. A definition anchored on the 31st therefore runs
// Jan 31 -> Feb 29 -> Mar 31, never Mar 2.
func Step(d time.Time, f Frequency, anchorDay int) (time.Time, error) {
	switch f {
	case Weekly:
		return d.AddDate(0, 0, 7), nil
	case Monthly:
		return addMonthsClamped(d, 1, anchorDay), nil
	case Quarterly:
		return addMonthsClamped(d, 3, anchorDay), nil
	case Yearly:
		return addMonthsClamped(d, 12, anchorDay), nil
	default:
		return time.Time{}, ErrInvalidFrequency
	}
}

// NextDue computes the first occurrence of d that has not been generated
// yet. With no LastGenerated the start date itself is the next occurrence.
func (d RecurringDefinition) NextDue() (time.Time, error) {
	if d.LastGenerated.IsZero() {
		return d.StartDate, nil
	}
	return Step(d.LastGenerated, d.Frequency, d.StartDate.Day())
}

func addMonthsClamped(d time.Time, months, anchorDay int) time.Time {
	y, m, _ := d.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, d.Location())
	day := anchorDay
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, d.Location())
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
