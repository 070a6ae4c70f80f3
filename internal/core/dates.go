package core

import "time"

// MonthKey returns the YYYY-MM prefix of a YYYY-MM-DD date.
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// MonthOf returns the month key of t in UTC.
func MonthOf(t time.Time) string {
	return t.UTC().Format(monthLayout)
}

// PreviousMonth returns the month key of the calendar month before t (UTC).
func PreviousMonth(t time.Time) string {
	t = t.UTC()
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -1, 0).Format(monthLayout)
}

// FormatDate renders a YYYY-MM-DD date as "Jan 15, 2024". Unparseable input is returned unchanged.
func FormatDate(date string) string {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("Jan 2, 2006")
}

// FormatMonth renders a YYYY-MM key as "January 2024".
func FormatMonth(month string) string {
	m, err := time.Parse(monthLayout, month)
	if err != nil {
		return month
	}
	return m.Format("January 2006")
}

// IsMonthKey reports whether s is a well-formed YYYY-MM key.
func IsMonthKey(s string) bool {
	_, err := time.Parse(monthLayout, s)
	return err == nil
}
