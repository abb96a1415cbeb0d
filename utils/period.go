package utils

import (
	"regexp"
	"time"
)

// PeriodLayout is the time layout of a reporting period key.
const PeriodLayout = "2006-01"

var periodRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidatePeriod checks that period is a YYYY-MM month key.
func ValidatePeriod(period string) bool {
	return periodRegex.MatchString(period)
}

// CurrentPeriod returns the period key containing now.
func CurrentPeriod(now time.Time) string {
	return now.Format(PeriodLayout)
}

// RecentPeriods returns the n period keys ending at the one containing now,
// most recent first.
func RecentPeriods(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	periods := make([]string, 0, n)
	for i := 0; i < n; i++ {
		periods = append(periods, first.AddDate(0, -i, 0).Format(PeriodLayout))
	}
	return periods
}
