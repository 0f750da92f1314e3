package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AcademicYearFor names the academic year ("2024-2025") that t falls in when years
// begin on the first day of startMonth.
func AcademicYearFor(t time.Time, startMonth int) string {
	first := t.Year()
	if int(t.Month()) < startMonth {
		first--
	}
	return fmt.Sprintf("%d-%d", first, first+1)
}

// AcademicYearRange returns the first and last day of an academic year "YYYY-YYYY"
// beginning in startMonth of the first year.
func AcademicYearRange(academicYear string, startMonth int) (Date, Date, error) {
	parts := strings.Split(academicYear, "-")
	if len(parts) != 2 {
		return Date{}, Date{}, fmt.Errorf("invalid academic year %q", academicYear)
	}
	first, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, Date{}, fmt.Errorf("invalid academic year %q", academicYear)
	}
	second, err := strconv.Atoi(parts[1])
	if err != nil || second != first+1 {
		return Date{}, Date{}, fmt.Errorf("invalid academic year %q", academicYear)
	}
	if startMonth < 1 || startMonth > 12 {
		return Date{}, Date{}, fmt.Errorf("invalid start month %d", startMonth)
	}
	from := time.Date(first, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, -1)
	return Date{Time: from}, Date{Time: to}, nil
}
