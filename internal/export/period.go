package export

import (
	"strings"
	"time"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
)

// Period selects which reservations are exported.
type Period string

const (
	PeriodThisMonth   Period = "this_month"
	PeriodLast3Months Period = "last_3_months"
	PeriodAll         Period = "all"
)

const dateLayout = "2006-01-02"

// ParsePeriod maps a selector to a Period. Empty means all.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodThisMonth:
		return PeriodThisMonth, nil
	case PeriodLast3Months:
		return PeriodLast3Months, nil
	default:
		return "", apperrors.Newf(apperrors.ErrValidation, "invalid export period: %s", s)
	}
}

// Range returns the inclusive date bounds (YYYY-MM-DD) of p relative to now.
func (p Period) Range(now time.Time) (start, end string) {
	switch p {
	case PeriodThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		last := first.AddDate(0, 1, -1)
		return first.Format(dateLayout), last.Format(dateLayout)
	case PeriodLast3Months:
		return now.AddDate(0, 0, -90).Format(dateLayout), now.Format(dateLayout)
	default:
		return "1970-01-01", "2099-12-31"
	}
}
