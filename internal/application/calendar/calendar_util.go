package calendar

import (
	"fmt"
	"slices"
	"time"

	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
)

// DefaultAllowedDays is the set of calendar spans accepted for before/after days.
var DefaultAllowedDays = []int{0, 3}

// DateRangeForOnd spreads date over the OND calendar window. A nil ond yields a single day.
func DateRangeForOnd(ond *models.OriginDestination, date time.Time) models.DateRange {
	if ond == nil {
		return models.NewDateRange(date, date)
	}
	return models.NewDateRange(
		date.AddDate(0, 0, -ond.CalDaysBefore),
		date.AddDate(0, 0, ond.CalDaysAfter),
	)
}

// IsEXSCalendar reports whether the transaction shops a calendar window on any OND.
func IsEXSCalendar(trx *models.ExchangeTrx) bool {
	if trx == nil {
		return false
	}
	for _, ond := range trx.ONDs {
		if ond.CalDaysBefore|ond.CalDaysAfter != 0 {
			return true
		}
	}
	return false
}

func ValidateCalendarDates(ond *models.OriginDestination, allowed []int) bool {
	if ond == nil {
		return true
	}
	if len(allowed) == 0 {
		allowed = DefaultAllowedDays
	}
	return slices.Contains(allowed, ond.CalDaysBefore) && slices.Contains(allowed, ond.CalDaysAfter)
}

// ValidateInputParams fails closed on calendar spans outside allowed unless the request is a test request.
func ValidateInputParams(trx *models.ExchangeTrx, allowed []int) bool {
	if trx == nil {
		return false
	}
	if trx.TestRequest {
		return true
	}
	for _, ond := range trx.ONDs {
		if !ValidateCalendarDates(ond, allowed) {
			return false
		}
	}
	return true
}

func DateApplicationString(appl models.CalendarAppl) string {
	switch appl {
	case models.CalendarWholePeriod:
		return "WHOLE PERIOD"
	case models.CalendarSameDepartureDate:
		return "SAME DEPARTURE DATE"
	case models.CalendarLaterDepartureDate:
		return "LATER DEPARTURE DATE"
	}
	panic(fmt.Sprintf("calendar: unknown date application %d", appl))
}
