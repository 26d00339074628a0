package utils

import (
	"time"

	"mt5-market-hub/src/logger"

	"github.com/scmhub/calendar"
)

// -----------------------------------------------------------------------------
// FXScheduler
// -----------------------------------------------------------------------------

// FXScheduler answers whether the spot FX market is tradeable at a point in
// time. The market runs from Sunday 22:00 UTC to Friday 22:00 UTC; on top of
// the weekend gap, days that are holidays on both the New York and London
// calendars (Christmas, New Year) count as closed.
type FXScheduler struct {
	nyse     *calendar.Calendar
	lse      *calendar.Calendar
	logger   *logger.Logger
	fallback bool
}

// -----------------------------------------------------------------------------

func NewFXScheduler(log *logger.Logger) *FXScheduler {
	s := &FXScheduler{
		nyse:   calendar.GetCalendar("xnys"),
		lse:    calendar.GetCalendar("xlon"),
		logger: log,
	}

	if s.nyse == nil || s.lse == nil {
		log.Warning("Exchange calendars unavailable, holiday detection disabled")
		s.fallback = true
	}
	return s
}

// -----------------------------------------------------------------------------

// MarketOpen reports whether FX quotes are expected to move at t.
func (s *FXScheduler) MarketOpen(t time.Time) bool {
	t = t.UTC()

	switch t.Weekday() {
	case time.Saturday:
		return false
	case time.Sunday:
		if t.Hour() < 22 {
			return false
		}
	case time.Friday:
		if t.Hour() >= 22 {
			return false
		}
	}

	if s.fallback {
		return true
	}

	// Weekday: closed only when both reference exchanges are on holiday.
	if t.Weekday() != time.Saturday && t.Weekday() != time.Sunday {
		if !s.nyse.IsBusinessDay(t) && !s.lse.IsBusinessDay(t) {
			return false
		}
	}
	return true
}
