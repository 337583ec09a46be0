package risk

import "time"

// WeekendWindow implements the forex weekend shutdown: entries stop on
// Friday evening, everything is flat before the market closes, trading
// resumes after the Sunday open. All hours are UTC.
type WeekendWindow struct {
	EntryCutoffHour int // Friday, no new entries from this hour
	CloseHour       int // Friday, all trading stops and positions close
	ResumeHour      int // Sunday, trading resumes
}

func NewWeekendWindow(cfg Config) WeekendWindow {
	return WeekendWindow{
		EntryCutoffHour: cfg.WeekendEntryCutoffHour,
		CloseHour:       cfg.WeekendCloseHour,
		ResumeHour:      cfg.SundayResumeHour,
	}
}

// TradingAllowed reports whether any position management may run.
func (w WeekendWindow) TradingAllowed(now time.Time) bool {
	t := now.UTC()
	switch t.Weekday() {
	case time.Friday:
		return t.Hour() < w.CloseHour
	case time.Saturday:
		return false
	case time.Sunday:
		return t.Hour() >= w.ResumeHour
	default:
		return true
	}
}

// EntryAllowed reports whether a new position may be opened. Stricter than
// TradingAllowed on Friday evening.
func (w WeekendWindow) EntryAllowed(now time.Time) bool {
	t := now.UTC()
	if t.Weekday() == time.Friday && t.Hour() >= w.EntryCutoffHour {
		return false
	}
	return w.TradingAllowed(now)
}

// ShouldClosePositions reports whether open positions must be force-closed
// ahead of the weekend.
func (w WeekendWindow) ShouldClosePositions(now time.Time) bool {
	t := now.UTC()
	switch t.Weekday() {
	case time.Friday:
		return t.Hour() >= w.CloseHour
	case time.Saturday:
		return true
	case time.Sunday:
		return t.Hour() < w.ResumeHour
	default:
		return false
	}
}
