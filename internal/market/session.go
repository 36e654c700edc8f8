package market

import "time"

// Session evaluates the NSE trading calendar: Monday through Friday,
// 09:15 to 15:30 IST. The window is fixed policy, not configuration; both
// the fallback generator and the validator key off it.
type Session struct {
	loc *time.Location
	now func() time.Time
}

// NewSession builds a session calendar on the Asia/Kolkata timezone. The
// clock defaults to time.Now and is injectable for tests.
func NewSession(now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// IST has no DST; a fixed offset is an exact substitute when the
		// tz database is missing from the host.
		loc = time.FixedZone("IST", 5*3600+30*60)
	}
	return &Session{loc: loc, now: now}
}

// IsOpen reports whether the exchange session is open right now.
func (s *Session) IsOpen() bool {
	return s.IsOpenAt(s.now())
}

// IsOpenAt reports whether the exchange session is open at t.
func (s *Session) IsOpenAt(t time.Time) bool {
	ist := t.In(s.loc)
	switch ist.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := ist.Hour()*60 + ist.Minute()
	const open = 9*60 + 15
	const close = 15*60 + 30
	return minutes >= open && minutes <= close
}

// State maps the session to the market-state label carried on quotes.
func (s *Session) State() MarketState {
	if s.IsOpen() {
		return StateRegular
	}
	return StateClosed
}
