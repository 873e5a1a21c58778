package book

import "sync"

// DealSummary is the last-trade summary carried alongside a Symbol's book.
type DealSummary struct {
	LastPrice float64
	LastQty   int64
	TotalQty  int64
}

// Symbol is an exchange-traded instrument's quote-book state: trading date,
// session, reference prices, the depth book, and the deal summary. Session
// freshness is enforced by CheckSetSession, grounded on
// ExgMdSymbs::CheckSetTradingSessionId: the wire protocol's own end-of-
// session flag can't be trusted (it doesn't distinguish day/night sessions
// reliably), so the session transition is tracked and guarded here instead.
type Symbol struct {
	mu sync.Mutex

	ID          string
	TradingDate int // yyyymmdd
	session     Session
	sessionSet  bool

	RefPrice float64
	Book     Book
	Deal     DealSummary
}

// NewSymbol returns a Symbol with no trading date and no session set.
func NewSymbol(id string) *Symbol {
	return &Symbol{ID: id}
}

// CheckSetSession commits session as the symbol's current trading session,
// honoring the freshness rule: once AfterHours has been accepted, a later
// Regular update for the same trading date is rejected.
func (s *Symbol) CheckSetSession(session Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionSet && s.session == session {
		return true
	}
	if s.sessionSet && s.session == AfterHours {
		return false
	}
	s.session = session
	s.sessionSet = true
	return true
}

// Session returns the currently committed session and whether one has been
// set since the last DailyClear.
func (s *Symbol) Session() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.sessionSet
}

// DailyClear resets the trading date and implicitly reopens the session:
// the next CheckSetSession call for the new date is accepted unconditionally.
func (s *Symbol) DailyClear(tradingDate int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TradingDate = tradingDate
	s.sessionSet = false
}
