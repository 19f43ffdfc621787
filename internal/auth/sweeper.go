package auth

import "time"

// Sweeper prunes expired tokens and sessions. It is invoked at the
// start of every authentication-sensitive request rather than on a
// background timer: an idle process accumulates no traffic that could
// observe a stale row, and the cost is O(n) over small ledgers.
type Sweeper struct {
	tokens   *TokenLedger
	sessions *SessionLedger

	now func() time.Time
}

// NewSweeper builds a Sweeper over the given ledgers.
func NewSweeper(tokens *TokenLedger, sessions *SessionLedger) *Sweeper {
	return &Sweeper{
		tokens:   tokens,
		sessions: sessions,
		now:      time.Now,
	}
}

// Sweep removes every expired token and session. It is idempotent and
// safe to call at any frequency. The counts of removed rows are
// returned for observability.
func (s *Sweeper) Sweep() (tokens, sessions int) {
	now := s.now()
	return s.tokens.Sweep(now), s.sessions.Sweep(now)
}
