package auth

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const sessionIDBytes = 24

// Session binds an opaque identifier to an authenticated email for a
// bounded time window.
type Session struct {
	ID        string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionLedger issues, looks up, and revokes sessions. It also records
// the most recent login instant per email for the admin surface. An
// email may hold any number of concurrent sessions.
type SessionLedger struct {
	ttl time.Duration

	mu        sync.Mutex
	sessions  map[string]Session
	lastLogin map[string]time.Time

	now func() time.Time
}

// NewSessionLedger creates an empty ledger whose sessions expire after ttl.
func NewSessionLedger(ttl time.Duration) *SessionLedger {
	return &SessionLedger{
		ttl:       ttl,
		sessions:  make(map[string]Session),
		lastLogin: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Create stores a new session for email and returns its identifier. The
// identifier carries enough entropy that collisions are not a practical
// concern. The email's last-login instant is overwritten with now.
func (l *SessionLedger) Create(email string) (string, error) {
	id, err := randomHex(sessionIDBytes)
	if err != nil {
		return "", err
	}
	email = strings.ToLower(email)

	l.mu.Lock()
	now := l.now()
	l.sessions[id] = Session{
		ID:        id,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	}
	l.lastLogin[email] = now
	l.mu.Unlock()

	return id, nil
}

// Get returns the session for id, if present. It does not filter
// expired rows; removal of those is the sweeper's job, and the sweeper
// runs ahead of every authenticated request.
func (l *SessionLedger) Get(id string) (Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sess, ok := l.sessions[id]
	return sess, ok
}

// Revoke deletes the session for id. Revoking an unknown id is a no-op.
func (l *SessionLedger) Revoke(id string) {
	l.mu.Lock()
	delete(l.sessions, id)
	l.mu.Unlock()
}

// Sweep removes every session whose expiry is at or before now and
// returns how many were removed.
func (l *SessionLedger) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, sess := range l.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(l.sessions, id)
			removed++
		}
	}
	return removed
}

// LastLogin returns the most recent login instant recorded for email.
func (l *SessionLedger) LastLogin(email string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	at, ok := l.lastLogin[strings.ToLower(email)]
	return at, ok
}

// ActiveEmails returns the sorted set of emails that currently hold at
// least one session.
func (l *SessionLedger) ActiveEmails() []string {
	l.mu.Lock()
	seen := make(map[string]struct{})
	for _, sess := range l.sessions {
		seen[sess.Email] = struct{}{}
	}
	l.mu.Unlock()

	emails := make([]string, 0, len(seen))
	for email := range seen {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}
