package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

const rawTokenBytes = 24

// magicToken is the stored side of an issued magic-link token. Only the
// digest of the raw value is kept, so a leaked ledger cannot be turned
// back into redeemable links.
type magicToken struct {
	email     string
	expiresAt time.Time
}

// TokenLedger issues and redeems single-use magic-link tokens. Each
// token is valid for the ledger's TTL and is destroyed on its first
// redemption attempt, successful or not.
type TokenLedger struct {
	ttl time.Duration

	mu     sync.Mutex
	tokens map[string]magicToken

	now func() time.Time
}

// NewTokenLedger creates an empty ledger whose tokens expire after ttl.
func NewTokenLedger(ttl time.Duration) *TokenLedger {
	return &TokenLedger{
		ttl:    ttl,
		tokens: make(map[string]magicToken),
		now:    time.Now,
	}
}

// digestToken returns the hex blake2b-256 digest of a raw token value.
func digestToken(raw string) string {
	sum := blake2b.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns n crypto-random bytes hex-encoded.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Issue creates a token bound to email and returns the raw value. The
// raw value is never stored; the ledger keeps only its digest. Issuing
// does not invalidate any earlier token for the same email.
func (l *TokenLedger) Issue(email string) (string, error) {
	raw, err := randomHex(rawTokenBytes)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	l.tokens[digestToken(raw)] = magicToken{
		email:     strings.ToLower(email),
		expiresAt: l.now().Add(l.ttl),
	}
	l.mu.Unlock()

	return raw, nil
}

// Redeem consumes a raw token and returns the bound email. The stored
// entry is deleted on every lookup, so redemption is at-most-once: an
// unknown, expired, or already-redeemed token fails with
// ErrNotFoundOrExpired and a second attempt with a valid value fails
// the same way.
func (l *TokenLedger) Redeem(raw string) (string, error) {
	digest := digestToken(raw)

	l.mu.Lock()
	defer l.mu.Unlock()

	tok, ok := l.tokens[digest]
	delete(l.tokens, digest)

	if !ok || !tok.expiresAt.After(l.now()) {
		return "", ErrNotFoundOrExpired
	}
	return tok.email, nil
}

// Sweep removes every token whose expiry is at or before now and
// returns how many were removed.
func (l *TokenLedger) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for digest, tok := range l.tokens {
		if !tok.expiresAt.After(now) {
			delete(l.tokens, digest)
			removed++
		}
	}
	return removed
}

// Pending returns the number of outstanding tokens.
func (l *TokenLedger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tokens)
}
