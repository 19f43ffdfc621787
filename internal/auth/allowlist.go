package auth

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// EntrySource identifies which tier an allowlist entry belongs to.
type EntrySource string

const (
	// SourceConfigured marks entries loaded from configuration at startup.
	SourceConfigured EntrySource = "configured"
	// SourceTemporary marks entries added at runtime.
	SourceTemporary EntrySource = "temporary"
)

// Entry is one allowlisted email address.
type Entry struct {
	Email   string      `json:"email"`
	Source  EntrySource `json:"source"`
	AddedAt *time.Time  `json:"addedAt"`
}

// Allowlist decides which emails may authenticate. It layers a mutable
// temporary set over an immutable configured set. When both sets are
// empty every email is allowed (open registration for first-run setups);
// that check is evaluated on every call, so adding the first temporary
// entry immediately closes open registration.
type Allowlist struct {
	configured map[string]struct{}

	mu   sync.Mutex
	temp map[string]time.Time

	now func() time.Time
}

// NewAllowlist builds an Allowlist from the configured emails, which are
// normalized to lowercase and immutable afterwards.
func NewAllowlist(configured []string) *Allowlist {
	set := make(map[string]struct{}, len(configured))
	for _, email := range configured {
		set[strings.ToLower(email)] = struct{}{}
	}
	return &Allowlist{
		configured: set,
		temp:       make(map[string]time.Time),
		now:        time.Now,
	}
}

// IsAllowed reports whether email may authenticate. Comparison is
// case-insensitive.
func (a *Allowlist) IsAllowed(email string) bool {
	normalized := strings.ToLower(email)

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.configured) == 0 && len(a.temp) == 0 {
		return true
	}
	if _, ok := a.configured[normalized]; ok {
		return true
	}
	_, ok := a.temp[normalized]
	return ok
}

// AddTemporary adds email to the temporary tier. It fails with
// ErrAlreadyConfigured if the email belongs to the configured set;
// re-adding an existing temporary entry just refreshes its AddedAt.
func (a *Allowlist) AddTemporary(email string) error {
	normalized := strings.ToLower(email)
	if _, ok := a.configured[normalized]; ok {
		return ErrAlreadyConfigured
	}

	a.mu.Lock()
	a.temp[normalized] = a.now()
	a.mu.Unlock()
	return nil
}

// RemoveTemporary removes email from the temporary tier. It fails with
// ErrIsConfigured for configured emails; removing an email that was
// never added is a no-op.
func (a *Allowlist) RemoveTemporary(email string) error {
	normalized := strings.ToLower(email)
	if _, ok := a.configured[normalized]; ok {
		return ErrIsConfigured
	}

	a.mu.Lock()
	delete(a.temp, normalized)
	a.mu.Unlock()
	return nil
}

// List returns every allowlist entry: the configured tier first, then
// the temporary tier, each sorted by email so the result is
// deterministic per call.
func (a *Allowlist) List() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := make([]Entry, 0, len(a.configured)+len(a.temp))
	for email := range a.configured {
		entries = append(entries, Entry{Email: email, Source: SourceConfigured})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Email < entries[j].Email })

	tempStart := len(entries)
	for email, addedAt := range a.temp {
		at := addedAt
		entries = append(entries, Entry{Email: email, Source: SourceTemporary, AddedAt: &at})
	}
	tail := entries[tempStart:]
	sort.Slice(tail, func(i, j int) bool { return tail[i].Email < tail[j].Email })

	return entries
}
