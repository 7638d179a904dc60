// Package models holds the login throttle records.
package models

import "time"

// Lockout tracks consecutive authentication failures for one identifier
// (the lowercased login email). Failures accumulate inside a sliding
// window; crossing the threshold hard-locks the identifier until
// LockedUntil.
type Lockout struct {
	Identifier  string    `json:"identifier"`
	Failures    int       `json:"failures"`
	WindowStart time.Time `json:"window_start"`
	LockedUntil time.Time `json:"locked_until"`
}

// IsLockedAt reports whether the identifier is hard-locked at the given
// instant.
func (l *Lockout) IsLockedAt(now time.Time) bool {
	return now.Before(l.LockedUntil)
}

// WindowExpiredAt reports whether the failure window has lapsed, meaning
// the counter restarts from zero on the next failure.
func (l *Lockout) WindowExpiredAt(now time.Time, window time.Duration) bool {
	return now.Sub(l.WindowStart) >= window
}

// RetryAfterAt returns the whole seconds left on the lock, never negative.
func (l *Lockout) RetryAfterAt(now time.Time) int {
	remaining := int(l.LockedUntil.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
