package models

import (
	"strings"
	"time"
)

// Lockout tracks failed logins for one username and client address.
type Lockout struct {
	Key           string
	Failures      int
	LastFailureAt time.Time
	LockedUntil   *time.Time
}

// IsLocked reports whether the key is blocked at now.
func (l *Lockout) IsLocked(now time.Time) bool {
	return l != nil && l.LockedUntil != nil && now.Before(*l.LockedUntil)
}

// Config holds the lockout thresholds.
type Config struct {
	// MaxFailures consecutive failures inside Window trigger a lock.
	MaxFailures int
	// Window resets the failure count once it passes without a failure.
	Window time.Duration
	// LockDuration is how long a triggered lock lasts.
	LockDuration time.Duration
}

// DefaultConfig allows 5 failures per 15 minutes and then locks for 15.
func DefaultConfig() Config {
	return Config{
		MaxFailures:  5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

// LockoutKey combines the username and the client address so one attacker
// cannot lock a user out from every location.
func LockoutKey(username, ip string) string {
	return "login:" + sanitize(strings.ToLower(username)) + ":" + sanitize(ip)
}

// sanitize keeps keys single-segment: ':' separates key parts.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, ":", "_")
}
