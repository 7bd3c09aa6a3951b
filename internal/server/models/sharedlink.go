package models

import "time"

// SharedLink grants anonymous, time-limited access to a folder subtree.
// Token is generated server-side and never derived from user input.
// ExpiresAt is immutable after creation; an expired link is superseded by
// issuing a new one, never renewed.
type SharedLink struct {
	ID        string
	Token     string
	FolderID  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the link is past its expiration at the given time.
func (l *SharedLink) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
