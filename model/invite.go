package model

import (
	"time"
)

// Invite represents an admin-issued one-time registration token
type Invite struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Email     string    `json:"email"`
	Inviter   string    `json:"inviter"`
	Status    string    `json:"status"` // pending, accepted, revoked
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InviteStatus constants
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusRevoked  = "revoked"
)

// IsExpired reports whether the invite is expired at now. The boundary is
// inclusive: a code is dead at the exact expiry instant.
func (i *Invite) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
