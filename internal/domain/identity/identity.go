package identity

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates no active identity matched the lookup.
	ErrNotFound = errors.New("there is no user with that email address")
	// ErrEmailExists signals a duplicate email registration.
	ErrEmailExists = errors.New("email already registered")
	// ErrInvalidRole indicates the provided role is not supported.
	ErrInvalidRole = errors.New("invalid role")
	// ErrResetTokenConsumed means the conditional reset-token update matched no
	// row: the token was already used, expired out from under us, or the
	// identity is gone.
	ErrResetTokenConsumed = errors.New("reset token already used")
)

// Role identifies the privileges assigned to an identity.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// ParseRole normalises and validates a raw role string. An empty value
// defaults to RoleUser.
func ParseRole(raw string) (Role, error) {
	if raw == "" {
		return RoleUser, nil
	}
	switch role := Role(raw); role {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return role, nil
	default:
		return "", ErrInvalidRole
	}
}

// Identity models the account record persisted in storage. PasswordHash and
// the reset-token pair never leave the process boundary.
type Identity struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Photo             string     `json:"photo,omitempty"`
	Role              Role       `json:"role"`
	PasswordHash      string     `json:"-"`
	PasswordChangedAt *time.Time `json:"-"`
	ResetTokenHash    *string    `json:"-"`
	ResetTokenExpiry  *time.Time `json:"-"`
	Active            bool       `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"-"`
}

// Sanitized returns a copy safe to hand to the transport layer. The digest
// and reset-token fields are stripped.
func (i *Identity) Sanitized() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	out.PasswordHash = ""
	out.ResetTokenHash = nil
	out.ResetTokenExpiry = nil
	return &out
}
