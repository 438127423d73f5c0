package identity

import (
	"context"
	"time"
)

// Repository defines persistence operations for identities. Every lookup and
// mutation excludes soft-deleted records (Active = false).
type Repository interface {
	Create(ctx context.Context, ident *Identity) error
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*Identity, error)
	List(ctx context.Context) ([]*Identity, error)

	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*Identity, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error

	// SetResetToken stores the hash/expiry pair in a single write.
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	// ClearResetToken unsets both reset fields in a single write.
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken atomically sets the new password hash, bumps
	// PasswordChangedAt and clears both reset fields, conditioned on the
	// stored hash still equalling expectedHash. Returns
	// ErrResetTokenConsumed when the condition no longer holds, so two
	// racing callers cannot both succeed.
	ConsumeResetToken(ctx context.Context, id, expectedHash, newPasswordHash string, changedAt time.Time) error

	// Deactivate flips the soft-delete flag; the record is never removed.
	Deactivate(ctx context.Context, id string) error
}

// ProfileUpdate carries optional profile fields; nil means leave unchanged.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Photo *string
}
