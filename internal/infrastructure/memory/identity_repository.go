// Package memory provides an in-memory identity store with the same
// conditional-update semantics as the PostgreSQL implementation. It backs the
// test suites and local runs without a database.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"tourbook/backend/internal/domain/identity"
)

// IdentityRepository is a mutex-guarded in-memory identity.Repository.
type IdentityRepository struct {
	mu    sync.Mutex
	items map[string]*identity.Identity
}

// NewIdentityRepository returns an empty repository.
func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{items: make(map[string]*identity.Identity)}
}

var _ identity.Repository = (*IdentityRepository)(nil)

// Create inserts a new identity, enforcing email uniqueness across all
// records, active or not.
func (r *IdentityRepository) Create(_ context.Context, ident *identity.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if strings.EqualFold(existing.Email, ident.Email) {
			return identity.ErrEmailExists
		}
	}
	clone := *ident
	r.items[ident.ID] = &clone
	return nil
}

// GetByID retrieves an active identity by id.
func (r *IdentityRepository) GetByID(_ context.Context, id string) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.items[id]
	if !ok || !ident.Active {
		return nil, identity.ErrNotFound
	}
	clone := *ident
	return &clone, nil
}

// GetByEmail retrieves an active identity by email.
func (r *IdentityRepository) GetByEmail(_ context.Context, email string) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ident := range r.items {
		if ident.Active && strings.EqualFold(ident.Email, email) {
			clone := *ident
			return &clone, nil
		}
	}
	return nil, identity.ErrNotFound
}

// GetByResetTokenHash retrieves the active identity holding the hash.
func (r *IdentityRepository) GetByResetTokenHash(_ context.Context, tokenHash string) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ident := range r.items {
		if ident.Active && ident.ResetTokenHash != nil && *ident.ResetTokenHash == tokenHash {
			clone := *ident
			return &clone, nil
		}
	}
	return nil, identity.ErrNotFound
}

// List returns all active identities.
func (r *IdentityRepository) List(_ context.Context) ([]*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*identity.Identity, 0, len(r.items))
	for _, ident := range r.items {
		if ident.Active {
			clone := *ident
			out = append(out, &clone)
		}
	}
	return out, nil
}

// UpdateProfile applies the non-nil profile fields.
func (r *IdentityRepository) UpdateProfile(_ context.Context, id string, update identity.ProfileUpdate) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.items[id]
	if !ok || !ident.Active {
		return nil, identity.ErrNotFound
	}
	if update.Email != nil {
		for otherID, other := range r.items {
			if otherID != id && strings.EqualFold(other.Email, *update.Email) {
				return nil, identity.ErrEmailExists
			}
		}
		ident.Email = *update.Email
	}
	if update.Name != nil {
		ident.Name = *update.Name
	}
	if update.Photo != nil {
		ident.Photo = *update.Photo
	}
	ident.UpdatedAt = time.Now().UTC()
	clone := *ident
	return &clone, nil
}

// UpdatePassword stores a new hash and change timestamp together.
func (r *IdentityRepository) UpdatePassword(_ context.Context, id, passwordHash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.items[id]
	if !ok || !ident.Active {
		return identity.ErrNotFound
	}
	ident.PasswordHash = passwordHash
	ident.PasswordChangedAt = &changedAt
	ident.UpdatedAt = time.Now().UTC()
	return nil
}

// SetResetToken stores the hash/expiry pair together.
func (r *IdentityRepository) SetResetToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.items[id]
	if !ok || !ident.Active {
		return identity.ErrNotFound
	}
	ident.ResetTokenHash = &tokenHash
	ident.ResetTokenExpiry = &expiresAt
	ident.UpdatedAt = time.Now().UTC()
	return nil
}

// ClearResetToken unsets both reset fields together.
func (r *IdentityRepository) ClearResetToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.items[id]
	if !ok || !ident.Active {
		return identity.ErrNotFound
	}
	ident.ResetTokenHash = nil
	ident.ResetTokenExpiry = nil
	ident.UpdatedAt = time.Now().UTC()
	return nil
}

// ConsumeResetToken mirrors the SQL conditional update: the whole
// check-and-set runs inside one critical section, so concurrent callers with
// the same token observe exactly one success.
func (r *IdentityRepository) ConsumeResetToken(_ context.Context, id, expectedHash, newPasswordHash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.items[id]
	if !ok || !ident.Active || ident.ResetTokenHash == nil || *ident.ResetTokenHash != expectedHash {
		return identity.ErrResetTokenConsumed
	}
	ident.PasswordHash = newPasswordHash
	ident.PasswordChangedAt = &changedAt
	ident.ResetTokenHash = nil
	ident.ResetTokenExpiry = nil
	ident.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate soft-deletes the identity.
func (r *IdentityRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.items[id]
	if !ok || !ident.Active {
		return identity.ErrNotFound
	}
	ident.Active = false
	ident.UpdatedAt = time.Now().UTC()
	return nil
}
