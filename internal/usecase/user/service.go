// Package user covers identity self-service: profile reads and updates,
// and the soft-delete flow. Password changes live in the auth service.
package user

import (
	"context"
	"fmt"
	"strings"

	"tourbook/backend/internal/domain/identity"
	"tourbook/backend/internal/usecase/auth"
)

// Service provides identity self-service and the admin listing.
type Service struct {
	identities identity.Repository
}

// NewService constructs a user service around the provided repository.
func NewService(identities identity.Repository) *Service {
	return &Service{identities: identities}
}

// UpdateMeInput carries optional profile fields; nil leaves a field unchanged.
type UpdateMeInput struct {
	Name  *string
	Email *string
	Photo *string
}

// Get retrieves a single sanitized identity by id.
func (s *Service) Get(ctx context.Context, id string) (*identity.Identity, error) {
	ident, err := s.identities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ident.Sanitized(), nil
}

// UpdateMe updates the caller's own profile fields.
func (s *Service) UpdateMe(ctx context.Context, id string, input UpdateMeInput) (*identity.Identity, error) {
	update := identity.ProfileUpdate{Photo: input.Photo}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: please provide your name", auth.ErrValidation)
		}
		update.Name = &name
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email == "" {
			return nil, fmt.Errorf("%w: please provide your email", auth.ErrValidation)
		}
		update.Email = &email
	}

	ident, err := s.identities.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, err
	}
	return ident.Sanitized(), nil
}

// DeleteMe soft-deletes the caller's identity; the record stays in storage
// but disappears from every auth-flow lookup.
func (s *Service) DeleteMe(ctx context.Context, id string) error {
	return s.identities.Deactivate(ctx, id)
}

// List returns all active identities, sanitized. Admin only; the transport
// layer enforces the role.
func (s *Service) List(ctx context.Context) ([]*identity.Identity, error) {
	idents, err := s.identities.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*identity.Identity, 0, len(idents))
	for _, ident := range idents {
		out = append(out, ident.Sanitized())
	}
	return out, nil
}
