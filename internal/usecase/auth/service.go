package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"tourbook/backend/internal/domain/identity"

	"github.com/google/uuid"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Session is the outcome of a successful authentication flow: a signed token,
// its expiry, and a sanitized view of the subject.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  *identity.Identity
}

// Service orchestrates the authentication flows. Every mutation of the
// identity record is a named repository call in a fixed order; there are no
// hidden side effects.
type Service struct {
	identities   identity.Repository
	tokens       TokenManager
	hasher       PasswordHasher
	resets       ResetTokenSource
	mail         EmailDispatcher
	resetURLBase string
	mailTimeout  time.Duration
	nowFunc      func() time.Time
}

// NewService constructs the auth service.
func NewService(
	identities identity.Repository,
	tokens TokenManager,
	hasher PasswordHasher,
	resets ResetTokenSource,
	mail EmailDispatcher,
	resetURLBase string,
	mailTimeout time.Duration,
) *Service {
	if mailTimeout <= 0 {
		mailTimeout = 10 * time.Second
	}
	return &Service{
		identities:   identities,
		tokens:       tokens,
		hasher:       hasher,
		resets:       resets,
		mail:         mail,
		resetURLBase: strings.TrimRight(resetURLBase, "/"),
		mailTimeout:  mailTimeout,
		nowFunc:      time.Now,
	}
}

// SignupInput carries the registration payload.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
	Role            string
}

// Signup registers a new identity and logs it in.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" {
		return nil, fmt.Errorf("%w: please provide your name", ErrValidation)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateNewPassword(input.Password, input.PasswordConfirm); err != nil {
		return nil, err
	}
	role, err := identity.ParseRole(strings.TrimSpace(input.Role))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	ident := &identity.Identity{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hashed,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.identities.Create(ctx, ident); err != nil {
		return nil, err
	}

	return s.issueSession(ident)
}

// Login validates credentials and opens a session. Unknown email and wrong
// password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: please provide email and password", ErrValidation)
	}

	ident, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, ident.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ident)
}

// VerifyToken authenticates a session token: signature, subject lookup, and
// the stale-session check. Returns the sanitized subject.
func (s *Service) VerifyToken(ctx context.Context, token string) (*identity.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	ident, err := s.identities.GetByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrIdentityGone
		}
		return nil, err
	}

	// A token issued at or before the last password change is rejected; this
	// is the only revocation mechanism.
	if ident.PasswordChangedAt != nil && !claims.IssuedAt.After(*ident.PasswordChangedAt) {
		return nil, ErrStaleSession
	}

	return ident.Sanitized(), nil
}

// ForgotPassword mints a reset token, persists its hash, and emails the raw
// value. A dispatch failure rolls the stored pair back so the identity is
// never left holding a token the user cannot have received.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: please provide your email", ErrValidation)
	}

	ident, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	raw, tokenHash, expiresAt, err := s.resets.Generate()
	if err != nil {
		return err
	}
	if err := s.identities.SetResetToken(ctx, ident.ID, tokenHash, expiresAt); err != nil {
		return err
	}

	resetURL := s.resetURLBase + "/" + raw
	body := fmt.Sprintf(
		"Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s\nIf you didn't forget your password, please ignore this email.",
		resetURL,
	)

	sendCtx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()
	if err := s.mail.Send(sendCtx, ident.Email, "Your password reset token (valid for 10 min)", body); err != nil {
		// The rollback must run even when the request context is done.
		clearCtx, clearCancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailTimeout)
		defer clearCancel()
		if clearErr := s.identities.ClearResetToken(clearCtx, ident.ID); clearErr != nil {
			return clearErr
		}
		return ErrEmailDispatch
	}
	return nil
}

// ResetPassword consumes a raw reset token and sets a new password. The
// consume step is a conditional update, so of two racing calls with the same
// token exactly one succeeds.
func (s *Service) ResetPassword(ctx context.Context, rawToken, password, passwordConfirm string) (*Session, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrResetTokenInvalid
	}
	if err := validateNewPassword(password, passwordConfirm); err != nil {
		return nil, err
	}

	tokenHash := s.resets.Hash(rawToken)
	ident, err := s.identities.GetByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, err
	}
	if ident.ResetTokenHash == nil || ident.ResetTokenExpiry == nil ||
		!s.resets.Validate(rawToken, *ident.ResetTokenHash, *ident.ResetTokenExpiry) {
		return nil, ErrResetTokenInvalid
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	changedAt := s.passwordChangeStamp()
	if err := s.identities.ConsumeResetToken(ctx, ident.ID, tokenHash, hashed, changedAt); err != nil {
		if errors.Is(err, identity.ErrResetTokenConsumed) {
			return nil, ErrResetTokenInvalid
		}
		return nil, err
	}

	ident.PasswordChangedAt = &changedAt
	ident.ResetTokenHash = nil
	ident.ResetTokenExpiry = nil
	return s.issueSession(ident)
}

// UpdatePassword changes the password of an authenticated identity and opens
// a fresh session; every token issued before the change goes stale.
func (s *Service) UpdatePassword(ctx context.Context, identityID, currentPassword, password, passwordConfirm string) (*Session, error) {
	ident, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrIdentityGone
		}
		return nil, err
	}
	if !s.hasher.Verify(currentPassword, ident.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if err := validateNewPassword(password, passwordConfirm); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	changedAt := s.passwordChangeStamp()
	if err := s.identities.UpdatePassword(ctx, ident.ID, hashed, changedAt); err != nil {
		return nil, err
	}

	ident.PasswordChangedAt = &changedAt
	return s.issueSession(ident)
}

func (s *Service) issueSession(ident *identity.Identity) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(ident.ID)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Identity:  ident.Sanitized(),
	}, nil
}

// passwordChangeStamp backdates the change by one second so a token issued
// in the same second as the change (JWT iat has second granularity) still
// passes the strictly-after check.
func (s *Service) passwordChangeStamp() time.Time {
	return s.nowFunc().UTC().Add(-time.Second)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: please provide your email", ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: please provide a valid email", ErrValidation)
	}
	return nil
}

func validateNewPassword(password, confirm string) error {
	if password == "" {
		return fmt.Errorf("%w: please provide a password", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	return nil
}
