package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrValidation wraps malformed or missing input; handlers map it to 400.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidCredentials covers unknown email and wrong password alike, so
	// responses do not disclose which one failed.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrTokenInvalid means a session token is malformed or its signature
	// does not verify.
	ErrTokenInvalid = errors.New("invalid token, please log in again")
	// ErrTokenExpired means a session token is past its expiry.
	ErrTokenExpired = errors.New("your session has expired, please log in again")
	// ErrStaleSession means the token predates the subject's last password change.
	ErrStaleSession = errors.New("password was changed recently, please log in again")
	// ErrIdentityGone means the token's subject no longer exists or was deactivated.
	ErrIdentityGone = errors.New("the user belonging to this token no longer exists")
	// ErrResetTokenInvalid covers unknown, expired, and already-consumed reset tokens.
	ErrResetTokenInvalid = errors.New("token is invalid or has expired")
	// ErrEmailDispatch means the reset email could not be delivered; the
	// pending reset token has been rolled back.
	ErrEmailDispatch = errors.New("there was an error sending the email, try again later")
)

// Claims is the verified payload of a session token.
type Claims struct {
	SubjectID string
	IssuedAt  time.Time
}

// TokenManager abstracts session token issuance and verification.
type TokenManager interface {
	Issue(subjectID string) (token string, expiresAt time.Time, err error)
	// Verify fails with ErrTokenInvalid or ErrTokenExpired.
	Verify(token string) (Claims, error)
}

// PasswordHasher abstracts one-way credential hashing.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// ResetTokenSource abstracts generation and validation of single-use
// password-reset tokens.
type ResetTokenSource interface {
	Generate() (raw, tokenHash string, expiresAt time.Time, err error)
	Hash(raw string) string
	Validate(raw, storedHash string, storedExpiry time.Time) bool
}

// EmailDispatcher delivers the reset link. Implementations must honour ctx
// cancellation; a timeout counts as a dispatch failure.
type EmailDispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}
