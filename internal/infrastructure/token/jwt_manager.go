package token

import (
	"errors"
	"time"

	usecase "tourbook/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager issues and verifies HS256 session tokens. It is a pure function
// of its inputs and the signing secret; safe under arbitrary concurrency.
type JWTManager struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	nowFunc    func() time.Time
}

// NewJWTManager constructs a manager with the provided secret and expiration.
func NewJWTManager(secret string, expiration time.Duration, issuer string) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     issuer,
		nowFunc:    time.Now,
	}
}

// Ensure JWTManager implements the TokenManager interface.
var _ usecase.TokenManager = (*JWTManager)(nil)

// Issue creates a signed token whose subject is subjectID.
func (m *JWTManager) Issue(subjectID string) (string, time.Time, error) {
	now := m.nowFunc().UTC()
	expiresAt := now.Add(m.expiration)
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates the token, returning its claims. Expired tokens
// fail with ErrTokenExpired; anything else malformed fails with ErrTokenInvalid.
func (m *JWTManager) Verify(tokenString string) (usecase.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.nowFunc() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return usecase.Claims{}, usecase.ErrTokenExpired
		}
		return usecase.Claims{}, usecase.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return usecase.Claims{}, usecase.ErrTokenInvalid
	}
	return usecase.Claims{
		SubjectID: claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
	}, nil
}
