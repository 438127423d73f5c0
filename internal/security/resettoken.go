package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

// DefaultResetTokenTTL is the validity window for a password-reset token.
const DefaultResetTokenTTL = 10 * time.Minute

// rawTokenBytes gives 256 bits of entropy per token.
const rawTokenBytes = 32

// ResetTokenSource mints and checks single-use password-reset tokens. Only
// the SHA-256 hash of a token is ever persisted; the raw value travels to the
// user out-of-band exactly once.
type ResetTokenSource struct {
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewResetTokenSource returns a source with the given TTL; ttl <= 0 falls
// back to DefaultResetTokenTTL.
func NewResetTokenSource(ttl time.Duration) *ResetTokenSource {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokenSource{ttl: ttl, nowFunc: time.Now}
}

// Generate mints a fresh token, returning the raw hex value for dispatch,
// its storable hash, and the expiry timestamp.
func (s *ResetTokenSource) Generate() (raw, tokenHash string, expiresAt time.Time, err error) {
	b := make([]byte, rawTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", time.Time{}, err
	}
	raw = hex.EncodeToString(b)
	return raw, s.Hash(raw), s.nowFunc().UTC().Add(s.ttl), nil
}

// Hash returns the hex-encoded SHA-256 digest of raw. Deterministic, so it
// doubles as the lookup key for stored tokens.
func (s *ResetTokenSource) Hash(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// Validate reports whether raw matches storedHash and the expiry has not
// passed. Comparison is constant time.
func (s *ResetTokenSource) Validate(raw, storedHash string, storedExpiry time.Time) bool {
	if storedHash == "" || storedExpiry.IsZero() {
		return false
	}
	if s.nowFunc().After(storedExpiry) {
		return false
	}
	computed := s.Hash(raw)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
