package postgres

import (
	"context"
	"errors"
	"time"

	"tourbook/backend/internal/domain/identity"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IdentityRepository persists identities in PostgreSQL. Soft-deleted records
// are invisible to every method.
type IdentityRepository struct {
	db DB
}

// NewIdentityRepository constructs a repository.
func NewIdentityRepository(db DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

var _ identity.Repository = (*IdentityRepository)(nil)

const identityColumns = `id, name, email, photo, role, password_hash, password_changed_at, reset_token_hash, reset_token_expires_at, active, created_at, updated_at`

// Create inserts a new identity record.
func (r *IdentityRepository) Create(ctx context.Context, ident *identity.Identity) error {
	const query = `
INSERT INTO identities (id, name, email, photo, role, password_hash, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err := r.db.Exec(ctx, query,
		ident.ID,
		ident.Name,
		ident.Email,
		ident.Photo,
		ident.Role,
		ident.PasswordHash,
		ident.Active,
		ident.CreatedAt,
		ident.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByID retrieves an active identity by id.
func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*identity.Identity, error) {
	const query = `
SELECT ` + identityColumns + `
FROM identities WHERE id = $1 AND active
`
	return r.getOne(ctx, query, id)
}

// GetByEmail fetches an active identity by email.
func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	const query = `
SELECT ` + identityColumns + `
FROM identities WHERE email = $1 AND active
`
	return r.getOne(ctx, query, email)
}

// GetByResetTokenHash fetches the active identity holding the given reset
// token hash.
func (r *IdentityRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*identity.Identity, error) {
	const query = `
SELECT ` + identityColumns + `
FROM identities WHERE reset_token_hash = $1 AND active
`
	return r.getOne(ctx, query, tokenHash)
}

// List returns all active identities, newest first.
func (r *IdentityRepository) List(ctx context.Context) ([]*identity.Identity, error) {
	const query = `
SELECT ` + identityColumns + `
FROM identities WHERE active ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var idents []*identity.Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		idents = append(idents, ident)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return idents, nil
}

// UpdateProfile modifies the mutable profile fields; nil fields keep their
// current value.
func (r *IdentityRepository) UpdateProfile(ctx context.Context, id string, update identity.ProfileUpdate) (*identity.Identity, error) {
	const query = `
UPDATE identities
SET name = COALESCE($2, name),
    email = COALESCE($3, email),
    photo = COALESCE($4, photo),
    updated_at = $5
WHERE id = $1 AND active
RETURNING ` + identityColumns + `
`
	row := r.db.QueryRow(ctx, query, id, update.Name, update.Email, update.Photo, time.Now().UTC())
	ident, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, identity.ErrEmailExists
		}
		return nil, err
	}
	return ident, nil
}

// UpdatePassword stores a new password hash and change timestamp in one write.
func (r *IdentityRepository) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	const query = `
UPDATE identities
SET password_hash = $2, password_changed_at = $3, updated_at = $4
WHERE id = $1 AND active
`
	ct, err := r.db.Exec(ctx, query, id, passwordHash, changedAt, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return identity.ErrNotFound
	}
	return nil
}

// SetResetToken stores the hash/expiry pair in one write.
func (r *IdentityRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	const query = `
UPDATE identities
SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = $4
WHERE id = $1 AND active
`
	ct, err := r.db.Exec(ctx, query, id, tokenHash, expiresAt, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return identity.ErrNotFound
	}
	return nil
}

// ClearResetToken unsets both reset fields.
func (r *IdentityRepository) ClearResetToken(ctx context.Context, id string) error {
	const query = `
UPDATE identities
SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = $2
WHERE id = $1 AND active
`
	ct, err := r.db.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return identity.ErrNotFound
	}
	return nil
}

// ConsumeResetToken applies the new password and clears the reset pair in a
// single statement conditioned on the stored hash; a lost race affects zero
// rows and reports ErrResetTokenConsumed.
func (r *IdentityRepository) ConsumeResetToken(ctx context.Context, id, expectedHash, newPasswordHash string, changedAt time.Time) error {
	const query = `
UPDATE identities
SET password_hash = $3,
    password_changed_at = $4,
    reset_token_hash = NULL,
    reset_token_expires_at = NULL,
    updated_at = $5
WHERE id = $1 AND reset_token_hash = $2 AND active
`
	ct, err := r.db.Exec(ctx, query, id, expectedHash, newPasswordHash, changedAt, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return identity.ErrResetTokenConsumed
	}
	return nil
}

// Deactivate soft-deletes the identity.
func (r *IdentityRepository) Deactivate(ctx context.Context, id string) error {
	const query = `
UPDATE identities
SET active = FALSE, updated_at = $2
WHERE id = $1 AND active
`
	ct, err := r.db.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return identity.ErrNotFound
	}
	return nil
}

func (r *IdentityRepository) getOne(ctx context.Context, query string, arg any) (*identity.Identity, error) {
	ident, err := scanIdentity(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrNotFound
		}
		return nil, err
	}
	return ident, nil
}

func scanIdentity(row pgx.Row) (*identity.Identity, error) {
	var ident identity.Identity
	err := row.Scan(
		&ident.ID,
		&ident.Name,
		&ident.Email,
		&ident.Photo,
		&ident.Role,
		&ident.PasswordHash,
		&ident.PasswordChangedAt,
		&ident.ResetTokenHash,
		&ident.ResetTokenExpiry,
		&ident.Active,
		&ident.CreatedAt,
		&ident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
