package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbook/backend/internal/domain/identity"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *IdentityRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock, NewIdentityRepository(mock)
}

func identityRows(ident *identity.Identity) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "name", "email", "photo", "role", "password_hash",
		"password_changed_at", "reset_token_hash", "reset_token_expires_at",
		"active", "created_at", "updated_at",
	}).AddRow(
		ident.ID, ident.Name, ident.Email, ident.Photo, ident.Role, ident.PasswordHash,
		ident.PasswordChangedAt, ident.ResetTokenHash, ident.ResetTokenExpiry,
		ident.Active, ident.CreatedAt, ident.UpdatedAt,
	)
}

func sampleIdentity() *identity.Identity {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	return &identity.Identity{
		ID:           "7b6a4f2e-0000-4000-8000-000000000001",
		Name:         "Lara",
		Email:        "lara@example.test",
		Photo:        "default.jpg",
		Role:         identity.RoleUser,
		PasswordHash: "$2a$12$hashhashhashhashhashha",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestIdentityRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, ident *identity.Identity)
		wantErr   error
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface, ident *identity.Identity) {
				mock.ExpectExec(`INSERT INTO identities`).
					WithArgs(ident.ID, ident.Name, ident.Email, ident.Photo, ident.Role,
						ident.PasswordHash, ident.Active, ident.CreatedAt, ident.UpdatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate email maps to ErrEmailExists",
			setupMock: func(mock pgxmock.PgxPoolIface, ident *identity.Identity) {
				mock.ExpectExec(`INSERT INTO identities`).
					WithArgs(ident.ID, ident.Name, ident.Email, ident.Photo, ident.Role,
						ident.PasswordHash, ident.Active, ident.CreatedAt, ident.UpdatedAt).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: identity.ErrEmailExists,
		},
		{
			name: "other database errors pass through",
			setupMock: func(mock pgxmock.PgxPoolIface, ident *identity.Identity) {
				mock.ExpectExec(`INSERT INTO identities`).
					WithArgs(ident.ID, ident.Name, ident.Email, ident.Photo, ident.Role,
						ident.PasswordHash, ident.Active, ident.CreatedAt, ident.UpdatedAt).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockRepo(t)
			ident := sampleIdentity()
			tt.setupMock(mock, ident)

			err := repo.Create(context.Background(), ident)

			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
			case errors.Is(tt.wantErr, identity.ErrEmailExists):
				assert.ErrorIs(t, err, identity.ErrEmailExists)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestIdentityRepository_GetByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		ident := sampleIdentity()
		mock.ExpectQuery(`FROM identities WHERE email = \$1 AND active`).
			WithArgs(ident.Email).
			WillReturnRows(identityRows(ident))

		got, err := repo.GetByEmail(context.Background(), ident.Email)
		require.NoError(t, err)
		assert.Equal(t, ident.ID, got.ID)
		assert.Equal(t, ident.PasswordHash, got.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows maps to ErrNotFound", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		mock.ExpectQuery(`FROM identities WHERE email = \$1 AND active`).
			WithArgs("nobody@example.test").
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		_, err := repo.GetByEmail(context.Background(), "nobody@example.test")
		assert.ErrorIs(t, err, identity.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIdentityRepository_GetByResetTokenHash(t *testing.T) {
	mock, repo := newMockRepo(t)
	ident := sampleIdentity()
	tokenHash := "deadbeefdeadbeef"
	expiry := time.Now().Add(10 * time.Minute).UTC()
	ident.ResetTokenHash = &tokenHash
	ident.ResetTokenExpiry = &expiry

	mock.ExpectQuery(`FROM identities WHERE reset_token_hash = \$1 AND active`).
		WithArgs(tokenHash).
		WillReturnRows(identityRows(ident))

	got, err := repo.GetByResetTokenHash(context.Background(), tokenHash)
	require.NoError(t, err)
	require.NotNil(t, got.ResetTokenHash)
	assert.Equal(t, tokenHash, *got.ResetTokenHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepository_ConsumeResetToken(t *testing.T) {
	changedAt := time.Date(2026, 4, 1, 11, 0, 0, 0, time.UTC)

	t.Run("one row consumed", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		mock.ExpectExec(`UPDATE identities`).
			WithArgs("id-1", "stored-hash", "new-hash", changedAt, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.ConsumeResetToken(context.Background(), "id-1", "stored-hash", "new-hash", changedAt)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows means the token was already consumed", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		mock.ExpectExec(`UPDATE identities`).
			WithArgs("id-1", "stored-hash", "new-hash", changedAt, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.ConsumeResetToken(context.Background(), "id-1", "stored-hash", "new-hash", changedAt)
		assert.ErrorIs(t, err, identity.ErrResetTokenConsumed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIdentityRepository_SetAndClearResetToken(t *testing.T) {
	expiry := time.Date(2026, 4, 1, 11, 10, 0, 0, time.UTC)

	t.Run("set stores hash and expiry together", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		mock.ExpectExec(`UPDATE identities`).
			WithArgs("id-1", "token-hash", expiry, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.SetResetToken(context.Background(), "id-1", "token-hash", expiry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set on missing identity", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		mock.ExpectExec(`UPDATE identities`).
			WithArgs("missing", "token-hash", expiry, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.SetResetToken(context.Background(), "missing", "token-hash", expiry)
		assert.ErrorIs(t, err, identity.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clear unsets both fields", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		mock.ExpectExec(`UPDATE identities`).
			WithArgs("id-1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.ClearResetToken(context.Background(), "id-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIdentityRepository_UpdatePassword(t *testing.T) {
	changedAt := time.Date(2026, 4, 1, 11, 0, 0, 0, time.UTC)

	mock, repo := newMockRepo(t)
	mock.ExpectExec(`UPDATE identities`).
		WithArgs("id-1", "new-hash", changedAt, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), "id-1", "new-hash", changedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepository_UpdateProfile(t *testing.T) {
	mock, repo := newMockRepo(t)
	ident := sampleIdentity()
	ident.Name = "Renamed"
	name := "Renamed"

	mock.ExpectQuery(`UPDATE identities`).
		WithArgs(ident.ID, &name, (*string)(nil), (*string)(nil), pgxmock.AnyArg()).
		WillReturnRows(identityRows(ident))

	got, err := repo.UpdateProfile(context.Background(), ident.ID, identity.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepository_Deactivate(t *testing.T) {
	t.Run("soft delete", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		mock.ExpectExec(`UPDATE identities`).
			WithArgs("id-1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.Deactivate(context.Background(), "id-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already inactive", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		mock.ExpectExec(`UPDATE identities`).
			WithArgs("id-1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Deactivate(context.Background(), "id-1")
		assert.ErrorIs(t, err, identity.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIdentityRepository_List(t *testing.T) {
	mock, repo := newMockRepo(t)
	a := sampleIdentity()
	b := sampleIdentity()
	b.ID = "7b6a4f2e-0000-4000-8000-000000000002"
	b.Email = "other@example.test"

	rows := identityRows(a).AddRow(
		b.ID, b.Name, b.Email, b.Photo, b.Role, b.PasswordHash,
		b.PasswordChangedAt, b.ResetTokenHash, b.ResetTokenExpiry,
		b.Active, b.CreatedAt, b.UpdatedAt,
	)
	mock.ExpectQuery(`FROM identities WHERE active ORDER BY created_at DESC`).
		WillReturnRows(rows)

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.Email, got[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}
