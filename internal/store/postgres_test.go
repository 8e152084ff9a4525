package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/models"
)

func TestPgError(t *testing.T) {
	boom := errors.New("boom")
	other := &pgconn.PgError{Code: "23502"}

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, common.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), common.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, common.ErrDuplicateKey},
		{"other pg error", other, other},
		{"plain error", boom, boom},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, pgError("op", tc.in), tc.want)
		})
	}
}

func TestPgError_UniqueViolationIsNotNotFound(t *testing.T) {
	err := pgError("create account", &pgconn.PgError{Code: pgUniqueViolation})
	assert.NotErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "postgres create account")
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

type fakeQuerier struct {
	sql  string
	args []any
	row  fakeRow
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql, q.args = sql, args
	return q.row
}

func accountRow(token *string, expiry *time.Time) fakeRow {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return fakeRow{values: []any{
		"0b6a7c1e-0000-4000-8000-000000000001", "Alice", "Liddell", "alice", "alice@example.com", "$2a$hash", false,
		token, expiry, (*string)(nil), (*time.Time)(nil),
		created, (*time.Time)(nil),
	}}
}

func TestPostgresAccountStore_FindByVerificationToken(t *testing.T) {
	token := "tok"
	expiry := time.Date(2024, 1, 3, 3, 4, 5, 0, time.UTC)
	q := &fakeQuerier{row: accountRow(&token, &expiry)}
	s := &PostgresAccountStore{db: q}

	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	acc, err := s.FindByVerificationToken(context.Background(), "tok", now)
	require.NoError(t, err)

	assert.Contains(t, q.sql, "verification_token_expiry > $2")
	assert.Equal(t, []any{"tok", now}, q.args)
	assert.Equal(t, "alice", acc.Username)
	assert.Equal(t, "$2a$hash", acc.PasswordHash)
	require.NotNil(t, acc.VerificationToken)
	assert.Equal(t, "tok", *acc.VerificationToken)
	assert.Nil(t, acc.UpdatedAt)
}

func TestPostgresAccountStore_NotFoundAndDuplicate(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	s := &PostgresAccountStore{db: q}

	_, err := s.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, []any{"ghost"}, q.args)

	q.row = fakeRow{err: &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "accounts_username_key"}}
	_, err = s.Create(context.Background(), models.NewAccount{Username: "alice", Email: "alice@example.com"})
	assert.ErrorIs(t, err, common.ErrDuplicateKey)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(q.sql), "INSERT INTO accounts"))
}

func TestPostgresAccountStore_SaveClearsToken(t *testing.T) {
	q := &fakeQuerier{row: accountRow(nil, nil)}
	s := &PostgresAccountStore{db: q}

	now := time.Now().UTC()
	acc := &models.Account{ID: "0b6a7c1e-0000-4000-8000-000000000001", Username: "alice", Verified: true, UpdatedAt: &now}
	_, err := s.Save(context.Background(), acc)
	require.NoError(t, err)

	require.Len(t, q.args, 12)
	assert.Contains(t, q.sql, "WHERE id = $1")
	assert.Equal(t, acc.ID, q.args[0])
	assert.Equal(t, true, q.args[6])
	assert.Nil(t, q.args[7])
	assert.Nil(t, q.args[8])
}

func TestPostgresAccountStore_FindByIDUsesPrimaryKey(t *testing.T) {
	q := &fakeQuerier{row: accountRow(nil, nil)}
	s := &PostgresAccountStore{db: q}

	acc, err := s.FindByID(context.Background(), "0B6A7C1E-0000-4000-8000-000000000001")
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.Username)
	assert.Contains(t, q.sql, "WHERE id = $1")
	assert.NotContains(t, q.sql, "id::text =")
	assert.Equal(t, []any{"0b6a7c1e-0000-4000-8000-000000000001"}, q.args)
}

func TestPostgresAccountStore_MalformedIDIsNotFound(t *testing.T) {
	q := &fakeQuerier{row: accountRow(nil, nil)}
	s := &PostgresAccountStore{db: q}

	_, err := s.FindByID(context.Background(), "665f1c2e8b3e4a0012345678")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.Save(context.Background(), &models.Account{ID: "nope"})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, q.sql, "no query for an id that cannot exist")
}
