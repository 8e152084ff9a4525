package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/models"
	"github.com/ayush/todo-api/internal/store/migrations"
)

const pgUniqueViolation = "23505"

const accountColumns = `id::text, first_name, last_name, username, email, password, verified,
	verification_token, verification_token_expiry,
	reset_password_token, reset_password_token_expiry,
	created_at, updated_at`

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresAccountStore handles account CRUD against PostgreSQL.
type PostgresAccountStore struct {
	pool *pgxpool.Pool
	db   rowQuerier
}

func NewPostgresAccountStore(pool *pgxpool.Pool) *PostgresAccountStore {
	return &PostgresAccountStore{pool: pool, db: pool}
}

// Migrate applies the embedded goose migrations.
func (s *PostgresAccountStore) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

func (s *PostgresAccountStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.Account, error) {
	return s.queryOne(ctx, "find account",
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1 OR email = $2 LIMIT 1`,
		username, email)
}

func (s *PostgresAccountStore) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.queryOne(ctx, "find account",
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

func (s *PostgresAccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.queryOne(ctx, "find account",
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (s *PostgresAccountStore) FindByVerificationToken(ctx context.Context, token string, now time.Time) (*models.Account, error) {
	return s.queryOne(ctx, "find account",
		`SELECT `+accountColumns+` FROM accounts
		 WHERE verification_token = $1 AND verification_token_expiry > $2`,
		token, now)
}

func (s *PostgresAccountStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return s.queryOne(ctx, "find account",
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, uid.String())
}

func (s *PostgresAccountStore) Create(ctx context.Context, acc models.NewAccount) (*models.Account, error) {
	return s.queryOne(ctx, "create account",
		`INSERT INTO accounts (first_name, last_name, username, email, password,
		                       verification_token, verification_token_expiry)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+accountColumns,
		acc.FirstName, acc.LastName, acc.Username, acc.Email, acc.PasswordHash,
		acc.VerificationToken, acc.VerificationTokenExpiry)
}

func (s *PostgresAccountStore) Save(ctx context.Context, acc *models.Account) (*models.Account, error) {
	uid, err := uuid.Parse(acc.ID)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return s.queryOne(ctx, "save account",
		`UPDATE accounts SET
		     first_name = $2, last_name = $3, username = $4, email = $5, password = $6,
		     verified = $7, verification_token = $8, verification_token_expiry = $9,
		     reset_password_token = $10, reset_password_token_expiry = $11, updated_at = $12
		 WHERE id = $1
		 RETURNING `+accountColumns,
		uid.String(), acc.FirstName, acc.LastName, acc.Username, acc.Email, acc.PasswordHash,
		acc.Verified, acc.VerificationToken, acc.VerificationTokenExpiry,
		acc.ResetPasswordToken, acc.ResetPasswordTokenExpiry, acc.UpdatedAt)
}

func (s *PostgresAccountStore) queryOne(ctx context.Context, op, sql string, args ...any) (*models.Account, error) {
	var a models.Account
	err := s.db.QueryRow(ctx, sql, args...).Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Username, &a.Email, &a.PasswordHash, &a.Verified,
		&a.VerificationToken, &a.VerificationTokenExpiry,
		&a.ResetPasswordToken, &a.ResetPasswordTokenExpiry,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, pgError(op, err)
	}
	return &a, nil
}

// pgError maps driver errors onto the store sentinels.
func pgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("postgres %s: %w", op, common.ErrDuplicateKey)
	}
	return fmt.Errorf("postgres %s: %w", op, err)
}
