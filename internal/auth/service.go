package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/models"
)

const (
	msgDuplicateAccount = "Username or Email already exists, please choose another one!"
	msgAccountNotFound  = "Account not found! Please check your username."
	msgWrongPassword    = "Password is incorrect."
	msgInvalidToken     = "Verification token is invalid or has expired."
	msgEmailNotFound    = "Email not found! Please check your email."
	msgTooManyAttempts  = "Too many attempts, please try again later."
)

// AccountStore persists accounts. Lookups return common.ErrNotFound when
// nothing matches; Create returns common.ErrDuplicateKey when the username or
// email is already taken.
type AccountStore interface {
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	// FindByVerificationToken only matches while the token expiry is after now.
	FindByVerificationToken(ctx context.Context, token string, now time.Time) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, acc models.NewAccount) (*models.Account, error)
	Save(ctx context.Context, acc *models.Account) (*models.Account, error)
}

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	Issue(user models.AccountSnapshot) (string, error)
}

type VerificationGenerator interface {
	Generate() (string, error)
	ExpiryFrom(now time.Time) time.Time
}

// Mailer delivers the account verification email.
type Mailer interface {
	SendVerification(ctx context.Context, to, username, link string) error
}

// Limiter returns common.ErrRateLimited once key has been used too often.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// Deps are the collaborators of Service. The limiters are optional.
type Deps struct {
	Accounts      AccountStore
	Hasher        Hasher
	Tokens        TokenIssuer
	Verification  VerificationGenerator
	Mailer        Mailer
	ResendLimiter Limiter
	LoginLimiter  Limiter
}

// Service runs signup, login, account verification and verification resend.
type Service struct {
	accounts      AccountStore
	hasher        Hasher
	tokens        TokenIssuer
	verification  VerificationGenerator
	mailer        Mailer
	resendLimiter Limiter
	loginLimiter  Limiter

	frontendURI  string
	storeTimeout time.Duration
	now          func() time.Time
}

func NewService(d Deps, frontendURI string, storeTimeout time.Duration) *Service {
	return &Service{
		accounts:      d.Accounts,
		hasher:        d.Hasher,
		tokens:        d.Tokens,
		verification:  d.Verification,
		mailer:        d.Mailer,
		resendLimiter: d.ResendLimiter,
		loginLimiter:  d.LoginLimiter,
		frontendURI:   strings.TrimRight(frontendURI, "/"),
		storeTimeout:  storeTimeout,
		now:           time.Now,
	}
}

// Signup registers a pending account and sends its verification email. It
// returns the stored username.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (string, error) {
	const op = "auth.Signup"

	in, err := normalizeSignup(req)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err = s.accounts.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		return "", common.WithMessage(common.ErrConflict, msgDuplicateAccount)
	case !errors.Is(err, common.ErrNotFound):
		return "", fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.verification.Generate()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	acc, err := s.accounts.Create(ctx, models.NewAccount{
		FirstName:               in.FirstName,
		LastName:                in.LastName,
		Username:                in.Username,
		Email:                   in.Email,
		PasswordHash:            hash,
		VerificationToken:       token,
		VerificationTokenExpiry: s.verification.ExpiryFrom(s.now()),
	})
	if err != nil {
		// the lookup above races with concurrent signups; the unique index decides
		if errors.Is(err, common.ErrDuplicateKey) {
			return "", common.WithMessage(common.ErrConflict, msgDuplicateAccount)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mailer.SendVerification(ctx, acc.Email, acc.Username, s.verificationLink(token)); err != nil {
		return "", fmt.Errorf("%s: send verification: %w", op, err)
	}

	return acc.Username, nil
}

// Login checks the credentials and issues a bearer token. Unverified accounts
// may log in.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	const op = "auth.Login"

	in, err := normalizeLogin(req)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.limit(ctx, s.loginLimiter, loginKey(in)); err != nil {
		return "", err
	}

	acc, err := s.accounts.FindByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.WithMessage(common.ErrNotFound, msgAccountNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(in.Password, acc.PasswordHash) {
		return "", common.WithMessage(common.ErrUnauthorized, msgWrongPassword)
	}

	token, err := s.tokens.Issue(acc.Snapshot())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// VerifyAccount consumes a live verification token. A consumed or expired
// token fails exactly like an unknown one.
func (s *Service) VerifyAccount(ctx context.Context, token string) error {
	const op = "auth.VerifyAccount"

	token = strings.TrimSpace(token)
	if token == "" {
		return common.NewValidationError(msgInvalidToken)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	now := s.now()
	acc, err := s.accounts.FindByVerificationToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewValidationError(msgInvalidToken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	acc.Verified = true
	acc.VerificationToken = nil
	acc.VerificationTokenExpiry = nil
	acc.UpdatedAt = &now

	if _, err := s.accounts.Save(ctx, acc); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ResendVerificationEmail replaces the account's verification token and
// mails the new one. It does not look at the verified flag.
func (s *Service) ResendVerificationEmail(ctx context.Context, email string) error {
	const op = "auth.ResendVerificationEmail"

	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.limit(ctx, s.resendLimiter, "resend:"+email); err != nil {
		return err
	}

	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.WithMessage(common.ErrNotFound, msgEmailNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.verification.Generate()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	expiry := s.verification.ExpiryFrom(now)
	acc.VerificationToken = &token
	acc.VerificationTokenExpiry = &expiry
	acc.UpdatedAt = &now

	if _, err := s.accounts.Save(ctx, acc); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mailer.SendVerification(ctx, acc.Email, acc.Username, s.verificationLink(token)); err != nil {
		return fmt.Errorf("%s: send verification: %w", op, err)
	}

	return nil
}

// Me loads the current state of the account behind a token snapshot.
func (s *Service) Me(ctx context.Context, id string) (*models.Account, error) {
	const op = "auth.Me"

	ctx, cancel := s.bound(ctx)
	defer cancel()

	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.WithMessage(common.ErrNotFound, "User not found.")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// loginKey scopes login throttling to one client address per username, so
// guessing from one address cannot lock the account out everywhere.
func loginKey(in models.LoginRequest) string {
	return "login:" + in.ClientIP + ":" + in.Username
}

func (s *Service) verificationLink(token string) string {
	return s.frontendURI + "/verifyAccount/" + token
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *Service) limit(ctx context.Context, l Limiter, key string) error {
	if l == nil {
		return nil
	}
	if err := l.Allow(ctx, key); err != nil {
		if errors.Is(err, common.ErrRateLimited) {
			return common.WithMessage(common.ErrRateLimited, msgTooManyAttempts)
		}
		return fmt.Errorf("auth.limit: %w", err)
	}
	return nil
}
