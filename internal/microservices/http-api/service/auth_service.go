package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"yamdb/internal/apperr"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/rbac"
)

// CodeSender delivers confirmation codes. Implementations must not block.
type CodeSender interface {
	SendConfirmationCode(email, username, code string)
}

// TokenMinter signs bearer tokens for an identity.
type TokenMinter interface {
	Issue(id rbac.Identity) (string, time.Time, error)
}

// IssuedToken is the result of a successful code exchange.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	// Signup registers (username, email) or treats a repeat of the same pair
	// as a retry. Either way the stored code is (re)sent.
	Signup(ctx context.Context, username, email string) (*models.User, error)
	// IssueToken exchanges a confirmation code for a bearer token.
	IssueToken(ctx context.Context, username, code string) (*IssuedToken, error)
}

type authService struct {
	users   repository.UserRepository
	tokens  TokenMinter
	codes   CodeSender
	logger  *slog.Logger
	newCode func() string
	now     func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens TokenMinter, codes CodeSender, logger *slog.Logger) AuthService {
	return &authService{
		users:   users,
		tokens:  tokens,
		codes:   codes,
		logger:  logger,
		newCode: NewConfirmationCode,
		now:     time.Now,
	}
}

// NewConfirmationCode returns a random opaque code.
func NewConfirmationCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *authService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	fe := apperr.FieldErrors{}
	if err := fe.Merge(ValidateUsername(username)); err != nil {
		return nil, err
	}
	if err := fe.Merge(ValidateEmail(email)); err != nil {
		return nil, err
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsernameAndEmail(ctx, username, email)
	switch {
	case err == nil:
		return s.resend(ctx, user)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Internal(err)
	}

	if err := s.checkCollisions(ctx, username, email); err != nil {
		return nil, err
	}

	user = &models.User{
		Username:         username,
		Email:            email,
		Role:             rbac.RoleUser,
		ConfirmationCode: s.newCode(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Internal(err)
		}
		// lost a race with a concurrent signup
		existing, findErr := s.users.FindByUsernameAndEmail(ctx, username, email)
		if findErr == nil {
			return s.resend(ctx, existing)
		}
		if cerr := s.checkCollisions(ctx, username, email); cerr != nil {
			return nil, cerr
		}
		return nil, apperr.Internal(err)
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID, "username", user.Username)
	s.codes.SendConfirmationCode(user.Email, user.Username, user.ConfirmationCode)
	return user, nil
}

// resend reuses the stored code. Accounts created without one get a fresh code.
func (s *authService) resend(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ConfirmationCode == "" {
		code := s.newCode()
		if err := s.users.SetConfirmationCode(ctx, user.ID, code); err != nil {
			return nil, apperr.Internal(err)
		}
		user.ConfirmationCode = code
	}
	s.codes.SendConfirmationCode(user.Email, user.Username, user.ConfirmationCode)
	return user, nil
}

// checkCollisions rejects a username or email held by a different account.
func (s *authService) checkCollisions(ctx context.Context, username, email string) error {
	fe := apperr.FieldErrors{}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		fe.Add("username", "A user with that username already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return apperr.Internal(err)
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		fe.Add("email", "A user with that email already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return apperr.Internal(err)
	}
	return fe.Err()
}

func (s *authService) IssueToken(ctx context.Context, username, code string) (*IssuedToken, error) {
	fe := apperr.FieldErrors{}
	if strings.TrimSpace(username) == "" {
		fe.Add("username", "This field is required.")
	}
	if code == "" {
		fe.Add("confirmation_code", "This field is required.")
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, storeError(err, "user")
	}

	stored := user.ConfirmationCode
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, apperr.InvalidCredentials("confirmation_code", "Invalid confirmation code.")
	}

	if !user.IsConfirmed() {
		now := s.now().UTC()
		if err := s.users.MarkConfirmed(ctx, user.ID, now); err != nil {
			return nil, apperr.Internal(err)
		}
		user.ConfirmedAt = &now
	}

	token, exp, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &IssuedToken{Token: token, ExpiresAt: exp}, nil
}
