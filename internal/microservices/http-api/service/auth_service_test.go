package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yamdb/internal/apperr"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/rbac"
)

var errNotFound = fmt.Errorf("lookup: %w", repository.ErrNotFound)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuthService(users *MockUserRepository, tokens *MockTokenMinter, codes *MockCodeSender) *authService {
	svc := NewAuthService(users, tokens, codes, discardLogger()).(*authService)
	svc.newCode = func() string { return "fresh-code" }
	return svc
}

func TestSignup_NewUser(t *testing.T) {
	users, tokens, codes := new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender)
	svc := newTestAuthService(users, tokens, codes)
	ctx := context.Background()

	users.On("FindByUsernameAndEmail", ctx, "alice", "alice@example.com").Return(nil, errNotFound)
	users.On("FindByUsername", ctx, "alice").Return(nil, errNotFound)
	users.On("FindByEmail", ctx, "alice@example.com").Return(nil, errNotFound)
	users.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "alice" && u.Role == rbac.RoleUser && u.ConfirmationCode == "fresh-code"
	})).Return(nil)
	codes.On("SendConfirmationCode", "alice@example.com", "alice", "fresh-code").Return()

	user, err := svc.Signup(ctx, " alice ", "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	users.AssertExpectations(t)
	codes.AssertExpectations(t)
}

func TestSignup_RepeatResendsStoredCode(t *testing.T) {
	users, tokens, codes := new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender)
	svc := newTestAuthService(users, tokens, codes)
	ctx := context.Background()

	existing := &models.User{ID: "u1", Username: "alice", Email: "alice@example.com", ConfirmationCode: "old-code"}
	users.On("FindByUsernameAndEmail", ctx, "alice", "alice@example.com").Return(existing, nil)
	codes.On("SendConfirmationCode", "alice@example.com", "alice", "old-code").Return()

	user, err := svc.Signup(ctx, "alice", "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	codes.AssertExpectations(t)
}

func TestSignup_RepeatWithoutCodeGeneratesOne(t *testing.T) {
	users, tokens, codes := new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender)
	svc := newTestAuthService(users, tokens, codes)
	ctx := context.Background()

	existing := &models.User{ID: "u1", Username: "alice", Email: "alice@example.com"}
	users.On("FindByUsernameAndEmail", ctx, "alice", "alice@example.com").Return(existing, nil)
	users.On("SetConfirmationCode", ctx, "u1", "fresh-code").Return(nil)
	codes.On("SendConfirmationCode", "alice@example.com", "alice", "fresh-code").Return()

	_, err := svc.Signup(ctx, "alice", "alice@example.com")

	require.NoError(t, err)
	users.AssertExpectations(t)
	codes.AssertExpectations(t)
}

func TestSignup_UsernameTakenByOtherAccount(t *testing.T) {
	users, tokens, codes := new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender)
	svc := newTestAuthService(users, tokens, codes)
	ctx := context.Background()

	users.On("FindByUsernameAndEmail", ctx, "alice", "new@example.com").Return(nil, errNotFound)
	users.On("FindByUsername", ctx, "alice").Return(&models.User{ID: "u1"}, nil)
	users.On("FindByEmail", ctx, "new@example.com").Return(nil, errNotFound)

	user, err := svc.Signup(ctx, "alice", "new@example.com")

	assert.Nil(t, user)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "username")
	assert.NotContains(t, ae.Fields, "email")
	codes.AssertNotCalled(t, "SendConfirmationCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignup_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		fields   []string
	}{
		{"reserved username", "me", "me@example.com", []string{"username"}},
		{"bad characters", "al ice", "alice@example.com", []string{"username"}},
		{"bad email", "alice", "not-an-email", []string{"email"}},
		{"both missing", "", "", []string{"username", "email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, tokens, codes := new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender)
			svc := newTestAuthService(users, tokens, codes)

			_, err := svc.Signup(context.Background(), tt.username, tt.email)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, apperr.KindValidation, ae.Kind)
			for _, f := range tt.fields {
				assert.Contains(t, ae.Fields, f)
			}
			users.AssertNotCalled(t, "FindByUsernameAndEmail", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSignup_RaceOnCreateResendsWinner(t *testing.T) {
	users, tokens, codes := new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender)
	svc := newTestAuthService(users, tokens, codes)
	ctx := context.Background()

	winner := &models.User{ID: "u9", Username: "alice", Email: "alice@example.com", ConfirmationCode: "winner-code"}
	users.On("FindByUsernameAndEmail", ctx, "alice", "alice@example.com").Return(nil, errNotFound).Once()
	users.On("FindByUsername", ctx, "alice").Return(nil, errNotFound)
	users.On("FindByEmail", ctx, "alice@example.com").Return(nil, errNotFound)
	users.On("Create", ctx, mock.Anything).Return(fmt.Errorf("create user: %w", repository.ErrDuplicate))
	users.On("FindByUsernameAndEmail", ctx, "alice", "alice@example.com").Return(winner, nil).Once()
	codes.On("SendConfirmationCode", "alice@example.com", "alice", "winner-code").Return()

	user, err := svc.Signup(ctx, "alice", "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "u9", user.ID)
	codes.AssertExpectations(t)
}

func TestIssueToken_Success(t *testing.T) {
	users, tokens, codes := new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender)
	svc := newTestAuthService(users, tokens, codes)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	user := &models.User{ID: "u1", Username: "alice", Role: rbac.RoleModerator, ConfirmationCode: "abc123"}
	exp := now.Add(24 * time.Hour)
	users.On("FindByUsername", ctx, "alice").Return(user, nil)
	users.On("MarkConfirmed", ctx, "u1", now).Return(nil)
	tokens.On("Issue", rbac.Identity{UserID: "u1", Username: "alice", Role: rbac.RoleModerator}).Return("signed.jwt", exp, nil)

	issued, err := svc.IssueToken(ctx, "alice", "abc123")

	require.NoError(t, err)
	assert.Equal(t, "signed.jwt", issued.Token)
	assert.Equal(t, exp, issued.ExpiresAt)
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestIssueToken_AlreadyConfirmedSkipsStamp(t *testing.T) {
	users, tokens, codes := new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender)
	svc := newTestAuthService(users, tokens, codes)
	ctx := context.Background()

	confirmed := time.Now().Add(-time.Hour)
	user := &models.User{ID: "u1", Username: "alice", Role: rbac.RoleUser, ConfirmationCode: "abc123", ConfirmedAt: &confirmed}
	users.On("FindByUsername", ctx, "alice").Return(user, nil)
	tokens.On("Issue", mock.Anything).Return("signed.jwt", time.Now(), nil)

	_, err := svc.IssueToken(ctx, "alice", "abc123")

	require.NoError(t, err)
	users.AssertNotCalled(t, "MarkConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestIssueToken_WrongCode(t *testing.T) {
	for name, stored := range map[string]string{"mismatch": "abc123", "no stored code": ""} {
		t.Run(name, func(t *testing.T) {
			users, tokens, codes := new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender)
			svc := newTestAuthService(users, tokens, codes)
			ctx := context.Background()

			users.On("FindByUsername", ctx, "alice").Return(&models.User{ID: "u1", Username: "alice", ConfirmationCode: stored}, nil)

			issued, err := svc.IssueToken(ctx, "alice", "wrong")

			assert.Nil(t, issued)
			assert.True(t, apperr.IsKind(err, apperr.KindInvalidCredentials))
			tokens.AssertNotCalled(t, "Issue", mock.Anything)
		})
	}
}

func TestIssueToken_UnknownUser(t *testing.T) {
	users, tokens, codes := new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender)
	svc := newTestAuthService(users, tokens, codes)
	ctx := context.Background()

	users.On("FindByUsername", ctx, "ghost").Return(nil, errNotFound)

	_, err := svc.IssueToken(ctx, "ghost", "abc")

	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestIssueToken_MissingFields(t *testing.T) {
	svc := newTestAuthService(new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender))

	_, err := svc.IssueToken(context.Background(), "", "")

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "username")
	assert.Contains(t, ae.Fields, "confirmation_code")
}

func TestIssueToken_StoreFailureIsInternal(t *testing.T) {
	users, tokens, codes := new(MockUserRepository), new(MockTokenMinter), new(MockCodeSender)
	svc := newTestAuthService(users, tokens, codes)
	ctx := context.Background()

	users.On("FindByUsername", ctx, "alice").Return(nil, errors.New("connection reset"))

	_, err := svc.IssueToken(ctx, "alice", "abc")

	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
}

func TestNewConfirmationCode(t *testing.T) {
	a, b := NewConfirmationCode(), NewConfirmationCode()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "-")
}
