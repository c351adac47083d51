package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yamdb/internal/apperr"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/respond"
	"yamdb/internal/microservices/http-api/service"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) IssueToken(ctx context.Context, username, code string) (*service.IssuedToken, error) {
	args := m.Called(username, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IssuedToken), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	respond.UseJSONFieldNames()
	return gin.New()
}

func postJSON(router http.Handler, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSignup_Success(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/signup", handler.Signup)

	user := &models.User{ID: "user-123", Username: "alice", Email: "alice@example.com"}
	mockAuthService.On("Signup", "alice", "alice@example.com").Return(user, nil)

	w := postJSON(router, "/signup", map[string]string{"username": "alice", "email": "alice@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, map[string]string{"username": "alice", "email": "alice@example.com"}, response)
	mockAuthService.AssertExpectations(t)
}

func TestSignup_ServiceValidationError(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/signup", handler.Signup)

	mockAuthService.On("Signup", "alice", "taken@example.com").
		Return(nil, apperr.Validation("email", "A user with that email already exists."))

	w := postJSON(router, "/signup", map[string]string{"username": "alice", "email": "taken@example.com"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []any{"A user with that email already exists."}, response["email"])
	assert.Equal(t, "validation_error", response["code"])
}

func TestSignup_MissingFields(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/signup", handler.Signup)

	w := postJSON(router, "/signup", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "username")
	assert.Contains(t, response, "email")
	mockAuthService.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
}

func TestToken_Success(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/token", handler.Token)

	mockAuthService.On("IssueToken", "alice", "abc123").
		Return(&service.IssuedToken{Token: "signed.jwt", ExpiresAt: time.Now().Add(time.Hour)}, nil)

	w := postJSON(router, "/token", map[string]string{"username": "alice", "confirmation_code": "abc123"})

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "signed.jwt", response["token"])
}

func TestToken_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"wrong code", apperr.InvalidCredentials("confirmation_code", "Invalid confirmation code."), http.StatusBadRequest},
		{"unknown user", apperr.NotFound("user"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuthService := new(MockAuthService)
			handler := NewAuthHandler(mockAuthService)
			router := setupRouter()
			router.POST("/token", handler.Token)
			mockAuthService.On("IssueToken", "alice", "nope").Return(nil, tt.err)

			w := postJSON(router, "/token", map[string]string{"username": "alice", "confirmation_code": "nope"})

			assert.Equal(t, tt.status, w.Code)
		})
	}
}
