package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/port"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Login(ctx context.Context, req domain.LoginRequest, ip, ua string) (*domain.TokenPair, error) {
	args := m.Called(ctx, req, ip, ua)
	if pair, ok := args.Get(0).(*domain.TokenPair); ok {
		return pair, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthService) Refresh(ctx context.Context, token, ip, ua string) (*domain.TokenPair, error) {
	args := m.Called(ctx, token, ip, ua)
	if pair, ok := args.Get(0).(*domain.TokenPair); ok {
		return pair, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type mockTokenService struct{ mock.Mock }

func (m *mockTokenService) GenerateAccessToken(user *domain.User) (string, time.Time, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockTokenService) ValidateAccessToken(tokenString string) (*port.AccessClaims, error) {
	args := m.Called(tokenString)
	if claims, ok := args.Get(0).(*port.AccessClaims); ok {
		return claims, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAccessService struct{ mock.Mock }

func (m *mockAccessService) GetEffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if perms, ok := args.Get(0).([]string); ok {
		return perms, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccessService) UserHasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	args := m.Called(ctx, userID, permission)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccessService) UserHasAnyPermission(ctx context.Context, userID uuid.UUID, permissions []string) (bool, error) {
	args := m.Called(ctx, userID, permissions)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccessService) UserHasAllPermissions(ctx context.Context, userID uuid.UUID, permissions []string) (bool, error) {
	args := m.Called(ctx, userID, permissions)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccessService) InvalidateUserPermissions(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func setupAuthTest(t *testing.T) (*AuthHandler, *mockAuthService, *mockTokenService, *mockAccessService, *gin.Engine) {
	t.Helper()

	mockAuth := new(mockAuthService)
	mockToken := new(mockTokenService)
	mockAccess := new(mockAccessService)
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	h := NewAuthHandler(mockAuth, mockToken, mockAccess, log)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return h, mockAuth, mockToken, mockAccess, router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

const validRefreshToken = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestAuthHandler_Login_Success(t *testing.T) {
	h, mockAuth, _, _, router := setupAuthTest(t)
	router.POST("/auth/login", h.Login)

	mockAuth.On("Login", mock.Anything, domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "Vg7!plumTree",
	}, mock.Anything, mock.Anything).Return(&domain.TokenPair{
		AccessToken:  "jwt-token-123",
		RefreshToken: validRefreshToken,
		ExpiresIn:    900,
	}, nil)

	w := postJSON(t, router, "/auth/login", `{"email":"alice@example.com","password":"Vg7!plumTree"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeEnvelope(t, w)
	assert.True(t, resp["success"].(bool))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "jwt-token-123", data["access_token"])
	assert.Equal(t, validRefreshToken, data["refresh_token"])
	assert.Equal(t, "Bearer", data["token_type"])
	assert.Equal(t, float64(900), data["expires_in"])
}

func TestAuthHandler_Login_InvalidRequest(t *testing.T) {
	h, mockAuth, _, _, router := setupAuthTest(t)
	router.POST("/auth/login", h.Login)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing password", `{"email":"alice@example.com"}`},
		{"malformed email", `{"email":"not-an-email","password":"x"}`},
		{"not json", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/auth/login", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeEnvelope(t, w)
			assert.False(t, resp["success"].(bool))
		})
	}

	mockAuth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthHandler_Login_Unauthorized(t *testing.T) {
	h, mockAuth, _, _, router := setupAuthTest(t)
	router.POST("/auth/login", h.Login)

	mockAuth.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperror.Unauthorized("invalid credentials"))

	w := postJSON(t, router, "/auth/login", `{"email":"alice@example.com","password":"wrong-pass"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp["success"].(bool))
	errObj := resp["error"].(map[string]interface{})
	assert.Equal(t, apperror.CodeUnauthorized, errObj["code"])
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("rotates and returns the successor pair", func(t *testing.T) {
		h, mockAuth, _, _, router := setupAuthTest(t)
		router.POST("/auth/refresh", h.Refresh)

		successor := strings.Repeat("ab", 32)
		mockAuth.On("Refresh", mock.Anything, validRefreshToken, mock.Anything, mock.Anything).
			Return(&domain.TokenPair{
				AccessToken:  "new-jwt",
				RefreshToken: successor,
				ExpiresIn:    900,
			}, nil)

		w := postJSON(t, router, "/auth/refresh", `{"refresh_token":"`+validRefreshToken+`"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeEnvelope(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "new-jwt", data["access_token"])
		assert.Equal(t, successor, data["refresh_token"])
	})

	t.Run("rejects malformed tokens without echoing them", func(t *testing.T) {
		h, mockAuth, _, _, router := setupAuthTest(t)
		router.POST("/auth/refresh", h.Refresh)

		for _, body := range []string{
			`{}`,
			`{"refresh_token":"short"}`,
			`{"refresh_token":"` + strings.Repeat("z", 64) + `"}`, // not hex
		} {
			w := postJSON(t, router, "/auth/refresh", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotContains(t, w.Body.String(), "refresh_token\":\"")
		}

		mockAuth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("all service failures map to the same unauthorized response", func(t *testing.T) {
		h, mockAuth, _, _, router := setupAuthTest(t)
		router.POST("/auth/refresh", h.Refresh)

		mockAuth.On("Refresh", mock.Anything, validRefreshToken, mock.Anything, mock.Anything).
			Return(nil, apperror.Unauthorized("invalid refresh token"))

		w := postJSON(t, router, "/auth/refresh", `{"refresh_token":"`+validRefreshToken+`"}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		errObj := decodeEnvelope(t, w)["error"].(map[string]interface{})
		assert.Equal(t, apperror.CodeUnauthorized, errObj["code"])
	})
}

func TestAuthHandler_Logout_Idempotent(t *testing.T) {
	h, mockAuth, _, _, router := setupAuthTest(t)
	router.POST("/auth/logout", h.Logout)

	// The service succeeds for unknown tokens too; the handler must pass
	// that through as a plain 200.
	mockAuth.On("Logout", mock.Anything, validRefreshToken).Return(nil)

	for i := 0; i < 2; i++ {
		w := postJSON(t, router, "/auth/logout", `{"refresh_token":"`+validRefreshToken+`"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	mockAuth.AssertNumberOfCalls(t, "Logout", 2)
}

func TestAuthHandler_LogoutAll(t *testing.T) {
	h, mockAuth, mockToken, _, router := setupAuthTest(t)
	router.POST("/auth/logout-all", h.AuthMiddleware(), h.LogoutAll)

	userID := uuid.New()
	mockToken.On("ValidateAccessToken", "good-token").Return(&port.AccessClaims{
		UserID: userID.String(),
		Email:  "alice@example.com",
		Roles:  []string{"member"},
	}, nil)
	mockAuth.On("LogoutAll", mock.Anything, userID).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout-all", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockAuth.AssertCalled(t, "LogoutAll", mock.Anything, userID)
}

func TestAuthHandler_AuthMiddleware(t *testing.T) {
	newRouter := func(t *testing.T) (*mockTokenService, *gin.Engine) {
		h, _, mockToken, _, router := setupAuthTest(t)
		router.GET("/protected", h.AuthMiddleware(), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"user_id": c.GetString(ContextUserID),
				"email":   c.GetString(ContextEmail),
			})
		})
		return mockToken, router
	}

	get := func(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("valid token populates the request context", func(t *testing.T) {
		mockToken, router := newRouter(t)
		userID := uuid.New()
		mockToken.On("ValidateAccessToken", "good-token").Return(&port.AccessClaims{
			UserID: userID.String(),
			Email:  "alice@example.com",
			Roles:  []string{"member"},
		}, nil)

		w := get(router, "Bearer good-token")

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, userID.String(), body["user_id"])
		assert.Equal(t, "alice@example.com", body["email"])
	})

	t.Run("missing header", func(t *testing.T) {
		_, router := newRouter(t)
		assert.Equal(t, http.StatusUnauthorized, get(router, "").Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, router := newRouter(t)
		assert.Equal(t, http.StatusUnauthorized, get(router, "Basic abc123").Code)
	})

	t.Run("missing token after scheme", func(t *testing.T) {
		_, router := newRouter(t)
		assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer").Code)
	})

	t.Run("invalid or expired token", func(t *testing.T) {
		mockToken, router := newRouter(t)
		mockToken.On("ValidateAccessToken", "bad-token").
			Return(nil, apperror.Unauthorized("token expired"))

		assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer bad-token").Code)
	})
}

func TestAuthHandler_RequirePermission(t *testing.T) {
	userID := uuid.New()

	newRouter := func(t *testing.T) (*mockAccessService, *gin.Engine) {
		h, _, mockToken, mockAccess, router := setupAuthTest(t)
		mockToken.On("ValidateAccessToken", "good-token").Return(&port.AccessClaims{
			UserID: userID.String(),
			Email:  "alice@example.com",
			Roles:  []string{"member"},
		}, nil)

		router.GET("/users", h.AuthMiddleware(), h.RequirePermission("users:read"), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return mockAccess, router
	}

	get := func(router *gin.Engine) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("granted permission passes through", func(t *testing.T) {
		mockAccess, router := newRouter(t)
		mockAccess.On("UserHasPermission", mock.Anything, userID, "users:read").Return(true, nil)

		assert.Equal(t, http.StatusOK, get(router).Code)
	})

	t.Run("denied permission is forbidden", func(t *testing.T) {
		mockAccess, router := newRouter(t)
		mockAccess.On("UserHasPermission", mock.Anything, userID, "users:read").Return(false, nil)

		w := get(router)
		assert.Equal(t, http.StatusForbidden, w.Code)
		errObj := decodeEnvelope(t, w)["error"].(map[string]interface{})
		assert.Equal(t, apperror.CodeForbidden, errObj["code"])
	})

	t.Run("resolution failure surfaces, not a silent allow", func(t *testing.T) {
		mockAccess, router := newRouter(t)
		mockAccess.On("UserHasPermission", mock.Anything, userID, "users:read").
			Return(false, apperror.Internal("resolver down", nil))

		assert.Equal(t, http.StatusInternalServerError, get(router).Code)
	})
}
