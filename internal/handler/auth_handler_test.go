package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type authServiceMock struct {
	loginResp     *models.LoginResponse
	loginErr      error
	lastLogin     models.LoginRequest
	forgotErr     error
	forgotCalled  bool
	lastReset     models.ResetPasswordRequest
	resetErr      error
	loginCalled   bool
	resetCalled   bool
	refreshCalled bool
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.loginCalled = true
	m.lastLogin = req
	return m.loginResp, m.loginErr
}

func (m *authServiceMock) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	m.refreshCalled = true
	return nil, appErrors.ErrUnauthorized
}

func (m *authServiceMock) Logout(ctx context.Context, refreshToken, accountID string, meta models.LoginRequest) error {
	return nil
}

func (m *authServiceMock) ChangePassword(ctx context.Context, accountID string, req models.ChangePasswordRequest) error {
	return nil
}

func (m *authServiceMock) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	m.forgotCalled = true
	return m.forgotErr
}

func (m *authServiceMock) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	m.resetCalled = true
	m.lastReset = req
	return m.resetErr
}

func postJSON(c *gin.Context, path string, payload interface{}) {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
}

func TestAuthHandlerLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authServiceMock{
		loginResp: &models.LoginResponse{AccessToken: "at", RefreshToken: "rt", Account: models.AccountInfo{ID: "acc1"}},
	}
	handler := NewAuthHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/auth/login", models.LoginRequest{Email: "hod@college.edu", Password: "secret123"})

	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.loginCalled)
	assert.Equal(t, "hod@college.edu", mockSvc.lastLogin.Email)
	assert.Contains(t, w.Body.String(), `"access_token":"at"`)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authServiceMock{loginErr: appErrors.ErrInvalidCredentials}
	handler := NewAuthHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/auth/login", models.LoginRequest{Email: "hod@college.edu", Password: "wrong"})

	handler.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestAuthHandlerLoginMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authServiceMock{}
	handler := NewAuthHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Login(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.loginCalled)
}

func TestAuthHandlerForgotPasswordAlwaysOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authServiceMock{}
	handler := NewAuthHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/auth/forgot-password", models.ForgotPasswordRequest{Email: "nobody@college.edu"})

	handler.ForgotPassword(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.forgotCalled)
}

func TestAuthHandlerResetPasswordUsesPathToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authServiceMock{}
	handler := NewAuthHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/auth/reset-password/tok-123", gin.H{"new_password": "brand-new-pass"})
	c.Params = gin.Params{{Key: "token", Value: "tok-123"}}

	handler.ResetPassword(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.resetCalled)
	assert.Equal(t, "tok-123", mockSvc.lastReset.Token)
	assert.Equal(t, "brand-new-pass", mockSvc.lastReset.NewPassword)
}
