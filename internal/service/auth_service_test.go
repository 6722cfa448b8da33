package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
	"github.com/Aisenh037/dept-mgmt-api/pkg/mailer"
)

type mockAuthRepo struct {
	accountByEmail       *models.Account
	accountByID          *models.Account
	findByEmailErr       error
	findByIDErr          error
	refreshTokens        map[string]*models.RefreshToken
	resetTokens          map[string]*models.PasswordResetToken
	createRefreshErr     error
	updatePasswordErr    error
	createResetErr       error
	auditLogs            []*models.AuditLog
	lastLoginUpdated     bool
	accountTokensRevoked bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.accountByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.accountByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if m.accountByID != nil {
		return m.accountByID, nil
	}
	if m.accountByEmail != nil {
		return m.accountByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	if m.accountByEmail != nil && m.accountByEmail.ID == id {
		m.accountByEmail.PasswordHash = passwordHash
	}
	if m.accountByID != nil && m.accountByID.ID == id {
		m.accountByID.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeAccountRefreshTokens(ctx context.Context, accountID string) error {
	m.accountTokensRevoked = true
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.createRefreshErr != nil {
		return m.createRefreshErr
	}
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	if m.createResetErr != nil {
		return m.createResetErr
	}
	if m.resetTokens == nil {
		m.resetTokens = make(map[string]*models.PasswordResetToken)
	}
	m.resetTokens[token.TokenHash] = token
	return nil
}

func (m *mockAuthRepo) FindPasswordResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordResetToken, error) {
	token, ok := m.resetTokens[tokenHash]
	if !ok || token.Used || now.After(token.ExpiresAt) {
		return nil, sql.ErrNoRows
	}
	return token, nil
}

func (m *mockAuthRepo) ConsumePasswordResetToken(ctx context.Context, id string) error {
	for _, token := range m.resetTokens {
		if token.ID == id {
			token.Used = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

type mockMailer struct {
	sent []mailer.Message
	err  error
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newAuthService(repo *mockAuthRepo, mail mailer.Mailer) *AuthService {
	if mail == nil {
		mail = &mockMailer{}
	}
	return NewAuthService(repo, mail, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: time.Hour * 24,
		ResetTokenTTL:      30 * time.Minute,
		FrontendURL:        "https://dept.example.com",
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{accountByEmail: &models.Account{ID: "123", Email: "hod@example.com", PasswordHash: string(password), Active: true, Role: models.RoleHOD}}
	svc := newAuthService(repo, nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "hod@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleHOD, res.Account.Role)
	assert.True(t, repo.lastLoginUpdated)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{accountByEmail: &models.Account{ID: "123", Email: "x@example.com", PasswordHash: string(password), Active: false}}
	svc := newAuthService(repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "x@example.com", Password: "password"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{accountByEmail: &models.Account{ID: "123", Email: "x@example.com", PasswordHash: string(password), Active: true}}
	svc := newAuthService(repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "x@example.com", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshTokenRotates(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: make(map[string]*models.RefreshToken)}
	account := &models.Account{ID: "a1", Email: "x@example.com", PasswordHash: "hash", Active: true, Role: models.RoleStudent}
	repo.accountByEmail = account
	repo.accountByID = account
	repo.refreshTokens["token"] = &models.RefreshToken{ID: "rt1", AccountID: account.ID, Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newAuthService(repo, nil)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["token"].Revoked)
}

func TestAuthServiceChangePassword(t *testing.T) {
	oldHash, _ := bcrypt.GenerateFromPassword([]byte("old"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{accountByEmail: &models.Account{ID: "a1", PasswordHash: string(oldHash), Active: true}}
	svc := newAuthService(repo, nil)

	err := svc.ChangePassword(context.Background(), "a1", models.ChangePasswordRequest{OldPassword: "old", NewPassword: "newpassword"})
	require.NoError(t, err)
	assert.NotEqual(t, string(oldHash), repo.accountByEmail.PasswordHash)
	assert.True(t, repo.accountTokensRevoked)
}

func TestValidateToken(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newAuthService(repo, nil)
	dept := "CSE"
	account := &models.Account{ID: "a1", Email: "x@example.com", Role: models.RoleHOD, Department: &dept}
	token, _, err := svc.generateAccessToken(account)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.AccountID)
	assert.Equal(t, models.RoleHOD, claims.Role)
	assert.Equal(t, "CSE", claims.Department)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	repo := &mockAuthRepo{}
	mail := &mockMailer{}
	svc := newAuthService(repo, mail)

	err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "ghost@example.com"})
	require.NoError(t, err)
	assert.Empty(t, mail.sent)
	assert.Empty(t, repo.resetTokens)
}

func TestForgotPasswordStoresHashAndEmailsRawToken(t *testing.T) {
	repo := &mockAuthRepo{accountByEmail: &models.Account{ID: "a1", Email: "prof@example.com", FullName: "Prof", Active: true}}
	mail := &mockMailer{}
	svc := newAuthService(repo, mail)

	err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "prof@example.com"})
	require.NoError(t, err)
	require.Len(t, mail.sent, 1)
	require.Len(t, repo.resetTokens, 1)

	for hash, token := range repo.resetTokens {
		assert.NotContains(t, mail.sent[0].HTML, hash, "stored hash must never leave the server")
		assert.Equal(t, "a1", token.AccountID)
		assert.False(t, token.Used)
		assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), token.ExpiresAt, time.Minute)
	}
	assert.Contains(t, mail.sent[0].HTML, "reset-password?token=")
}

func TestForgotPasswordSurfacesEmailFailure(t *testing.T) {
	repo := &mockAuthRepo{accountByEmail: &models.Account{ID: "a1", Email: "prof@example.com", Active: true}}
	mail := &mockMailer{err: assert.AnError}
	svc := newAuthService(repo, mail)

	err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "prof@example.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmailDelivery.Code, appErrors.FromError(err).Code)
}

func TestResetPasswordIsSingleUse(t *testing.T) {
	repo := &mockAuthRepo{accountByEmail: &models.Account{ID: "a1", Email: "prof@example.com", FullName: "Prof", Active: true, PasswordHash: "oldhash"}}
	mail := &mockMailer{}
	svc := newAuthService(repo, mail)

	require.NoError(t, svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "prof@example.com"}))
	require.Len(t, mail.sent, 1)

	// Pull the raw token back out of the emailed link.
	html := mail.sent[0].HTML
	idx := strings.Index(html, "token=")
	require.GreaterOrEqual(t, idx, 0)
	raw := html[idx+len("token="):]
	raw = raw[:strings.Index(raw, `"`)]

	err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Token: raw, NewPassword: "brand-new-pass"})
	require.NoError(t, err)
	assert.NotEqual(t, "oldhash", repo.accountByEmail.PasswordHash)
	assert.True(t, repo.accountTokensRevoked)

	err = svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Token: raw, NewPassword: "another-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidResetToken.Code, appErrors.FromError(err).Code)
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	repo := &mockAuthRepo{resetTokens: map[string]*models.PasswordResetToken{
		hashResetToken("stale"): {ID: "prt1", AccountID: "a1", TokenHash: hashResetToken("stale"), ExpiresAt: time.Now().UTC().Add(-time.Minute)},
	}}
	svc := newAuthService(repo, nil)

	err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Token: "stale", NewPassword: "new-password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidResetToken.Code, appErrors.FromError(err).Code)
}

func TestResetPasswordLeavesTokenRedeemableOnWriteFailure(t *testing.T) {
	repo := &mockAuthRepo{
		updatePasswordErr: assert.AnError,
		resetTokens: map[string]*models.PasswordResetToken{
			hashResetToken("good"): {ID: "prt1", AccountID: "a1", TokenHash: hashResetToken("good"), ExpiresAt: time.Now().UTC().Add(time.Hour)},
		},
	}
	svc := newAuthService(repo, nil)

	err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Token: "good", NewPassword: "new-password"})
	require.Error(t, err)
	assert.False(t, repo.resetTokens[hashResetToken("good")].Used)
}
