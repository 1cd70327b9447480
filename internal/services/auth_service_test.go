package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shelf-go/internal/auth"
	"shelf-go/internal/config"
	"shelf-go/internal/storage"
	"shelf-go/internal/storage/storagetest"
)

type capturedMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []capturedMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, capturedMail{to: to, subject: subject, body: body})
	return nil
}

var resetCodePattern = regexp.MustCompile(`\b(\d{6})\b`)

func newAuthFixture(t *testing.T) (*authService, *fakeMailer, *auth.MemoryTokenBlacklist) {
	t.Helper()
	db := storagetest.NewDB(t)
	m := &fakeMailer{}
	blacklist := auth.NewMemoryTokenBlacklist()
	cfg := config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour, ResetCodeTTL: time.Hour}
	svc := NewAuthService(storage.NewGormUserRepository(db), blacklist, m, cfg, zap.NewNop()).(*authService)
	return svc, m, blacklist
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Ana Lima", Email: " Ana@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "ana@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	token, loggedIn, err := svc.Login(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := auth.ValidateToken(ctx, token, "test-secret", nil)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{name: "bad email", input: RegisterInput{Name: "Ana", Email: "not-an-email", Password: "secret1"}},
		{name: "short password", input: RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "123"}},
		{name: "short name", input: RegisterInput{Name: "A", Email: "ana@example.com", Password: "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.input)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	svc, _, blacklist := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	claims, err := auth.ValidateToken(ctx, token, "test-secret", blacklist)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	_, err = auth.ValidateToken(ctx, token, "test-secret", blacklist)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, m, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ForgotPassword(ctx, "nobody@example.com"), ErrNotFound)

	require.NoError(t, svc.ForgotPassword(ctx, "ana@example.com"))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "ana@example.com", m.sent[0].to)
	assert.Contains(t, m.sent[0].body, "1 hour")
	match := resetCodePattern.FindStringSubmatch(m.sent[0].body)
	require.Len(t, match, 2)
	code := match[1]

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = svc.ResetPassword(ctx, ResetPasswordInput{Email: "ana@example.com", Code: wrong, NewPassword: "newpass"})
	assert.ErrorIs(t, err, ErrInvalidResetCode)

	require.NoError(t, svc.ResetPassword(ctx, ResetPasswordInput{Email: "ana@example.com", Code: code, NewPassword: "newpass"}))

	_, _, err = svc.Login(ctx, "ana@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "ana@example.com", "newpass")
	assert.NoError(t, err)

	// Codes are single use.
	err = svc.ResetPassword(ctx, ResetPasswordInput{Email: "ana@example.com", Code: code, NewPassword: "another"})
	assert.ErrorIs(t, err, ErrInvalidResetCode)
}

func TestPasswordReset_ExpiredCode(t *testing.T) {
	svc, m, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, "ana@example.com"))
	code := resetCodePattern.FindStringSubmatch(m.sent[0].body)[1]

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	err = svc.ResetPassword(ctx, ResetPasswordInput{Email: "ana@example.com", Code: code, NewPassword: "newpass"})
	assert.ErrorIs(t, err, ErrInvalidResetCode)
}

func TestGenerateResetCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateResetCode()
		require.NoError(t, err)
		assert.Regexp(t, `^[1-9]\d{5}$`, code)
	}
}
