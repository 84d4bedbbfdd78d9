package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/starfuse/starfuse/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		Secret:   "test-secret",
		TokenTTL: time.Hour,
		Username: "admin",
		Password: "password123",
	}
}

func TestService_LoginAndValidate(t *testing.T) {
	svc := NewService(testConfig(), newTestLogger())

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "password123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "admin", resp.Username)
	require.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Username)
	require.WithinDuration(t, resp.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	svc := NewService(testConfig(), newTestLogger())

	tests := []LoginRequest{
		{Username: "admin", Password: "wrong"},
		{Username: "intruder", Password: "password123"},
	}
	for _, req := range tests {
		_, err := svc.Login(context.Background(), req)
		require.Error(t, err)
		require.True(t, apperrors.IsCode(err, "invalid_credentials"))
	}
}

func TestService_LoginRequiresInput(t *testing.T) {
	svc := NewService(testConfig(), newTestLogger())

	for _, req := range []LoginRequest{{}, {Username: "admin"}, {Password: "password123"}} {
		_, err := svc.Login(context.Background(), req)
		require.Error(t, err)
		require.True(t, apperrors.IsCode(err, "invalid_input"))
	}
}

func TestService_LoginWithPasswordHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Password = ""
	cfg.PasswordHash = string(hash)
	svc := NewService(cfg, newTestLogger())

	_, err = svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "hunter2"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "wrong"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_credentials"))
}

func TestService_ValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService(testConfig(), newTestLogger())

	for _, token := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		_, err := svc.ValidateToken(context.Background(), token)
		require.Error(t, err)
		require.True(t, apperrors.IsCode(err, "invalid_token"))
	}
}

func TestService_ValidateTokenRejectsExpired(t *testing.T) {
	issuer := NewService(testConfig(), newTestLogger()).(*service)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	resp, err := issuer.Login(context.Background(), LoginRequest{Username: "admin", Password: "password123"})
	require.NoError(t, err)

	validator := NewService(testConfig(), newTestLogger())
	_, err = validator.ValidateToken(context.Background(), resp.Token)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}

func TestService_ValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService(testConfig(), newTestLogger())
	resp, err := issuer.Login(context.Background(), LoginRequest{Username: "admin", Password: "password123"})
	require.NoError(t, err)

	other := testConfig()
	other.Secret = "different-secret"
	validator := NewService(other, newTestLogger())

	_, err = validator.ValidateToken(context.Background(), resp.Token)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}
