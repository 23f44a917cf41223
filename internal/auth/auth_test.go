package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gymqrs/backend/internal/config"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		AccessTokenSecret:  "test-access-secret",
		RefreshTokenSecret: "test-refresh-secret",
		AccessTokenTTL:     time.Hour,
		RefreshTokenTTL:    time.Hour * 24,
		BcryptCost:         bcrypt.MinCost,
	}
}

func newTestOTPConfig() *config.OTPConfig {
	return &config.OTPConfig{
		TTL:        5 * time.Minute,
		CodeLength: 6,
	}
}

type sentOTP struct {
	To   string
	Code string
}

// recordingSender captures outgoing OTP mails and can be told to fail.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (s *recordingSender) SendOTP(_ context.Context, to, code string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentOTP{To: to, Code: code})
	return nil
}

func (s *recordingSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *recordingSender) lastSent() sentOTP {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[len(s.sent)-1]
}

func newTestService(t *testing.T) *Service {
	svc, _, _ := newTestEnv(t)
	return svc
}

func newTestEnv(t *testing.T) (*Service, *mockRepository, *recordingSender) {
	repo := newMockRepository()
	mail := &recordingSender{}
	svc := NewService(newTestConfig(), newTestOTPConfig(), newTestLogger(t), repo, mail)
	return svc, repo, mail
}

func newTestHandler(t *testing.T) (*Handler, *mockRepository, *recordingSender) {
	svc, repo, mail := newTestEnv(t)
	return NewHandler(svc, newTestLogger(t)), repo, mail
}

// signupTestUser registers and optionally activates a user directly through
// the repository, bypassing the service.
func signupTestUser(t *testing.T, svc *Service, repo *mockRepository, username, email, password string, active bool) *User {
	t.Helper()

	hash, err := svc.HashPassword(password)
	assert.NoError(t, err)

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DateOfBirth:  time.Date(1995, 4, 12, 0, 0, 0, 0, time.UTC),
		IsActive:     active,
	}
	assert.NoError(t, repo.CreateUser(user))
	return user
}
