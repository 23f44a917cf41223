package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_HashPassword(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name     string
		password string
	}{
		{
			name:     "valid password",
			password: "testpassword123",
		},
		{
			name:     "empty password",
			password: "", // bcrypt handles empty passwords
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := svc.HashPassword(tt.password)
			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			assert.True(t, svc.CheckPasswordHash(tt.password, hash))
			assert.False(t, svc.CheckPasswordHash(tt.password+"x", hash))
		})
	}
}

func TestService_IssueAccessToken(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.IssueAccessToken("testuser", []string{ScopeRead, ScopeWrite})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyToken(token, TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Subject)
	assert.Equal(t, TokenKindAccess, claims.Kind)
	assert.True(t, claims.HasScope(ScopeRead))
	assert.True(t, claims.HasScope(ScopeWrite))
	assert.False(t, claims.HasScope(ScopeAdmin))
}

func TestService_IssueRefreshToken(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.IssueRefreshToken("testuser")
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token, TokenKindRefresh)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Subject)
	assert.Equal(t, TokenKindRefresh, claims.Kind)
	assert.Empty(t, claims.Scopes)
}

func TestService_VerifyToken_KindMismatch(t *testing.T) {
	svc := newTestService(t)

	access, err := svc.IssueAccessToken("testuser", []string{ScopeRead})
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken("testuser")
	require.NoError(t, err)

	tests := []struct {
		name         string
		token        string
		expectedKind string
	}{
		{
			name:         "access token checked as refresh",
			token:        access,
			expectedKind: TokenKindRefresh,
		},
		{
			name:         "refresh token checked as access",
			token:        refresh,
			expectedKind: TokenKindAccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.VerifyToken(tt.token, tt.expectedKind)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestService_VerifyToken_Invalid(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name       string
		setupToken func() string
		kind       string
	}{
		{
			name: "expired access token",
			setupToken: func() string {
				cfg := newTestConfig()
				cfg.AccessTokenTTL = -time.Hour
				expiredSvc := NewService(cfg, newTestOTPConfig(), newTestLogger(t), newMockRepository(), &recordingSender{})
				token, _ := expiredSvc.IssueAccessToken("testuser", []string{ScopeRead})
				return token
			},
			kind: TokenKindAccess,
		},
		{
			name: "expired refresh token",
			setupToken: func() string {
				cfg := newTestConfig()
				cfg.RefreshTokenTTL = -time.Hour
				expiredSvc := NewService(cfg, newTestOTPConfig(), newTestLogger(t), newMockRepository(), &recordingSender{})
				token, _ := expiredSvc.IssueRefreshToken("testuser")
				return token
			},
			kind: TokenKindRefresh,
		},
		{
			name: "token signed with the wrong secret",
			setupToken: func() string {
				cfg := newTestConfig()
				cfg.AccessTokenSecret = "some-other-secret"
				otherSvc := NewService(cfg, newTestOTPConfig(), newTestLogger(t), newMockRepository(), &recordingSender{})
				token, _ := otherSvc.IssueAccessToken("testuser", []string{ScopeRead})
				return token
			},
			kind: TokenKindAccess,
		},
		{
			name: "token without a kind claim",
			setupToken: func() string {
				claims := jwt.MapClaims{
					"sub": "testuser",
					"exp": time.Now().Add(time.Hour).Unix(),
				}
				token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
					SignedString([]byte(newTestConfig().AccessTokenSecret))
				return token
			},
			kind: TokenKindAccess,
		},
		{
			name: "unsigned token",
			setupToken: func() string {
				claims := jwt.MapClaims{
					"sub":  "testuser",
					"kind": TokenKindAccess,
					"exp":  time.Now().Add(time.Hour).Unix(),
				}
				token, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
					SignedString(jwt.UnsafeAllowNoneSignatureType)
				return token
			},
			kind: TokenKindAccess,
		},
		{
			name:       "malformed token",
			setupToken: func() string { return "not.a.token" },
			kind:       TokenKindAccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.VerifyToken(tt.setupToken(), tt.kind)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}
