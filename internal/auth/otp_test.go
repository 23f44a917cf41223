package auth

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var otpCodePattern = regexp.MustCompile(`^\d{6}$`)

func TestService_CreateOTP(t *testing.T) {
	svc, repo, _ := newTestEnv(t)
	signupTestUser(t, svc, repo, "alice", "alice@x.com", "Secret1234!", false)

	before := time.Now().UTC()
	otp, err := svc.CreateOTP("alice")
	require.NoError(t, err)

	assert.Regexp(t, otpCodePattern, otp.Code)
	assert.Equal(t, "alice", otp.Username)
	assert.False(t, otp.IsUsed)

	// Expiry tracks creation time + the configured window.
	wantExpiry := before.Add(5 * time.Minute)
	assert.WithinDuration(t, wantExpiry, otp.ExpiresAt, 2*time.Second)
}

func TestService_CreateOTP_UnknownUser(t *testing.T) {
	svc, _, _ := newTestEnv(t)

	otp, err := svc.CreateOTP("nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, otp)
}

func TestService_CreateOTP_MultipleRowsCoexist(t *testing.T) {
	svc, repo, _ := newTestEnv(t)
	signupTestUser(t, svc, repo, "alice", "alice@x.com", "Secret1234!", false)

	first, err := svc.CreateOTP("alice")
	require.NoError(t, err)
	second, err := svc.CreateOTP("alice")
	require.NoError(t, err)

	assert.Len(t, repo.unusedOTPs("alice"), 2)

	// The older code is still honored while unexpired.
	ok, err := svc.VerifyOTP("alice", first.Code)
	require.NoError(t, err)
	assert.True(t, ok)

	// And consuming it leaves the newer one untouched.
	if second.Code != first.Code {
		ok, err = svc.VerifyOTP("alice", second.Code)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestService_VerifyOTP(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, svc *Service, repo *mockRepository) (username, code string)
		want  bool
	}{
		{
			name: "valid code",
			setup: func(t *testing.T, svc *Service, repo *mockRepository) (string, string) {
				signupTestUser(t, svc, repo, "alice", "alice@x.com", "Secret1234!", false)
				otp, err := svc.CreateOTP("alice")
				require.NoError(t, err)
				return "alice", otp.Code
			},
			want: true,
		},
		{
			name: "wrong code",
			setup: func(t *testing.T, svc *Service, repo *mockRepository) (string, string) {
				signupTestUser(t, svc, repo, "alice", "alice@x.com", "Secret1234!", false)
				otp, err := svc.CreateOTP("alice")
				require.NoError(t, err)
				wrong := "000000"
				if otp.Code == wrong {
					wrong = "000001"
				}
				return "alice", wrong
			},
			want: false,
		},
		{
			name: "expired code",
			setup: func(t *testing.T, svc *Service, repo *mockRepository) (string, string) {
				signupTestUser(t, svc, repo, "alice", "alice@x.com", "Secret1234!", false)
				otp := &OTP{
					Username:  "alice",
					Code:      "482193",
					ExpiresAt: time.Now().UTC().Add(-time.Minute),
				}
				require.NoError(t, repo.CreateOTP(otp))
				return "alice", otp.Code
			},
			want: false,
		},
		{
			name: "code of another user",
			setup: func(t *testing.T, svc *Service, repo *mockRepository) (string, string) {
				signupTestUser(t, svc, repo, "alice", "alice@x.com", "Secret1234!", false)
				signupTestUser(t, svc, repo, "bob", "bob@x.com", "Secret1234!", false)
				otp, err := svc.CreateOTP("bob")
				require.NoError(t, err)
				return "alice", otp.Code
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestEnv(t)
			username, code := tt.setup(t, svc, repo)

			ok, err := svc.VerifyOTP(username, code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestService_VerifyOTP_SingleUse(t *testing.T) {
	svc, repo, _ := newTestEnv(t)
	signupTestUser(t, svc, repo, "alice", "alice@x.com", "Secret1234!", false)

	otp, err := svc.CreateOTP("alice")
	require.NoError(t, err)

	ok, err := svc.VerifyOTP("alice", otp.Code)
	require.NoError(t, err)
	assert.True(t, ok)

	// The identical code must not verify twice.
	ok, err = svc.VerifyOTP("alice", otp.Code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_VerifyOTP_MissLeavesRowsIntact(t *testing.T) {
	svc, repo, _ := newTestEnv(t)
	signupTestUser(t, svc, repo, "alice", "alice@x.com", "Secret1234!", false)

	otp, err := svc.CreateOTP("alice")
	require.NoError(t, err)
	wrong := "000000"
	if otp.Code == wrong {
		wrong = "000001"
	}

	ok, err := svc.VerifyOTP("alice", wrong)
	require.NoError(t, err)
	assert.False(t, ok)

	// The failed attempt must not consume the valid row.
	ok, err = svc.VerifyOTP("alice", otp.Code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGenerateOTPCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateOTPCode(6)
		require.NoError(t, err)
		assert.Regexp(t, otpCodePattern, code)
	}

	code, err := generateOTPCode(8)
	require.NoError(t, err)
	assert.Len(t, code, 8)
}
