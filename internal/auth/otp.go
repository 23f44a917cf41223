package auth

import (
	"crypto/rand"
	"math/big"
	"time"
)

const defaultOTPLength = 6

// CreateOTP generates and persists a fresh numeric one-time password for the
// user. Earlier unused rows stay valid until their own expiry; throttling of
// repeated requests is the transport layer's concern.
func (s *Service) CreateOTP(username string) (*OTP, error) {
	if _, err := s.repository.GetUserByUsername(username); err != nil {
		return nil, err
	}

	otp, err := s.newOTP(username)
	if err != nil {
		return nil, err
	}
	if err := s.repository.CreateOTP(otp); err != nil {
		return nil, err
	}
	return otp, nil
}

// newOTP builds an OTP row without persisting it, for callers that insert it
// inside a larger transaction.
func (s *Service) newOTP(username string) (*OTP, error) {
	length := s.otpConfig.CodeLength
	if length == 0 {
		length = defaultOTPLength
	}
	code, err := generateOTPCode(length)
	if err != nil {
		return nil, err
	}

	return &OTP{
		Username:  username,
		Code:      code,
		ExpiresAt: time.Now().UTC().Add(s.otpConfig.TTL),
	}, nil
}

// VerifyOTP consumes a matching unused, unexpired OTP row. It returns false
// on any miss without touching other rows; the caller decides the
// user-facing error.
func (s *Service) VerifyOTP(username, code string) (bool, error) {
	return s.repository.ConsumeOTP(username, code, time.Now().UTC())
}

// generateOTPCode returns a uniformly random string of decimal digits.
// Leading zeros are kept, so the result is always exactly length digits.
func generateOTPCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}
