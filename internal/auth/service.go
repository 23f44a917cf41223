package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gymqrs/backend/internal/config"
	"github.com/gymqrs/backend/internal/mailer"
)

var (
	ErrUsernameTaken       = errors.New("username already registered")
	ErrEmailTaken          = errors.New("email already registered")
	ErrEmailNotFound       = errors.New("email not registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidOTP          = errors.New("invalid or expired otp")
	ErrAccountNotActive    = errors.New("account is not active")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUnauthorized        = errors.New("unauthorized")
)

type Service struct {
	config     *config.AuthConfig
	otpConfig  *config.OTPConfig
	log        *zap.Logger
	repository Repository
	mail       mailer.Sender
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func NewService(config *config.AuthConfig, otpConfig *config.OTPConfig, log *zap.Logger, repo Repository, mail mailer.Sender) *Service {
	return &Service{
		config:     config,
		otpConfig:  otpConfig,
		log:        log,
		repository: repo,
		mail:       mail,
	}
}

// Signup creates an inactive user and its first OTP in one transaction, then
// emails the code. A failed email send never rolls anything back; the row
// exists and the code can be resent.
func (s *Service) Signup(ctx context.Context, username, email, password string, dateOfBirth time.Time) (*User, error) {
	if _, err := s.repository.GetUserByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.repository.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DateOfBirth:  dateOfBirth,
		IsActive:     false,
	}

	var otp *OTP
	err = s.repository.InTx(func(r Repository) error {
		if err := r.CreateUser(user); err != nil {
			return err
		}
		var err error
		if otp, err = s.newOTP(user.Username); err != nil {
			return err
		}
		return r.CreateOTP(otp)
	})
	if err != nil {
		// The unique constraints are the arbiter when two signups race past
		// the lookups above.
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.sendOTP(ctx, user.Email, otp)
	return user, nil
}

// VerifyOTPAndActivate consumes the OTP and flips the user active as one
// transaction, so a used OTP can never persist without the activation.
func (s *Service) VerifyOTPAndActivate(ctx context.Context, username, code string) (*TokenPair, error) {
	if _, err := s.repository.GetUserByUsername(username); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	err := s.repository.InTx(func(r Repository) error {
		ok, err := r.ConsumeOTP(username, code, time.Now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidOTP
		}
		return r.ActivateUser(username)
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokenPair(username, []string{ScopeRead})
}

// ResendOTP creates another OTP row for the user owning the email address.
// Prior unused rows stay valid until they expire on their own.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.repository.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrEmailNotFound
		}
		return err
	}

	otp, err := s.CreateOTP(user.Username)
	if err != nil {
		return err
	}

	s.sendOTP(ctx, user.Email, otp)
	return nil
}

// Login authenticates credentials and issues a token pair. An inactive
// account with correct credentials is a distinct failure from a bad
// password; the handler may still generalize the outward message.
func (s *Service) Login(ctx context.Context, username, password string, requestedScopes []string) (*TokenPair, error) {
	user, err := s.repository.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.HashPassword("dummy") // Prevent timing attacks
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountNotActive
	}

	return s.issueTokenPair(user.Username, grantScopes(requestedScopes))
}

// Refresh rotates both tokens. The presented token must verify as kind
// refresh and its subject must still be an active user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.VerifyToken(refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.repository.GetUserByUsername(claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	return s.issueTokenPair(user.Username, []string{ScopeRead})
}

// Authenticate resolves a bearer access token to its user. Activation is
// deliberately not re-checked here; it is enforced at login and bounded by
// the access token TTL.
func (s *Service) Authenticate(token string) (*User, *Claims, error) {
	claims, err := s.VerifyToken(token, TokenKindAccess)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, nil, ErrUnauthorized
	}

	user, err := s.repository.GetUserByUsername(claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}

	return user, claims, nil
}

func (s *Service) issueTokenPair(username string, scopes []string) (*TokenPair, error) {
	access, err := s.IssueAccessToken(username, scopes)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefreshToken(username)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) sendOTP(ctx context.Context, email string, otp *OTP) {
	if err := s.mail.SendOTP(ctx, email, otp.Code, time.Until(otp.ExpiresAt)); err != nil {
		s.log.Warn("failed to send otp email",
			zap.String("email", email),
			zap.Error(err))
	}
}

// grantScopes intersects the requested scopes with the grantable set,
// defaulting to read-only when nothing usable was requested.
func grantScopes(requested []string) []string {
	granted := make([]string, 0, len(requested))
	for _, scope := range requested {
		for _, allowed := range GrantableScopes {
			if scope == allowed {
				granted = append(granted, scope)
				break
			}
		}
	}
	if len(granted) == 0 {
		return []string{ScopeRead}
	}
	return granted
}
