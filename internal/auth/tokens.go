package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// GrantableScopes is the full set an access token may carry. Requested
// scopes outside this set are silently dropped at login.
var GrantableScopes = []string{ScopeRead, ScopeWrite, ScopeAdmin}

var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of both token kinds. Kind discriminates access from
// refresh so a structurally valid token can never pass verification for the
// wrong purpose, even if the secrets were ever shared.
type Claims struct {
	Kind   string   `json:"kind"`
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (s *Service) HashPassword(password string) (string, error) {
	cost := s.config.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func (s *Service) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IssueAccessToken signs a short-lived HS256 token carrying the subject and
// its authorization scopes.
func (s *Service) IssueAccessToken(username string, scopes []string) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		Kind:   TokenKindAccess,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

// IssueRefreshToken signs a longer-lived token carrying only the subject,
// with the refresh secret.
func (s *Service) IssueRefreshToken(username string) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		Kind: TokenKindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.RefreshTokenSecret))
}

// VerifyToken checks signature, expiry and the kind claim against the
// expected kind, selecting the matching secret. Every failure mode collapses
// to ErrInvalidToken so callers cannot leak why a token was rejected.
func (s *Service) VerifyToken(tokenString, expectedKind string) (*Claims, error) {
	secret := s.config.AccessTokenSecret
	if expectedKind == TokenKindRefresh {
		secret = s.config.RefreshTokenSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != expectedKind {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
