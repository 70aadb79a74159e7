package services

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nexora-ai/nexora/pkg/config"
)

// Token kinds carried in the "type" claim so a refresh token can never pass
// as an access token.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the JWT payload for both token kinds.
type Claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the session JWTs.
type TokenService struct {
	algorithm  string
	secret     []byte
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates the token service from the auth configuration.
func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	s := &TokenService{
		algorithm:  cfg.Algorithm,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
	switch cfg.Algorithm {
	case "HS256":
		s.secret = []byte(cfg.SecretKey)
	case "RS256":
		privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
		}
		publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		s.privateKey, s.publicKey = privateKey, publicKey
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q", cfg.Algorithm)
	}
	return s, nil
}

// AccessTTL returns the access token lifetime (used for cookie max-age).
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess mints an access token for the user.
func (s *TokenService) IssueAccess(userID string) (string, error) {
	return s.issue(userID, TokenTypeAccess, s.accessTTL)
}

// IssueRefresh mints a refresh token for the user.
func (s *TokenService) IssueRefresh(userID string) (string, error) {
	return s.issue(userID, TokenTypeRefresh, s.refreshTTL)
}

func (s *TokenService) issue(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	var token *jwt.Token
	var key any
	if s.algorithm == "RS256" {
		token = jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		key = s.privateKey
	} else {
		token = jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		key = s.secret
	}
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token, checks its signature and expiry, and enforces the
// expected token type. It returns the user id.
func (s *TokenService) Verify(tokenString, expectedType string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.algorithm {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		if s.algorithm == "RS256" {
			return s.publicKey, nil
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}
	if claims.TokenType != expectedType || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}
