package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quizroom-service/internal/domain"
)

// DefaultTokenTTL is the session lifetime fixed at issuance.
const DefaultTokenTTL = 10 * time.Hour

// MinSecretLength is the minimum HS256 secret size accepted at startup.
const MinSecretLength = 32

// Token errors. All of them are ErrUnauthenticated to callers.
var (
	ErrInvalidToken = fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	ErrExpiredToken = fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
	ErrMissingClaim = fmt.Errorf("%w: missing required claim", domain.ErrUnauthenticated)
	ErrWeakSecret   = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
)

// Token is a freshly issued session token.
type Token struct {
	Value     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"-"`
}

// TokenService issues and verifies HS256 session tokens carrying a user id in "sub".
// The secret is fixed at construction; the service holds no other state.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService validates the secret and falls back to DefaultTokenTTL when ttl <= 0.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	return NewTokenServiceWithClock(secret, ttl, time.Now)
}

// NewTokenServiceWithClock allows deterministic expiry in tests.
func NewTokenServiceWithClock(secret []byte, ttl time.Duration, now func() time.Time) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    now,
	}, nil
}

// Issue signs a token for userID expiring ttl after now.
func (s *TokenService) Issue(userID string) (Token, error) {
	if userID == "" {
		return Token{}, ErrMissingClaim
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, UserID: userID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks the signature and expiry and returns the user id from "sub".
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	// exp must be strictly after now on the service clock.
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return "", ErrExpiredToken
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	return claims.Subject, nil
}
