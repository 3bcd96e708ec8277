// Package auth validates the bearer tokens issued by the identity provider.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"docflow/internal/config"
	"docflow/internal/domain"
)

// AccessAudience is the audience every accepted token must carry.
const AccessAudience = "access"

// Claims are the JWT claims the service relies on. The subject is the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// UserID returns the token subject.
func (c *Claims) UserID() string {
	return c.Subject
}

// Service validates and, for development and tests, issues access tokens.
type Service interface {
	ValidateToken(tokenString string) (*Claims, error)
	IssueToken(userID, email string) (string, time.Time, error)
}

type service struct {
	cfg *config.JWTConfig
	now func() time.Time
}

// NewService creates an HS256 token service.
func NewService(cfg *config.JWTConfig) Service {
	return &service{cfg: cfg, now: time.Now}
}

// IssueToken signs an access token for userID that expires after the
// configured access expiry.
func (s *service) IssueToken(userID, email string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("auth.IssueToken: empty user id")
	}
	now := s.now()
	expiry := s.cfg.AccessTokenExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	expiresAt := now.Add(expiry)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Audience:  jwt.ClaimStrings{AccessAudience},
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth.IssueToken: signing: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *service) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(AccessAudience),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w: %w", domain.ErrUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
