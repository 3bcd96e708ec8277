package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/auth"
	"docflow/internal/config"
	"docflow/internal/domain"
)

func testConfig() *config.JWTConfig {
	return &config.JWTConfig{Secret: "test-secret", Issuer: "docflow", AccessTokenExpiry: time.Minute}
}

func TestIssueAndValidate(t *testing.T) {
	svc := auth.NewService(testConfig())

	token, expiresAt, err := svc.IssueToken("user-42", "a@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID())
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestValidate_Rejects(t *testing.T) {
	cfg := testConfig()
	svc := auth.NewService(cfg)

	sign := func(claims jwt.Claims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "docflow",
			Audience:  jwt.ClaimStrings{"access"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}
	}

	wrongAudience := valid()
	wrongAudience.Audience = jwt.ClaimStrings{"refresh"}
	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := valid()
	wrongIssuer.Issuer = "elsewhere"
	noSubject := valid()
	noSubject.Subject = ""

	tests := map[string]string{
		"garbage":        "not-a-token",
		"wrong secret":   sign(valid(), "other-secret"),
		"wrong audience": sign(wrongAudience, cfg.Secret),
		"expired":        sign(expired, cfg.Secret),
		"wrong issuer":   sign(wrongIssuer, cfg.Secret),
		"no subject":     sign(noSubject, cfg.Secret),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}
