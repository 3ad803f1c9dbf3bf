package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintVerificationToken issues a signed token proving control of email.
func MintVerificationToken(cfg config.AuthConfig, now time.Time, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	if cfg.VerifyTTL <= 0 {
		return "", fmt.Errorf("verification ttl must be positive")
	}

	claims := VerificationClaims{
		Email:   email,
		Purpose: PurposeEmailVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.BaseURL,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.VerifyTTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.SigningSecret()))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseVerificationToken validates signature, issuer, expiry and purpose.
func ParseVerificationToken(cfg config.AuthConfig, tokenString string) (*VerificationClaims, error) {
	claims := &VerificationClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.SigningSecret()), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.BaseURL),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeEmailVerification {
		return nil, fmt.Errorf("unexpected token purpose %q", claims.Purpose)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("token is missing email")
	}
	return claims, nil
}
