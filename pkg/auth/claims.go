package auth

import "github.com/golang-jwt/jwt/v5"

// Purpose scopes a signed token to a single flow.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email-verification"
)

// VerificationClaims is the payload of an email-verification token.
type VerificationClaims struct {
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}
