package auth

import (
	"fmt"
	"log"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// AuthenticationError covers every way a bearer token can fail verification:
// unparseable, bad signature, expired, or missing the subject claim.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid Auth0 token: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid Auth0 token: %s", e.Reason)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// Verifier validates Auth0 access tokens against the tenant's JWKS. Key
// fetching, caching and refresh are delegated to keyfunc.
type Verifier struct {
	keys           keyfunc.Keyfunc
	expectedIssuer string
}

func NewVerifier(domain string) (*Verifier, error) {
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
	return newVerifier(jwksURL, fmt.Sprintf("https://%s/", domain))
}

func newVerifier(jwksURL, expectedIssuer string) (*Verifier, error) {
	keys, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load JWKS from %s: %w", jwksURL, err)
	}
	return &Verifier{keys: keys, expectedIssuer: expectedIssuer}, nil
}

// Verify checks the token's signature and expiry and returns its subject
// claim. Unsigned and alg="none" tokens are rejected outright.
func (v *Verifier) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", &AuthenticationError{Reason: "missing bearer token"}
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, v.keys.Keyfunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}))
	if err != nil {
		return "", &AuthenticationError{Reason: "signature validation failed", Err: err}
	}

	if claims.Subject == "" {
		return "", &AuthenticationError{Reason: "user ID (sub) not found in token"}
	}

	// Current policy: an issuer mismatch is logged but the token is still
	// accepted.
	if claims.Issuer != v.expectedIssuer {
		log.Printf("WARN: Token issuer mismatch. Expected: %s, Got: %s", v.expectedIssuer, claims.Issuer)
	}

	return claims.Subject, nil
}
