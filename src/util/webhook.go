package util

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	plaidsdk "github.com/plaid/plaid-go/v41/plaid"

	"github.com/golang-jwt/jwt/v5"
)

// Plaid signs inbound webhooks with an ES256 JWT in the Plaid-Verification
// header; the key is fetched per kid through /webhook_verification_key/get.
// See https://plaid.com/docs/api/webhooks/webhook-verification/

const webhookMaxAge = 5 * time.Minute

var (
	webhookKeyMu    sync.Mutex
	webhookKeyCache = map[string]*plaidsdk.JWKPublicKey{}
)

// VerifyWebhook checks the Plaid-Verification JWT on an inbound webhook: the
// ES256 signature, the token age, and the SHA-256 hash of the body.
func VerifyWebhook(ctx context.Context, client *plaidsdk.APIClient, body []byte, header http.Header) error {
	tokenString := header.Get("Plaid-Verification")
	if tokenString == "" {
		return errors.New("missing Plaid-Verification header")
	}

	parser := jwt.NewParser(jwt.WithLeeway(30 * time.Second))

	unverified, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return fmt.Errorf("parse unverified token: %w", err)
	}
	if unverified.Method.Alg() != jwt.SigningMethodES256.Alg() {
		return fmt.Errorf("unexpected alg %q (want ES256)", unverified.Method.Alg())
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return errors.New("missing kid in JWT header")
	}

	pubKey, err := verificationKey(ctx, client, kid)
	if err != nil {
		return fmt.Errorf("get verification key: %w", err)
	}

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodES256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return pubKey, nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("invalid token: %w", err)
	}

	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return errors.New("missing iat")
	}
	if time.Since(issuedAt.Time) > webhookMaxAge {
		return errors.New("token too old (>5m)")
	}

	wantHash, _ := claims["request_body_sha256"].(string)
	if wantHash == "" {
		return errors.New("missing request_body_sha256")
	}
	sum := sha256.Sum256(body)
	gotHex := strings.ToLower(hex.EncodeToString(sum[:]))
	if subtle.ConstantTimeCompare([]byte(gotHex), []byte(strings.ToLower(wantHash))) != 1 {
		return errors.New("body hash mismatch")
	}

	return nil
}

func verificationKey(ctx context.Context, client *plaidsdk.APIClient, kid string) (*ecdsa.PublicKey, error) {
	webhookKeyMu.Lock()
	cached := webhookKeyCache[kid]
	webhookKeyMu.Unlock()
	if cached != nil {
		return jwkToECDSAPublicKey(cached)
	}

	req := *plaidsdk.NewWebhookVerificationKeyGetRequest(kid)
	resp, _, err := client.PlaidApi.WebhookVerificationKeyGet(ctx).
		WebhookVerificationKeyGetRequest(req).
		Execute()
	if err != nil {
		return nil, err
	}

	key := resp.GetKey()
	if key.Kid == kid {
		webhookKeyMu.Lock()
		webhookKeyCache[kid] = &key
		webhookKeyMu.Unlock()
	}
	return jwkToECDSAPublicKey(&key)
}

func jwkToECDSAPublicKey(jwk *plaidsdk.JWKPublicKey) (*ecdsa.PublicKey, error) {
	if jwk == nil || jwk.X == "" || jwk.Y == "" || jwk.Kty != "EC" || jwk.Crv != "P-256" {
		return nil, errors.New("invalid/unsupported JWK")
	}
	xBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("decode x: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("decode y: %w", err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
