// Package jwtest builds RSA signing keys, key sets and tokens for tests.
package jwtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/require"
)

// Signer is an RSA key pair published under a key ID
type Signer struct {
	Kid string
	Key *rsa.PrivateKey
}

// NewSigner generates a 2048-bit RSA key for kid
func NewSigner(t testing.TB, kid string) *Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &Signer{Kid: kid, Key: key}
}

// PublicJWK returns the public half as a JWK carrying the signer's kid
func (s *Signer) PublicJWK(t testing.TB) jwk.Key {
	t.Helper()
	key, err := jwk.FromRaw(&s.Key.PublicKey)
	require.NoError(t, err)
	if s.Kid != "" {
		require.NoError(t, key.Set(jwk.KeyIDKey, s.Kid))
	}
	require.NoError(t, key.Set(jwk.AlgorithmKey, "RS256"))
	require.NoError(t, key.Set(jwk.KeyUsageKey, "sig"))
	return key
}

// Sign issues an RS256 token with the signer's kid in the header
func (s *Signer) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	return SignToken(t, jwt.SigningMethodRS256, s.Key, s.Kid, claims)
}

// SignToken signs claims with an arbitrary method and key. An empty kid
// leaves the header without one.
func SignToken(t testing.TB, method jwt.SigningMethod, key any, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

// DefaultClaims returns a claim set valid for the next hour
func DefaultClaims(sub string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

// KeySetJSON serializes keys as a JWKS document
func KeySetJSON(t testing.TB, keys ...jwk.Key) []byte {
	t.Helper()
	set := jwk.NewSet()
	for _, key := range keys {
		require.NoError(t, set.AddKey(key))
	}
	data, err := json.Marshal(set)
	require.NoError(t, err)
	return data
}

// ServeJWKS starts a server answering the discovery path with body.
// The server is closed when the test ends.
func ServeJWKS(t testing.TB, body []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}
