package verifier

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/upb/user-api/jwks"
)

// PinnedAlgorithm is the only signature algorithm accepted, whatever the
// token header claims.
const PinnedAlgorithm = "RS256"

var (
	// ErrMalformedHeader is returned when the header segment cannot be decoded
	ErrMalformedHeader = errors.New("malformed token header")

	// ErrMissingKeyID is returned when the header carries no kid
	ErrMissingKeyID = errors.New("missing key id")

	// ErrUnknownKey is returned when no key in the set matches the kid
	ErrUnknownKey = errors.New("unknown signing key")

	// ErrInvalidKeyMaterial is returned when the matched key is not a usable RSA public key
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrSignatureInvalid is returned when the signature or algorithm check fails
	ErrSignatureInvalid = errors.New("invalid token signature")

	// ErrTokenExpired is returned when the exp claim is in the past
	ErrTokenExpired = errors.New("token expired")

	// ErrClaimsInvalid is returned when any other registered claim check fails
	ErrClaimsInvalid = errors.New("invalid token claims")
)

// KeySource supplies the key set used for verification
type KeySource interface {
	Current() *jwks.KeySet
}

// Header is the decoded JOSE header of a token
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid,omitempty"`
	Typ string `json:"typ,omitempty"`
}

// Claims is the decoded payload of a verified token
type Claims map[string]any

// Subject returns the sub claim, or an empty string
func (c Claims) Subject() string {
	sub, _ := c["sub"].(string)
	return sub
}

// Options tunes claim validation. Zero values disable the check.
type Options struct {
	Issuer   string
	Audience string
}

// Verifier checks bearer tokens against a key source
type Verifier struct {
	keys   KeySource
	parser *jwt.Parser
}

// New creates a Verifier. The signing method is pinned to RS256.
func New(keys KeySource, opts Options) *Verifier {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{PinnedAlgorithm}),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}

	return &Verifier{
		keys:   keys,
		parser: jwt.NewParser(parserOpts...),
	}
}

// DecodeHeader decodes the header segment of a compact token without
// verifying anything else.
func DecodeHeader(raw string) (*Header, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedHeader, len(parts))
	}

	data, err := jwt.NewParser().DecodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	var header Header
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	return &header, nil
}

// Verify runs the checks in order and stops at the first failure:
// header, kid, key lookup, key material, pinned signature, claims.
// exp and nbf are enforced only when present; a token without exp is accepted.
func (v *Verifier) Verify(raw string) (Claims, error) {
	header, err := DecodeHeader(raw)
	if err != nil {
		return nil, err
	}

	if header.Kid == "" {
		return nil, ErrMissingKeyID
	}

	key, ok := v.keys.Current().Find(header.Kid)
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", ErrUnknownKey, header.Kid)
	}

	publicKey, err := rsaPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: kid %q: %v", ErrInvalidKeyMaterial, header.Kid, err)
	}

	claims := jwt.MapClaims{}
	_, err = v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return publicKey, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return Claims(claims), nil
}

// rsaPublicKey materializes the public half of a JWK as an RSA public key.
// Private parameters published alongside n and e are ignored.
func rsaPublicKey(key jwk.Key) (*rsa.PublicKey, error) {
	public, err := key.PublicKey()
	if err != nil {
		return nil, err
	}

	var raw interface{}
	if err := public.Raw(&raw); err != nil {
		return nil, err
	}

	publicKey, ok := raw.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key type %s is not an RSA public key", key.KeyType())
	}
	if publicKey.N == nil || publicKey.N.Sign() <= 0 || publicKey.E <= 0 {
		return nil, errors.New("empty RSA modulus or exponent")
	}

	return publicKey, nil
}

// classify maps golang-jwt errors onto this package's sentinels
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fmt.Errorf("%w: %v", ErrClaimsInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
}
