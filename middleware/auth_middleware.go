package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/upb/user-api/utils"
	"github.com/upb/user-api/verifier"
	"go.uber.org/zap"
)

// TokenVerifier defines the interface for verifying bearer tokens
type TokenVerifier interface {
	// Verify checks a raw token and returns its claims
	Verify(rawToken string) (verifier.Claims, error)
}

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// Rejection diagnostics. Informal, not part of any API contract.
const (
	ReasonNoHeader      = "no authorization header"
	ReasonHeaderNotText = "invalid authorization header"
	ReasonNoBearer      = "No Bearer"
	ReasonHeaderDecode  = "failed to decode header"
	ReasonNoKeyID       = "no valid kid"
	ReasonUnknownKey    = "no valid jwk"
	ReasonInvalidToken  = "invalid token"
)

// Decision is the outcome of gating one request: either forward with the
// verified claims, or reject with a status and a short diagnostic.
type Decision struct {
	Forward bool
	Status  int
	Reason  string
	Claims  verifier.Claims
	Err     error
}

func forward(claims verifier.Claims) Decision {
	return Decision{Forward: true, Claims: claims}
}

func reject(reason string, err error) Decision {
	return Decision{Status: http.StatusUnauthorized, Reason: reason, Err: err}
}

// AuthMiddleware gates protected routes behind bearer token verification
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// Decide runs the gate for one request. Checks are sequential and the
// first failure wins.
func (m *AuthMiddleware) Decide(r *http.Request) Decision {
	values, present := r.Header[authorizationHeader]
	if !present || len(values) == 0 {
		return reject(ReasonNoHeader, nil)
	}

	authorization := values[0]
	if !isHeaderText(authorization) {
		return reject(ReasonHeaderNotText, nil)
	}

	token, ok := strings.CutPrefix(authorization, bearerPrefix)
	if !ok {
		return reject(ReasonNoBearer, nil)
	}

	claims, err := m.verifier.Verify(token)
	if err != nil {
		return reject(reasonFor(err), err)
	}

	return forward(claims)
}

// RequireAuth is a middleware that requires a valid bearer token.
// Verified claims are attached to the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		decision := m.Decide(r)
		if !decision.Forward {
			m.logger.Warn("request rejected",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("reason", decision.Reason),
				zap.Error(decision.Err))
			_ = utils.WriteError(w, decision.Status, decision.Reason, nil)
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", decision.Claims.Subject()),
			zap.Any("claims", map[string]any(decision.Claims)))

		next.ServeHTTP(w, r.WithContext(WithClaims(ctx, decision.Claims)))
	})
}

// reasonFor maps verifier failures to diagnostics
func reasonFor(err error) string {
	switch {
	case errors.Is(err, verifier.ErrMalformedHeader):
		return ReasonHeaderDecode
	case errors.Is(err, verifier.ErrMissingKeyID):
		return ReasonNoKeyID
	case errors.Is(err, verifier.ErrUnknownKey):
		return ReasonUnknownKey
	default:
		return ReasonInvalidToken
	}
}

// isHeaderText reports whether v is visible ASCII (tab allowed)
func isHeaderText(v string) bool {
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\t' {
			continue
		}
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
