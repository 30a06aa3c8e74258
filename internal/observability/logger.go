// Package observability holds logging helpers shared by the HTTP layer.
package observability

import (
	"context"

	"github.com/upb/user-api/middleware"
	"go.uber.org/zap"
)

// RequestLogger returns base annotated with the request ID and, behind
// the auth gate, the caller's subject.
func RequestLogger(ctx context.Context, base *zap.Logger) *zap.Logger {
	fields := make([]zap.Field, 0, 2)
	if id := middleware.GetRequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if sub := middleware.GetClaimsFromContext(ctx).Subject(); sub != "" {
		fields = append(fields, zap.String("sub", sub))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
