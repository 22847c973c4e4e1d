package requestid

import (
	"context"

	"github.com/gestaonuvem/entitlements/pkg/logger"
)

// WithContext stores the request ID where the logger and the backend client read it.
func WithContext(ctx context.Context, requestID string) context.Context {
	return logger.WithRequestID(ctx, requestID)
}

// FromContext returns the request ID, or "" when none is set.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := logger.RequestIDFromContext(ctx)
	return id
}
