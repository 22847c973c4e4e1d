package entitlement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/gestaonuvem/entitlements/pkg/access"
	"github.com/gestaonuvem/entitlements/pkg/backend"
	"github.com/gestaonuvem/entitlements/pkg/logger"
	"github.com/gestaonuvem/entitlements/pkg/payment"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

// Severity tells the caller how to surface an error.
type Severity int

const (
	// SeverityNone is a nil error.
	SeverityNone Severity = iota
	// SeverityUpsell is an expected limit or feature outcome. Route it to the upgrade flow.
	SeverityUpsell
	// SeverityUser is fixable by the tenant: bad input, an expired payment window, a blocked view.
	SeverityUser
	// SeverityTransient is a recoverable gateway failure. Retry later; local state is intact.
	SeverityTransient
	// SeverityAlert needs attention: lost credentials or a backend that stays down.
	SeverityAlert
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityUpsell:
		return "upsell"
	case SeverityUser:
		return "user"
	case SeverityTransient:
		return "transient"
	case SeverityAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// Classify maps an error from any part of the engine onto a Severity.
func Classify(err error) Severity {
	switch {
	case err == nil:
		return SeverityNone
	case errors.Is(err, subscription.ErrLimitReached),
		errors.Is(err, subscription.ErrFeatureGated),
		errors.Is(err, subscription.ErrFileTooLarge),
		errors.Is(err, subscription.ErrStorageExhausted),
		errors.Is(err, access.ErrModuleLocked):
		return SeverityUpsell
	case errors.Is(err, backend.ErrUnauthenticated):
		return SeverityAlert
	case errors.Is(err, gobreaker.ErrOpenState):
		return SeverityAlert
	case errors.Is(err, backend.ErrGatewayFailure),
		errors.Is(err, context.DeadlineExceeded):
		return SeverityTransient
	case errors.Is(err, payment.ErrReconcile):
		return SeverityTransient
	case errors.Is(err, context.Canceled):
		return SeverityNone
	default:
		return SeverityUser
	}
}

// IsUserFacing reports whether err is safe to show verbatim.
func IsUserFacing(err error) bool {
	switch Classify(err) {
	case SeverityUpsell, SeverityUser:
		return true
	default:
		return false
	}
}

// report logs err at the level its severity deserves. Expected outcomes never
// reach the error level.
func (s *Service) report(ctx context.Context, op string, err error) {
	sev := Classify(err)
	level := slog.LevelDebug
	switch sev {
	case SeverityNone:
		return
	case SeverityTransient:
		level = slog.LevelWarn
	case SeverityAlert:
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, op+" failed",
		slog.String("severity", sev.String()),
		logger.Error(err),
	)
}
