package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TenantID records the tenant identifier under the key "tenant_id".
// Empty IDs produce an empty Attr.
func TenantID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("tenant_id", id)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// IntentID records a payment intent identifier under the key "intent_id".
func IntentID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("intent_id", id)
}

// Channel records the payment channel under the key "channel".
func Channel[T ~string](ch T) slog.Attr {
	return slog.String("channel", string(ch))
}

// Plan records a plan tier under the key "plan".
func Plan[T ~string](tier T) slog.Attr {
	return slog.String("plan", string(tier))
}

// Cycle records a billing cycle under the key "billing_cycle".
func Cycle[T ~string](c T) slog.Attr {
	return slog.String("billing_cycle", string(c))
}

// Resource records a quota resource under the key "resource".
func Resource[T ~string](r T) slog.Attr {
	return slog.String("resource", string(r))
}

// Amount records a monetary amount under the key "amount" using its string form.
func Amount(v interface{ String() string }) slog.Attr {
	return slog.String("amount", v.String())
}

// Status records a status value under the key "status".
func Status[T ~string](s T) slog.Attr {
	return slog.String("status", string(s))
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
