package entitlement

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gestaonuvem/entitlements/pkg/access"
	"github.com/gestaonuvem/entitlements/pkg/backend"
	"github.com/gestaonuvem/entitlements/pkg/payment"
	"github.com/gestaonuvem/entitlements/pkg/proration"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

const maxBodyBytes = 1 << 20

var (
	errUnsupportedMediaType = errors.New("unsupported media type")
	errInvalidJSON          = errors.New("invalid JSON")
	errInvalidParam         = errors.New("invalid parameter")
)

// jsonResponse is the envelope of every JSON reply.
type jsonResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Details  any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body jsonResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, jsonResponse{Data: v})
}

// respondError maps engine errors onto HTTP statuses. Upsell outcomes answer
// 402 so the UI routes them to the upgrade flow, never to an error banner.
func respondError(w http.ResponseWriter, err error, details any) {
	status, code := errorStatus(err)
	sev := Classify(err)

	msg := err.Error()
	if !IsUserFacing(err) && status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, jsonResponse{Error: &errorDetail{
		Code:     code,
		Message:  msg,
		Severity: sev.String(),
		Details:  details,
	}})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, "unsupported_media_type"
	case errors.Is(err, errInvalidJSON), errors.Is(err, errInvalidParam):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, payment.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, subscription.ErrNoSubscription), errors.Is(err, access.ErrNotLoaded):
		return http.StatusNotFound, "no_subscription"
	case Classify(err) == SeverityUpsell:
		return http.StatusPaymentRequired, "upgrade_required"
	case errors.Is(err, ErrInvalidTarget),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, proration.ErrUnknownPlan),
		errors.Is(err, proration.ErrUnknownCycle),
		errors.Is(err, payment.ErrInvalidRequest),
		errors.Is(err, payment.ErrUnknownChannel),
		errors.Is(err, payment.ErrInvalidIntent):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotADowngrade), errors.Is(err, proration.ErrNoChange):
		return http.StatusConflict, "conflict"
	case errors.Is(err, payment.ErrPaymentWindowExpired):
		return http.StatusGone, "payment_window_expired"
	case errors.Is(err, ErrNoActivePayment):
		return http.StatusNotFound, "no_active_payment"
	case errors.Is(err, backend.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, ErrServiceClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, backend.ErrRejected):
		return http.StatusUnprocessableEntity, "rejected"
	case errors.Is(err, backend.ErrGatewayFailure), errors.Is(err, payment.ErrReconcile):
		return http.StatusBadGateway, "gateway_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// bindJSON decodes a single strict JSON object from the request body.
func bindJSON(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("%w: expected application/json", errUnsupportedMediaType)
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errInvalidJSON)
		}
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON object", errInvalidJSON)
	}
	return nil
}
