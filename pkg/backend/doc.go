// Package backend is the REST client for the subscription backend of record.
//
// Requests carry a bearer token from an oauth2.TokenSource and an X-Request-ID
// header (taken from the context or generated). All calls share one
// gobreaker circuit breaker. Reads (subscription/current and
// stripe/check-payment-status) are retried with exponential backoff; calls
// that create or change state are sent once.
//
// Failures map onto sentinels: ErrNotProvisioned for a tenant without a
// record, ErrUnauthenticated for token problems and 401/403, ErrGatewayFailure
// for 5xx, transport errors and an open breaker. Non-2xx responses are
// *StatusError values.
package backend
