// Package requestid propagates an X-Request-ID through inbound HTTP requests.
//
// The ID lives in the logger context, so log records carry it as request_id
// and the backend client forwards it on outbound calls.
package requestid
