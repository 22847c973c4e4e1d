// Package payment confirms subscription payments over three channels.
//
// Card checkouts are synchronous: the gateway either changes the existing
// card subscription in place, after which the local record is reconciled, or
// returns a hosted checkout URL for the caller to redirect to.
//
// PIX and boleto are asynchronous. The gateway issues an Intent with an expiry
// and a payload (QR code or barcode). A Watch then polls the intent status
// (every 5s for PIX, 10s for boleto) while a 1s countdown tracks the expiry
// locally. Both timers are task handles and stop together on the first of
// success, expiry, failure, Close or context cancellation. Closing a watch
// never cancels the intent on the gateway; Processor.Pending and
// Processor.Resume pick it up again while it is still payable.
//
// The success side effect (Reconciler.Reload followed by Observer.OnConfirmed)
// runs at most once per watch.
package payment
