package payment

import "context"

// Gateway issues and tracks payments with the payment provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CardOutcome, error)
	CreatePixPayment(ctx context.Context, req IntentRequest) (Intent, error)
	CreateBoletoPayment(ctx context.Context, req IntentRequest) (Intent, error)
	CheckPaymentStatus(ctx context.Context, intentID string) (IntentStatus, error)
}

// Reconciler refreshes the local subscription record after a confirmed payment.
type Reconciler interface {
	Reload(ctx context.Context) error
}

// ReconcilerFunc adapts a function to Reconciler.
type ReconcilerFunc func(ctx context.Context) error

func (f ReconcilerFunc) Reload(ctx context.Context) error { return f(ctx) }
