package entitlement

import (
	"context"

	"github.com/gestaonuvem/entitlements/pkg/payment"
	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

// Backend is the backend of record. *backend.Client implements it.
type Backend interface {
	payment.Gateway

	Current(ctx context.Context) (*subscription.Record, error)
	Initialize(ctx context.Context) (*subscription.Record, error)
	IncrementUsage(ctx context.Context, res plan.Resource, amount float64) (*subscription.Record, error)
	Downgrade(ctx context.Context, tier plan.Tier, cycle plan.Cycle) error
}
