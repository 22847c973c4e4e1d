package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

const (
	pathCurrent        = "subscription/current"
	pathInitialize     = "subscription/initialize"
	pathIncrementUsage = "subscription/increment-usage"
	pathDowngrade      = "subscription/downgrade"
)

// Current fetches the tenant's subscription record. A tenant without one
// yields ErrNotProvisioned.
func (c *Client) Current(ctx context.Context) (*subscription.Record, error) {
	var rec subscription.Record
	if err := c.call(ctx, http.MethodGet, pathCurrent, nil, &rec, true); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, errors.Join(ErrNotProvisioned, err)
		}
		return nil, err
	}
	if rec.PlanID == "" && rec.Status == "" {
		return nil, ErrNotProvisioned
	}
	return &rec, nil
}

// Initialize provisions the default trial subscription.
func (c *Client) Initialize(ctx context.Context) (*subscription.Record, error) {
	var rec subscription.Record
	if err := c.call(ctx, http.MethodPost, pathInitialize, struct{}{}, &rec, false); err != nil {
		return nil, err
	}
	return &rec, nil
}

type incrementUsageRequest struct {
	Type   plan.Resource `json:"type"`
	Amount float64       `json:"amount"`
}

// IncrementUsage bumps one usage counter and returns the updated record.
func (c *Client) IncrementUsage(ctx context.Context, res plan.Resource, amount float64) (*subscription.Record, error) {
	var rec subscription.Record
	req := incrementUsageRequest{Type: res, Amount: amount}
	if err := c.call(ctx, http.MethodPost, pathIncrementUsage, req, &rec, false); err != nil {
		return nil, err
	}
	return &rec, nil
}

type downgradeRequest struct {
	NewPlanID    plan.Tier  `json:"newPlanId"`
	BillingCycle plan.Cycle `json:"billingCycle"`
}

type downgradeResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Downgrade asks the backend to schedule a move to a lower tier at the end of
// the current period. The record is not changed immediately.
func (c *Client) Downgrade(ctx context.Context, tier plan.Tier, cycle plan.Cycle) error {
	var resp downgradeResponse
	req := downgradeRequest{NewPlanID: tier, BillingCycle: cycle}
	if err := c.call(ctx, http.MethodPost, pathDowngrade, req, &resp, false); err != nil {
		return err
	}
	if resp.Success != nil && !*resp.Success {
		if resp.Message == "" {
			resp.Message = "downgrade refused"
		}
		return fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}
	return nil
}
