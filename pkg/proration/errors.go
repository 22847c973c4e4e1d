package proration

import "errors"

var (
	ErrUnknownPlan  = errors.New("proration: unknown plan")
	ErrUnknownCycle = errors.New("proration: unknown billing cycle")
	ErrNoChange     = errors.New("proration: target equals current plan and cycle")
	ErrNoRecord     = errors.New("proration: no subscription record")
)
