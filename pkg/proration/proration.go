package proration

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/gestaonuvem/entitlements/pkg/logger"
	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

const day = 24 * time.Hour

// Position is the part of the current subscription that proration depends on.
// A trial position has paid for nothing, so it earns no credit.
type Position struct {
	Plan      plan.Tier
	Cycle     plan.Cycle
	PeriodEnd time.Time
	Trial     bool
}

// PositionOf extracts the proration inputs from a record.
func PositionOf(rec *subscription.Record) (Position, error) {
	if rec == nil {
		return Position{}, ErrNoRecord
	}
	if rec.IsTrialing() {
		return Position{
			Plan:      plan.TierIlimitado,
			Cycle:     rec.BillingCycle,
			PeriodEnd: rec.CurrentPeriodEnd,
			Trial:     true,
		}, nil
	}
	return Position{
		Plan:      rec.PlanID,
		Cycle:     rec.BillingCycle,
		PeriodEnd: rec.CurrentPeriodEnd,
	}, nil
}

// Target is the requested plan and cycle.
type Target struct {
	Plan  plan.Tier  `json:"planId"`
	Cycle plan.Cycle `json:"billingCycle"`
}

// Quote is a preview of a plan change. It is advisory only: the payment gateway
// computes the authoritative charge.
type Quote struct {
	From           Position        `json:"-"`
	To             Target          `json:"target"`
	DailyRate      decimal.Decimal `json:"dailyRate"`
	DaysRemaining  int             `json:"daysRemaining"`
	UnusedCredit   decimal.Decimal `json:"unusedCredit"`
	NewPrice       decimal.Decimal `json:"newPrice"`
	AmountDue      decimal.Decimal `json:"amountDue"`
	NewPeriodStart time.Time       `json:"newPeriodStart"`
	NewPeriodEnd   time.Time       `json:"newPeriodEnd"`
	IsUpgrade      bool            `json:"isUpgrade"`
	Advisory       bool            `json:"advisory"`
}

// String renders a one-line BRL summary of the quote.
func (q Quote) String() string {
	return fmt.Sprintf("%s/%s: %s - credit %s (%d days) = %s due, new period until %s",
		q.To.Plan, q.To.Cycle,
		plan.FormatBRL(q.NewPrice),
		plan.FormatBRL(q.UnusedCredit),
		q.DaysRemaining,
		plan.FormatBRL(q.AmountDue),
		q.NewPeriodEnd.Format("02/01/2006"),
	)
}

// Calculator prices mid-period plan changes.
type Calculator struct {
	catalog *plan.Catalog
	clock   clockwork.Clock
	logger  *slog.Logger
}

// Option configures a Calculator.
type Option func(*Calculator)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Calculator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Calculator. Panics if catalog is nil.
func New(catalog *plan.Catalog, opts ...Option) *Calculator {
	if catalog == nil {
		panic("proration: plan catalog is required")
	}
	c := &Calculator{
		catalog: catalog,
		clock:   clockwork.NewRealClock(),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote computes the amount due to move from current to target today.
//
// Remaining days are floored, so partial days are never credited, and clamped
// to the length of the current cycle. The credit comes from the unrounded
// daily rate. The amount due never goes below zero and there is no refund path.
// The new period always starts today. A trial position is charged the full
// target price and may convert to any plan, including the one it trials.
func (c *Calculator) Quote(current Position, target Target) (Quote, error) {
	from, ok := c.catalog.Lookup(current.Plan)
	if !ok {
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownPlan, current.Plan)
	}
	to, ok := c.catalog.Lookup(target.Plan)
	if !ok {
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownPlan, target.Plan)
	}
	if !current.Trial && !current.Cycle.Valid() {
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownCycle, current.Cycle)
	}
	if !target.Cycle.Valid() {
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownCycle, target.Cycle)
	}
	if !current.Trial && current.Plan == target.Plan && current.Cycle == target.Cycle {
		return Quote{}, ErrNoChange
	}

	now := c.clock.Now()
	days := 0
	dailyRate := decimal.Zero
	if !current.Trial {
		cycleDays := current.Cycle.Days()
		days = DaysRemaining(now, current.PeriodEnd, cycleDays)
		dailyRate = from.PriceFor(current.Cycle).Div(decimal.NewFromInt(int64(cycleDays)))
	}
	credit := dailyRate.Mul(decimal.NewFromInt(int64(days)))
	newPrice := to.PriceFor(target.Cycle)
	due := decimal.Max(decimal.Zero, newPrice.Sub(credit))

	start := startOfDay(now)
	q := Quote{
		From:           current,
		To:             target,
		DailyRate:      dailyRate.Round(2),
		DaysRemaining:  days,
		UnusedCredit:   credit.Round(2),
		NewPrice:       newPrice,
		AmountDue:      due.Round(2),
		NewPeriodStart: start,
		NewPeriodEnd:   start.AddDate(0, 0, target.Cycle.Days()),
		IsUpgrade:      c.catalog.IsUpgrade(current.Plan, target.Plan),
		Advisory:       true,
	}

	c.logger.Debug("plan change quoted",
		logger.Plan(target.Plan),
		logger.Cycle(target.Cycle),
		slog.Int("days_remaining", days),
		logger.Amount(q.AmountDue),
	)

	return q, nil
}

// QuoteRecord is Quote with the position taken from rec.
func (c *Calculator) QuoteRecord(rec *subscription.Record, target Target) (Quote, error) {
	pos, err := PositionOf(rec)
	if err != nil {
		return Quote{}, err
	}
	return c.Quote(pos, target)
}

// DaysRemaining returns the whole days left until periodEnd, clamped to [0, cycleDays].
func DaysRemaining(now, periodEnd time.Time, cycleDays int) int {
	if periodEnd.IsZero() || !periodEnd.After(now) {
		return 0
	}
	days := int(math.Floor(float64(periodEnd.Sub(now)) / float64(day)))
	return max(0, min(days, cycleDays))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
