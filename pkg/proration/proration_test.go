package proration_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/proration"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

var now = time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

func newCalculator() *proration.Calculator {
	return proration.New(plan.Default(), proration.WithClock(clockwork.NewFakeClockAt(now)))
}

func TestQuote_MidCycleUpgrade(t *testing.T) {
	t.Parallel()

	q, err := newCalculator().Quote(
		proration.Position{Plan: plan.TierIntermediario, Cycle: plan.CycleMonthly, PeriodEnd: now.Add(10 * 24 * time.Hour)},
		proration.Target{Plan: plan.TierAvancado, Cycle: plan.CycleMonthly},
	)
	require.NoError(t, err)

	assert.Equal(t, "2.33", q.DailyRate.StringFixed(2))
	assert.Equal(t, 10, q.DaysRemaining)
	assert.Equal(t, "23.30", q.UnusedCredit.StringFixed(2))
	assert.Equal(t, "86.60", q.AmountDue.StringFixed(2))
	assert.Equal(t, "109.90", q.NewPrice.StringFixed(2))
	assert.True(t, q.IsUpgrade)
	assert.True(t, q.Advisory)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), q.NewPeriodStart)
	assert.Equal(t, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), q.NewPeriodEnd)
	assert.Contains(t, q.String(), "R$ 86,60")
}

func TestQuote_FloorsPartialDays(t *testing.T) {
	t.Parallel()

	end := now.Add(30*24*time.Hour + 22*time.Hour)
	q, err := newCalculator().Quote(
		proration.Position{Plan: plan.TierBasico, Cycle: plan.CycleMonthly, PeriodEnd: end},
		proration.Target{Plan: plan.TierBasico, Cycle: plan.CycleYearly},
	)
	require.NoError(t, err)
	assert.Equal(t, 30, q.DaysRemaining)
	assert.False(t, q.IsUpgrade)
}

func TestQuote_DaysClampedToCycle(t *testing.T) {
	t.Parallel()

	q, err := newCalculator().Quote(
		proration.Position{Plan: plan.TierBasico, Cycle: plan.CycleMonthly, PeriodEnd: now.AddDate(0, 3, 0)},
		proration.Target{Plan: plan.TierAvancado, Cycle: plan.CycleMonthly},
	)
	require.NoError(t, err)
	assert.Equal(t, 30, q.DaysRemaining)
	assert.Equal(t, "39.90", q.UnusedCredit.StringFixed(2))
}

func TestQuote_PeriodAlreadyOver(t *testing.T) {
	t.Parallel()

	q, err := newCalculator().Quote(
		proration.Position{Plan: plan.TierAvancado, Cycle: plan.CycleMonthly, PeriodEnd: now.Add(-48 * time.Hour)},
		proration.Target{Plan: plan.TierIlimitado, Cycle: plan.CycleMonthly},
	)
	require.NoError(t, err)
	assert.Zero(t, q.DaysRemaining)
	assert.True(t, q.UnusedCredit.IsZero())
	assert.Equal(t, "199.90", q.AmountDue.StringFixed(2))
}

func TestQuote_QuarterlyCycle(t *testing.T) {
	t.Parallel()

	q, err := newCalculator().Quote(
		proration.Position{Plan: plan.TierIntermediario, Cycle: plan.CycleQuarterly, PeriodEnd: now.Add(45 * 24 * time.Hour)},
		proration.Target{Plan: plan.TierAvancado, Cycle: plan.CycleQuarterly},
	)
	require.NoError(t, err)

	// 199.22 / 90 * 45 = 99.61
	assert.Equal(t, 45, q.DaysRemaining)
	assert.Equal(t, "99.61", q.UnusedCredit.StringFixed(2))
	assert.Equal(t, "213.61", q.AmountDue.StringFixed(2))
	assert.Equal(t, now.AddDate(0, 0, 90).Truncate(24*time.Hour), q.NewPeriodEnd)
}

func TestQuote_NeverNegative(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	for _, from := range plan.Tiers() {
		for _, fromCycle := range plan.Cycles() {
			for _, to := range plan.Tiers() {
				for _, toCycle := range plan.Cycles() {
					if from == to && fromCycle == toCycle {
						continue
					}
					for _, daysLeft := range []int{-5, 0, 1, 29, 30, 31, 90, 400} {
						pos := proration.Position{
							Plan:      from,
							Cycle:     fromCycle,
							PeriodEnd: now.Add(time.Duration(daysLeft)*24*time.Hour + time.Hour),
						}
						q, err := calc.Quote(pos, proration.Target{Plan: to, Cycle: toCycle})
						require.NoError(t, err)

						assert.False(t, q.AmountDue.IsNegative(), "%s/%s -> %s/%s", from, fromCycle, to, toCycle)
						assert.GreaterOrEqual(t, q.DaysRemaining, 0)
						assert.LessOrEqual(t, q.DaysRemaining, fromCycle.Days())
					}
				}
			}
		}
	}
}

func TestQuote_Errors(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	end := now.Add(24 * time.Hour)

	_, err := calc.Quote(
		proration.Position{Plan: "gold", Cycle: plan.CycleMonthly, PeriodEnd: end},
		proration.Target{Plan: plan.TierBasico, Cycle: plan.CycleMonthly},
	)
	require.ErrorIs(t, err, proration.ErrUnknownPlan)

	_, err = calc.Quote(
		proration.Position{Plan: plan.TierBasico, Cycle: plan.CycleMonthly, PeriodEnd: end},
		proration.Target{Plan: "gold", Cycle: plan.CycleMonthly},
	)
	require.ErrorIs(t, err, proration.ErrUnknownPlan)

	_, err = calc.Quote(
		proration.Position{Plan: plan.TierBasico, Cycle: "weekly", PeriodEnd: end},
		proration.Target{Plan: plan.TierAvancado, Cycle: plan.CycleMonthly},
	)
	require.ErrorIs(t, err, proration.ErrUnknownCycle)

	_, err = calc.Quote(
		proration.Position{Plan: plan.TierBasico, Cycle: plan.CycleMonthly, PeriodEnd: end},
		proration.Target{Plan: plan.TierBasico, Cycle: plan.CycleMonthly},
	)
	require.ErrorIs(t, err, proration.ErrNoChange)

	_, err = calc.QuoteRecord(nil, proration.Target{Plan: plan.TierBasico, Cycle: plan.CycleMonthly})
	require.ErrorIs(t, err, proration.ErrNoRecord)
}

func TestQuoteRecord(t *testing.T) {
	t.Parallel()

	rec := &subscription.Record{
		PlanID:           plan.TierIntermediario,
		BillingCycle:     plan.CycleMonthly,
		Status:           subscription.StatusActive,
		CurrentPeriodEnd: now.Add(10*24*time.Hour + 3*time.Hour),
	}
	q, err := newCalculator().QuoteRecord(rec, proration.Target{Plan: plan.TierAvancado, Cycle: plan.CycleMonthly})
	require.NoError(t, err)
	assert.Equal(t, "86.60", q.AmountDue.StringFixed(2))
}

func TestQuoteRecord_TrialEarnsNoCredit(t *testing.T) {
	t.Parallel()

	trialEnd := now.Add(10 * 24 * time.Hour)
	rec := &subscription.Record{
		PlanID:           plan.TierIlimitado,
		BillingCycle:     plan.CycleMonthly,
		Status:           subscription.StatusTrial,
		CurrentPeriodEnd: trialEnd,
		TrialEndDate:     &trialEnd,
	}
	calc := newCalculator()

	t.Run("lower tier is charged in full", func(t *testing.T) {
		t.Parallel()
		q, err := calc.QuoteRecord(rec, proration.Target{Plan: plan.TierBasico, Cycle: plan.CycleMonthly})
		require.NoError(t, err)
		assert.Zero(t, q.DaysRemaining)
		assert.True(t, q.UnusedCredit.IsZero())
		assert.Equal(t, "39.90", q.AmountDue.StringFixed(2))
		assert.False(t, q.IsUpgrade)
	})

	t.Run("trialed tier can be bought", func(t *testing.T) {
		t.Parallel()
		q, err := calc.QuoteRecord(rec, proration.Target{Plan: plan.TierIlimitado, Cycle: plan.CycleMonthly})
		require.NoError(t, err)
		assert.Equal(t, "199.90", q.AmountDue.StringFixed(2))
	})
}

func TestDaysRemaining(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, proration.DaysRemaining(now, time.Time{}, 30))
	assert.Equal(t, 0, proration.DaysRemaining(now, now.Add(23*time.Hour), 30))
	assert.Equal(t, 1, proration.DaysRemaining(now, now.Add(47*time.Hour), 30))
	assert.Equal(t, 365, proration.DaysRemaining(now, now.AddDate(2, 0, 0), 365))
}
