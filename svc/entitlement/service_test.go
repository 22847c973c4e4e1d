package entitlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gestaonuvem/entitlements/pkg/access"
	"github.com/gestaonuvem/entitlements/pkg/backend"
	"github.com/gestaonuvem/entitlements/pkg/cache"
	"github.com/gestaonuvem/entitlements/pkg/logger"
	"github.com/gestaonuvem/entitlements/pkg/payment"
	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/proration"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
	"github.com/gestaonuvem/entitlements/svc/entitlement"
)

var start = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Current(ctx context.Context) (*subscription.Record, error) {
	args := m.Called(ctx)
	rec, _ := args.Get(0).(*subscription.Record)
	return rec, args.Error(1)
}

func (m *mockBackend) Initialize(ctx context.Context) (*subscription.Record, error) {
	args := m.Called(ctx)
	rec, _ := args.Get(0).(*subscription.Record)
	return rec, args.Error(1)
}

func (m *mockBackend) IncrementUsage(ctx context.Context, res plan.Resource, amount float64) (*subscription.Record, error) {
	args := m.Called(ctx, res, amount)
	rec, _ := args.Get(0).(*subscription.Record)
	return rec, args.Error(1)
}

func (m *mockBackend) Downgrade(ctx context.Context, tier plan.Tier, cycle plan.Cycle) error {
	return m.Called(ctx, tier, cycle).Error(0)
}

func (m *mockBackend) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (payment.CardOutcome, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.CardOutcome), args.Error(1)
}

func (m *mockBackend) CreatePixPayment(ctx context.Context, req payment.IntentRequest) (payment.Intent, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Intent), args.Error(1)
}

func (m *mockBackend) CreateBoletoPayment(ctx context.Context, req payment.IntentRequest) (payment.Intent, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Intent), args.Error(1)
}

func (m *mockBackend) CheckPaymentStatus(ctx context.Context, id string) (payment.IntentStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(payment.IntentStatus), args.Error(1)
}

var _ entitlement.Backend = (*mockBackend)(nil)

func activeRecord(tier plan.Tier) *subscription.Record {
	return &subscription.Record{
		ID:                 "sub_1",
		TenantID:           "tenant_1",
		PlanID:             tier,
		Status:             subscription.StatusActive,
		BillingCycle:       plan.CycleMonthly,
		StartDate:          start.AddDate(0, -3, 0),
		CurrentPeriodStart: start.AddDate(0, 0, -20),
		CurrentPeriodEnd:   start.AddDate(0, 0, 10),
		IsRecurring:        true,
	}
}

func trialRecord(trialEnd time.Time) *subscription.Record {
	rec := activeRecord(plan.TierIlimitado)
	rec.Status = subscription.StatusTrial
	rec.IsRecurring = false
	ts, te := trialEnd.AddDate(0, 0, -14), trialEnd
	rec.TrialStartDate, rec.TrialEndDate = &ts, &te
	return rec
}

func newService(t *testing.T, b *mockBackend, opts ...entitlement.Option) (*entitlement.Service, clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(start)
	opts = append([]entitlement.Option{
		entitlement.WithClock(clock),
		entitlement.WithLogger(logger.Discard()),
	}, opts...)
	svc := entitlement.New(plan.Default(), b, opts...)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, clock
}

func loaded(t *testing.T, rec *subscription.Record, opts ...entitlement.Option) (*entitlement.Service, *mockBackend, clockwork.FakeClock) {
	t.Helper()
	b := &mockBackend{}
	b.On("Current", mock.Anything).Return(rec, nil).Once()
	svc, clock := newService(t, b, opts...)
	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	return svc, b, clock
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestNewPanicsWithoutDependencies(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { entitlement.New(nil, &mockBackend{}) })
	assert.Panics(t, func() { entitlement.New(plan.Default(), nil) })
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("provisions a trial when none exists", func(t *testing.T) {
		t.Parallel()
		b := &mockBackend{}
		b.On("Current", mock.Anything).Return(nil, errors.Join(backend.ErrNotProvisioned, errors.New("404"))).Once()
		b.On("Initialize", mock.Anything).Return(trialRecord(start.AddDate(0, 0, 14)), nil).Once()
		svc, _ := newService(t, b)

		require.False(t, svc.Loaded())
		assert.Equal(t, subscription.KindNoSubscription, svc.CanCreateSalesOrder().Kind)

		rec, err := svc.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusTrial, rec.Status)
		assert.True(t, svc.Loaded())

		p, ok := svc.EffectivePlan()
		require.True(t, ok)
		assert.Equal(t, plan.TierIlimitado, p.ID)
		b.AssertExpectations(t)
	})

	t.Run("unauthenticated is surfaced", func(t *testing.T) {
		t.Parallel()
		b := &mockBackend{}
		b.On("Current", mock.Anything).Return(nil, backend.ErrUnauthenticated).Once()
		svc, _ := newService(t, b)

		_, err := svc.Load(context.Background())
		require.ErrorIs(t, err, backend.ErrUnauthenticated)
		assert.Equal(t, entitlement.SeverityAlert, entitlement.Classify(err))
		assert.False(t, svc.Loaded())
		b.AssertNotCalled(t, "Initialize", mock.Anything)
	})

	t.Run("empty response", func(t *testing.T) {
		t.Parallel()
		b := &mockBackend{}
		b.On("Current", mock.Anything).Return(nil, nil).Once()
		svc, _ := newService(t, b)

		_, err := svc.Load(context.Background())
		require.ErrorIs(t, err, entitlement.ErrEmptyRecord)
	})
}

func TestCachedLoads(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(start)
	store := cache.NewMemory[*subscription.Record](8, clock)
	b := &mockBackend{}
	b.On("Current", mock.Anything).Return(activeRecord(plan.TierBasico), nil).Once()
	svc := entitlement.New(plan.Default(), b,
		entitlement.WithClock(clock),
		entitlement.WithCache(store, time.Minute),
		entitlement.WithTenantID("tenant_1"),
	)
	t.Cleanup(func() { _ = svc.Close() })
	ctx := context.Background()

	_, err := svc.Load(ctx)
	require.NoError(t, err)
	_, err = svc.Load(ctx)
	require.NoError(t, err)
	b.AssertNumberOfCalls(t, "Current", 1)

	upgraded := activeRecord(plan.TierAvancado)
	b.On("Current", mock.Anything).Return(upgraded, nil).Once()
	rec, err := svc.Revalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, plan.TierAvancado, rec.PlanID)

	cached, ok, err := store.Get(ctx, "subscription:tenant_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plan.TierAvancado, cached.PlanID)

	b.On("Current", mock.Anything).Return(activeRecord(plan.TierIlimitado), nil).Once()
	rec, err = svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, plan.TierIlimitado, rec.PlanID)

	clock.Advance(2 * time.Minute)
	b.On("Current", mock.Anything).Return(activeRecord(plan.TierBasico), nil).Once()
	rec, err = svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, plan.TierBasico, rec.PlanID, "expired cache entries are refetched")

	require.NoError(t, svc.SignOut(ctx))
	_, ok, _ = store.Get(ctx, "subscription:tenant_1")
	assert.False(t, ok)
	assert.Nil(t, svc.Record())
}

func TestLoadingFlag(t *testing.T) {
	t.Parallel()

	b := &mockBackend{}
	svc, _ := newService(t, b)

	entered := make(chan struct{})
	release := make(chan struct{})
	b.On("Current", mock.Anything).Run(func(mock.Arguments) {
		entered <- struct{}{}
		<-release
	}).Return(activeRecord(plan.TierBasico), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Load(context.Background())
	}()
	receive(t, entered)
	assert.True(t, svc.Loading())
	release <- struct{}{}
	receive(t, done)
	assert.False(t, svc.Loading())

	done = make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Revalidate(context.Background())
	}()
	receive(t, entered)
	assert.False(t, svc.Loading(), "revalidation is silent")
	release <- struct{}{}
	receive(t, done)
}

func TestLastCompletedResponseWins(t *testing.T) {
	t.Parallel()

	b := &mockBackend{}
	svc, _ := newService(t, b)

	entered := make(chan struct{}, 2)
	first, second := make(chan struct{}), make(chan struct{})
	b.On("Current", mock.Anything).Run(func(mock.Arguments) {
		entered <- struct{}{}
		<-first
	}).Return(activeRecord(plan.TierBasico), nil).Once()
	b.On("Current", mock.Anything).Run(func(mock.Arguments) {
		entered <- struct{}{}
		<-second
	}).Return(activeRecord(plan.TierAvancado), nil).Once()

	ctx := context.Background()
	done := make(chan struct{}, 2)
	go func() { _, _ = svc.Revalidate(ctx); done <- struct{}{} }()
	receive(t, entered)
	go func() { _, _ = svc.Revalidate(ctx); done <- struct{}{} }()
	receive(t, entered)

	close(second)
	receive(t, done)
	assert.Equal(t, plan.TierAvancado, svc.Record().PlanID)

	close(first)
	receive(t, done)
	assert.Equal(t, plan.TierBasico, svc.Record().PlanID)
}

func TestSignOutDiscardsInflightFetch(t *testing.T) {
	t.Parallel()

	b := &mockBackend{}
	svc, _ := newService(t, b)

	entered, release := make(chan struct{}), make(chan struct{})
	b.On("Current", mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(activeRecord(plan.TierBasico), nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Revalidate(context.Background())
		done <- err
	}()
	receive(t, entered)
	require.NoError(t, svc.SignOut(context.Background()))
	close(release)

	require.NoError(t, receive(t, done))
	assert.Nil(t, svc.Record())
	assert.False(t, svc.Loaded())
}

func TestEntitlementFacade(t *testing.T) {
	t.Parallel()

	rec := activeRecord(plan.TierBasico)
	rec.Usage.SalesOrders = 100
	rec.Usage.StorageMB = 1020
	svc, _, _ := loaded(t, rec)

	assert.False(t, svc.CanCreateSalesOrder().Allowed)
	assert.True(t, svc.CanCreatePurchaseOrder().Allowed)
	assert.Equal(t, subscription.KindFeatureGated, svc.CanCreateInvoice().Kind)
	assert.True(t, svc.CanCreateProduct().Allowed)
	assert.True(t, svc.CanCreateCustomer().Allowed)
	assert.True(t, svc.CanCreateSupplier().Allowed)
	assert.True(t, svc.CanCreateUser().Allowed)
	assert.True(t, svc.CanCreateTransaction().Allowed)
	assert.Equal(t, subscription.KindFileTooLarge, svc.CanUploadFile(6).Kind)
	assert.Equal(t, subscription.KindStorageExhausted, svc.CanUploadFile(5).Kind)
	assert.False(t, svc.HasFeature(plan.FeatureAPIAccess).Allowed)

	overview := svc.UsageOverview()
	assert.InDelta(t, 100, overview[plan.ResourceSalesOrders].Percentage, 0.001)
	assert.True(t, overview[plan.ResourceSalesOrders].NearLimit)
	assert.NotEmpty(t, svc.UsageWarnings())
}

func TestRequirePublishesUpgradePrompt(t *testing.T) {
	t.Parallel()

	rec := activeRecord(plan.TierBasico)
	rec.Usage.SalesOrders = 100
	svc, _, _ := loaded(t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	prompts := svc.Subscribe(ctx)

	err := svc.Require(plan.ResourceSalesOrders)
	require.ErrorIs(t, err, subscription.ErrLimitReached)
	assert.Equal(t, entitlement.SeverityUpsell, entitlement.Classify(err))

	p := receive(t, prompts)
	assert.Equal(t, plan.ResourceSalesOrders, p.Resource)
	assert.Equal(t, plan.TierBasico, p.CurrentPlan)
	assert.Equal(t, plan.TierIntermediario, p.RequiredPlan)
	assert.Equal(t, start, p.At)

	require.ErrorIs(t, svc.RequireFeature(plan.FeatureFiscalModule), subscription.ErrFeatureGated)
	p = receive(t, prompts)
	assert.Equal(t, plan.FeatureFiscalModule, p.Feature)
	assert.Equal(t, plan.TierIntermediario, p.RequiredPlan)

	require.ErrorIs(t, svc.RequireModule(access.ViewCashFlow), access.ErrModuleLocked)
	p = receive(t, prompts)
	assert.Equal(t, plan.TierAvancado, p.RequiredPlan)

	require.NoError(t, svc.Require(plan.ResourceProducts))
	select {
	case p := <-prompts:
		t.Fatalf("unexpected prompt for an allowed check: %+v", p)
	default:
	}
}

func TestTriggerUpgradeDefaultsToNextTier(t *testing.T) {
	t.Parallel()

	svc, _, _ := loaded(t, activeRecord(plan.TierIntermediario))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	prompts := svc.Subscribe(ctx)

	out := svc.TriggerUpgrade("need more warehouses", "")
	assert.Equal(t, plan.TierAvancado, out.RequiredPlan)
	assert.Equal(t, out, receive(t, prompts))

	out = svc.TriggerUpgrade("white label", plan.TierIlimitado)
	assert.Equal(t, plan.TierIlimitado, out.RequiredPlan)
}

func TestCheckAccess(t *testing.T) {
	t.Parallel()

	svc, _, _ := loaded(t, trialRecord(start.AddDate(0, 0, -1)))

	assert.Equal(t, access.StateBlockedTrialExpired, svc.CheckAccess("inventory").State)
	assert.Equal(t, access.StateAllowed, svc.CheckAccess(access.ViewBilling).State)

	m := svc.CheckModuleAccess(access.ViewFiscal)
	assert.False(t, m.Allowed)
	assert.False(t, m.RequiresUpgrade, "a blocked tenant is not offered an upgrade for a module")
}

func TestCheckModuleAccess(t *testing.T) {
	t.Parallel()

	svc, _, _ := loaded(t, activeRecord(plan.TierIntermediario))

	m := svc.CheckModuleAccess(access.ViewAccountsPayable)
	assert.False(t, m.Allowed)
	assert.True(t, m.RequiresUpgrade)
	assert.Equal(t, plan.TierAvancado, m.RequiredPlan)

	assert.True(t, svc.CheckModuleAccess(access.ViewFiscal).Allowed)
}

func TestQuotePlanChange(t *testing.T) {
	t.Parallel()

	b := &mockBackend{}
	svc, _ := newService(t, b)
	_, err := svc.QuotePlanChange(proration.Target{Plan: plan.TierAvancado, Cycle: plan.CycleMonthly})
	require.ErrorIs(t, err, subscription.ErrNoSubscription)

	svc, _, _ = loaded(t, activeRecord(plan.TierIntermediario))
	q, err := svc.QuotePlanChange(proration.Target{Plan: plan.TierAvancado, Cycle: plan.CycleMonthly})
	require.NoError(t, err)
	assert.Equal(t, 10, q.DaysRemaining)
	assert.True(t, q.UnusedCredit.Equal(decimal.RequireFromString("23.30")), q.UnusedCredit.String())
	assert.True(t, q.AmountDue.Equal(decimal.RequireFromString("86.60")), q.AmountDue.String())
	assert.True(t, q.IsUpgrade)
}

func TestQuotePlanChangeDuringTrial(t *testing.T) {
	t.Parallel()

	svc, _, _ := loaded(t, trialRecord(start.AddDate(0, 0, 10)))
	q, err := svc.QuotePlanChange(proration.Target{Plan: plan.TierIntermediario, Cycle: plan.CycleMonthly})
	require.NoError(t, err)
	assert.Zero(t, q.DaysRemaining)
	assert.True(t, q.UnusedCredit.IsZero(), q.UnusedCredit.String())
	assert.True(t, q.AmountDue.Equal(decimal.RequireFromString("69.90")), q.AmountDue.String())
}

func TestIncrementUsage(t *testing.T) {
	t.Parallel()

	svc, b, _ := loaded(t, activeRecord(plan.TierBasico))

	_, err := svc.IncrementUsage(context.Background(), plan.ResourceSalesOrders, 0)
	require.ErrorIs(t, err, entitlement.ErrInvalidAmount)

	bumped := activeRecord(plan.TierBasico)
	bumped.Usage.SalesOrders = 100
	b.On("IncrementUsage", mock.Anything, plan.ResourceSalesOrders, 1.0).Return(bumped, nil).Once()

	rec, err := svc.IncrementUsage(context.Background(), plan.ResourceSalesOrders, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 100, rec.Usage.SalesOrders)
	assert.False(t, svc.CanCreateSalesOrder().Allowed)

	b.On("IncrementUsage", mock.Anything, plan.ResourceTransactions, 1.0).
		Return(nil, errors.Join(backend.ErrGatewayFailure, errors.New("503"))).Once()
	_, err = svc.IncrementUsage(context.Background(), plan.ResourceTransactions, 1)
	require.ErrorIs(t, err, backend.ErrGatewayFailure)
	assert.EqualValues(t, 100, svc.Record().Usage.SalesOrders, "a failed call leaves the slot intact")
}

func TestRequestDowngrade(t *testing.T) {
	t.Parallel()

	rec := activeRecord(plan.TierAvancado)
	rec.Usage.Products = 600
	rec.Usage.SalesOrders = 20
	svc, b, clock := loaded(t, rec)
	ctx := context.Background()

	_, err := svc.RequestDowngrade(ctx, plan.TierIlimitado, plan.CycleMonthly)
	require.ErrorIs(t, err, entitlement.ErrNotADowngrade)
	_, err = svc.RequestDowngrade(ctx, plan.TierAvancado, plan.CycleYearly)
	require.ErrorIs(t, err, entitlement.ErrNotADowngrade)
	_, err = svc.RequestDowngrade(ctx, "gold", plan.CycleMonthly)
	require.ErrorIs(t, err, entitlement.ErrInvalidTarget)

	b.On("Downgrade", mock.Anything, plan.TierBasico, plan.CycleMonthly).Return(nil).Once()
	d, err := svc.RequestDowngrade(ctx, plan.TierBasico, plan.CycleMonthly)
	require.NoError(t, err)

	assert.Equal(t, plan.TierAvancado, d.From)
	assert.Equal(t, rec.CurrentPeriodEnd, d.EffectiveAt)
	require.Len(t, d.Overages, 1)
	assert.Equal(t, plan.ResourceProducts, d.Overages[0].Resource)
	assert.EqualValues(t, 500, d.Overages[0].Max)
	assert.Contains(t, d.LostFeatures, plan.FeatureFiscalModule)

	got := svc.Record()
	require.NotNil(t, got.ScheduledChange)
	assert.Equal(t, plan.TierBasico, got.ScheduledChange.PlanID)

	p, _ := svc.EffectivePlan()
	assert.Equal(t, plan.TierAvancado, p.ID, "the current plan stays until the boundary")

	// A revalidation that does not mention the change keeps it.
	b.On("Current", mock.Anything).Return(activeRecord(plan.TierAvancado), nil).Once()
	_, err = svc.Revalidate(ctx)
	require.NoError(t, err)
	require.NotNil(t, svc.Record().ScheduledChange)

	applied := activeRecord(plan.TierBasico)
	applied.CurrentPeriodStart = rec.CurrentPeriodEnd
	applied.CurrentPeriodEnd = rec.CurrentPeriodEnd.AddDate(0, 0, 30)
	revalidated := make(chan struct{})
	b.On("Current", mock.Anything).Run(func(mock.Arguments) { close(revalidated) }).Return(applied, nil).Once()

	clock.BlockUntil(1)
	clock.Advance(10 * 24 * time.Hour)
	receive(t, revalidated)

	require.Eventually(t, func() bool {
		r := svc.Record()
		return r != nil && r.PlanID == plan.TierBasico
	}, 2*time.Second, 5*time.Millisecond)
	assert.Nil(t, svc.Record().ScheduledChange)
	assert.False(t, svc.HasFeature(plan.FeatureFiscalModule).Allowed)
}

func TestRequestDowngradeRejectedByBackend(t *testing.T) {
	t.Parallel()

	svc, b, _ := loaded(t, activeRecord(plan.TierAvancado))
	b.On("Downgrade", mock.Anything, plan.TierBasico, plan.CycleMonthly).Return(backend.ErrRejected).Once()

	_, err := svc.RequestDowngrade(context.Background(), plan.TierBasico, plan.CycleMonthly)
	require.ErrorIs(t, err, backend.ErrRejected)
	assert.Nil(t, svc.Record().ScheduledChange)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want entitlement.Severity
	}{
		{"nil", nil, entitlement.SeverityNone},
		{"limit", subscription.ErrLimitReached, entitlement.SeverityUpsell},
		{"feature", subscription.ErrFeatureGated, entitlement.SeverityUpsell},
		{"module", access.ErrModuleLocked, entitlement.SeverityUpsell},
		{"unauthenticated", &backend.StatusError{StatusCode: 401}, entitlement.SeverityAlert},
		{"gateway", &backend.StatusError{StatusCode: 503}, entitlement.SeverityTransient},
		{"reconcile", payment.ErrReconcile, entitlement.SeverityTransient},
		{"window expired", payment.ErrPaymentWindowExpired, entitlement.SeverityUser},
		{"validation", payment.ErrValidation, entitlement.SeverityUser},
		{"canceled", context.Canceled, entitlement.SeverityNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, entitlement.Classify(tt.err))
		})
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	b := &mockBackend{}
	svc, _ := newService(t, b)
	prompts := svc.Subscribe(context.Background())

	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())

	_, ok := <-prompts
	assert.False(t, ok)

	_, err := svc.Load(context.Background())
	require.ErrorIs(t, err, entitlement.ErrServiceClosed)
}

func TestCloseEndsLiveSubscriptions(t *testing.T) {
	t.Parallel()

	b := &mockBackend{}
	svc, _ := newService(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	prompts := svc.Subscribe(ctx)

	closed := make(chan error, 1)
	go func() { closed <- svc.Close() }()
	require.NoError(t, receive(t, closed))

	select {
	case _, ok := <-prompts:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("prompt stream still open after close")
	}
}

func pixIntent(id string, ttl time.Duration) payment.Intent {
	return payment.Intent{
		ID:        id,
		Channel:   payment.ChannelPix,
		PlanID:    plan.TierIntermediario,
		Cycle:     plan.CycleMonthly,
		Amount:    decimal.RequireFromString("69.90"),
		ExpiresAt: start.Add(ttl),
		QRCode:    "00020126580014br.gov.bcb.pix0136a629532e-7693-4846-852d-1bbff817b5a8520400005303986540569.905802BR6304ABCD",
		Status:    payment.StatusPending,
	}
}

var pixReq = payment.IntentRequest{PlanID: plan.TierIntermediario, Cycle: plan.CycleMonthly}

func TestPixPaymentReloadsSubscription(t *testing.T) {
	t.Parallel()

	svc, b, clock := loaded(t, activeRecord(plan.TierBasico))
	b.On("CreatePixPayment", mock.Anything, pixReq).Return(pixIntent("pi_ok", 30*time.Minute), nil).Once()
	b.On("CheckPaymentStatus", mock.Anything, "pi_ok").Return(payment.StatusSucceeded, nil)
	b.On("Current", mock.Anything).Return(activeRecord(plan.TierIntermediario), nil).Once()

	confirmed := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	w, err := svc.StartPix(ctx, pixReq, payment.ObserverFuncs{
		Confirmed: func(_ payment.Intent, err error) { confirmed <- err },
	})
	require.NoError(t, err)
	// The watch outlives the request that started it.
	cancel()

	clock.BlockUntil(2)
	clock.Advance(5 * time.Second)
	require.NoError(t, receive(t, confirmed))
	assert.Equal(t, payment.WatchSucceeded, w.Wait())

	assert.Equal(t, plan.TierIntermediario, svc.Record().PlanID)
	assert.True(t, svc.HasFeature(plan.FeatureFiscalModule).Allowed)
	_, active := svc.Payment(payment.ChannelPix)
	assert.False(t, active)
}

func TestFinishedWatchReleasesItsContext(t *testing.T) {
	t.Parallel()

	svc, b, _ := loaded(t, activeRecord(plan.TierBasico))
	gatewayCtx := make(chan context.Context, 1)
	b.On("CreatePixPayment", mock.Anything, pixReq).
		Run(func(args mock.Arguments) { gatewayCtx <- args.Get(0).(context.Context) }).
		Return(pixIntent("pi_release", 30*time.Minute), nil).Once()

	w, err := svc.StartPix(context.Background(), pixReq, nil)
	require.NoError(t, err)
	ctx := receive(t, gatewayCtx)
	require.NoError(t, ctx.Err())

	svc.ClosePayment(payment.ChannelPix)
	assert.Equal(t, payment.WatchClosed, w.Wait())
	assert.Eventually(t, func() bool { return ctx.Err() != nil }, time.Second, 5*time.Millisecond)
}

func TestResumePayment(t *testing.T) {
	t.Parallel()

	svc, b, _ := loaded(t, activeRecord(plan.TierBasico))
	ctx := context.Background()

	_, err := svc.ResumePayment(ctx, payment.ChannelPix, nil)
	require.ErrorIs(t, err, entitlement.ErrNoActivePayment)

	b.On("CreatePixPayment", mock.Anything, pixReq).Return(pixIntent("pi_resume", 30*time.Minute), nil).Once()
	w, err := svc.StartPix(ctx, pixReq, nil)
	require.NoError(t, err)

	same, err := svc.ResumePayment(ctx, payment.ChannelPix, nil)
	require.NoError(t, err)
	assert.Same(t, w, same)

	svc.ClosePayment(payment.ChannelPix)
	assert.Equal(t, payment.WatchClosed, w.Wait())

	intent, ok := svc.PendingPayment(payment.ChannelPix)
	require.True(t, ok)
	assert.Equal(t, "pi_resume", intent.ID)

	again, err := svc.ResumePayment(ctx, payment.ChannelPix, nil)
	require.NoError(t, err)
	assert.NotSame(t, w, again)
	assert.Equal(t, payment.WatchWatching, again.State())

	require.NoError(t, svc.SignOut(ctx))
	assert.Equal(t, payment.WatchClosed, again.Wait())
	_, ok = svc.PendingPayment(payment.ChannelPix)
	assert.False(t, ok)
	b.AssertNumberOfCalls(t, "CreatePixPayment", 1)
}

func TestStartBoletoRequiresBillingDetails(t *testing.T) {
	t.Parallel()

	svc, b, _ := loaded(t, activeRecord(plan.TierBasico))
	req := payment.IntentRequest{PlanID: plan.TierIntermediario, Cycle: plan.CycleMonthly}

	_, err := svc.StartBoleto(context.Background(), req, payment.BillingDetails{}, nil)
	require.ErrorIs(t, err, payment.ErrValidation)
	assert.Equal(t, entitlement.SeverityUser, entitlement.Classify(err))
	b.AssertNotCalled(t, "CreateBoletoPayment", mock.Anything, mock.Anything)
}
