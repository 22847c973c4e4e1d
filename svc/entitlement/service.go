package entitlement

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gestaonuvem/entitlements/pkg/broadcast"
	"github.com/gestaonuvem/entitlements/pkg/cache"
	"github.com/gestaonuvem/entitlements/pkg/logger"
	"github.com/gestaonuvem/entitlements/pkg/payment"
	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/proration"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
	"github.com/gestaonuvem/entitlements/pkg/task"
)

// DefaultCacheTTL bounds how long a cached subscription record is served.
const DefaultCacheTTL = 5 * time.Minute

// Service is the entitlement engine of one tenant session. It owns the single
// in-memory subscription slot and derives every entitlement from it.
// All methods are safe for concurrent use.
type Service struct {
	catalog      *plan.Catalog
	backend      Backend
	clock        clockwork.Clock
	logger       *slog.Logger
	cache        cache.Store[*subscription.Record]
	cacheTTL     time.Duration
	tenantID     string
	promptBuffer int
	paymentOpts  []payment.Option

	lifetime context.Context
	stop     context.CancelFunc

	evaluator *subscription.Evaluator
	prorator  *proration.Calculator
	payments  *payment.Processor
	prompts   *broadcast.Broadcaster[UpgradePrompt]

	mu       sync.RWMutex
	record   *subscription.Record
	epoch    uint64
	boundary *task.Handle
	armedAt  time.Time

	loading atomic.Int32
	closed  atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache puts a read-through cache in front of the current-subscription call.
// The caller keeps ownership of the store.
func WithCache(store cache.Store[*subscription.Record], ttl time.Duration) Option {
	return func(s *Service) {
		if store != nil {
			s.cache = store
		}
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithTenantID scopes cache keys and log records to a tenant.
func WithTenantID(id string) Option {
	return func(s *Service) { s.tenantID = id }
}

// WithPaymentOptions configures the payment processor.
func WithPaymentOptions(opts ...payment.Option) Option {
	return func(s *Service) { s.paymentOpts = append(s.paymentOpts, opts...) }
}

// WithPromptBuffer sets how many upgrade prompts a slow subscriber may lag behind.
func WithPromptBuffer(n int) Option {
	return func(s *Service) { s.promptBuffer = n }
}

// WithLifetime bounds background work (payment watches, boundary tasks) to ctx.
func WithLifetime(ctx context.Context) Option {
	return func(s *Service) {
		if ctx != nil {
			s.lifetime = ctx
		}
	}
}

// New creates a Service. It panics if catalog or backend is nil.
func New(catalog *plan.Catalog, b Backend, opts ...Option) *Service {
	if catalog == nil {
		panic("entitlement: plan catalog is required")
	}
	if b == nil {
		panic("entitlement: backend is required")
	}

	s := &Service{
		catalog:      catalog,
		backend:      b,
		clock:        clockwork.NewRealClock(),
		logger:       logger.Discard(),
		cache:        cache.Nop[*subscription.Record]{},
		cacheTTL:     DefaultCacheTTL,
		promptBuffer: 16,
		lifetime:     context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(logger.Component("entitlement"))
	if s.tenantID != "" {
		s.logger = s.logger.With(logger.TenantID(s.tenantID))
	}
	s.lifetime, s.stop = context.WithCancel(s.lifetime)

	s.evaluator = subscription.NewEvaluator(catalog, s.current, subscription.WithClock(s.clock))
	s.prorator = proration.New(catalog, proration.WithClock(s.clock), proration.WithLogger(s.logger))
	s.prompts = broadcast.New[UpgradePrompt](s.promptBuffer)

	popts := append([]payment.Option{
		payment.WithClock(s.clock),
		payment.WithLogger(s.logger),
	}, s.paymentOpts...)
	s.payments = payment.NewProcessor(b, payment.ReconcilerFunc(func(ctx context.Context) error {
		_, err := s.Reload(ctx)
		return err
	}), popts...)

	return s
}

// Catalog returns the plan catalog the service evaluates against.
func (s *Service) Catalog() *plan.Catalog {
	return s.catalog
}

// Evaluator exposes the entitlement evaluator bound to the service's slot.
func (s *Service) Evaluator() *subscription.Evaluator {
	return s.evaluator
}

// Close stops payment watches, the boundary task and upgrade prompt delivery.
// It does not close the cache store.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.payments.CloseAll()
	s.stop()

	s.mu.Lock()
	b := s.boundary
	s.boundary = nil
	s.mu.Unlock()
	if b != nil {
		b.Cancel()
		<-b.Done()
	}
	return s.prompts.Close()
}

// detach keeps ctx values such as the request ID but ties cancellation to the
// service lifetime, so a watch outlives the request that started it. release
// drops the registration on the lifetime and must be called once the work ends.
func (s *Service) detach(ctx context.Context) (context.Context, func()) {
	dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(s.lifetime, cancel)
	return dctx, func() {
		stop()
		cancel()
	}
}

// watch runs start on a detached context and releases it when the returned
// watch finishes.
func (s *Service) watch(ctx context.Context, start func(context.Context) (*payment.Watch, error)) (*payment.Watch, error) {
	dctx, release := s.detach(ctx)
	w, err := start(dctx)
	if w == nil {
		release()
		return nil, err
	}
	go func() {
		<-w.Done()
		release()
	}()
	return w, err
}

func (s *Service) cacheKey() string {
	if s.tenantID == "" {
		return "subscription:current"
	}
	return "subscription:" + s.tenantID
}
