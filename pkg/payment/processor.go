package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/gestaonuvem/entitlements/pkg/logger"
	"github.com/gestaonuvem/entitlements/pkg/qrcode"
)

// Processor runs the payment confirmation protocol for every channel.
// It keeps at most one watch and one resumable intent per channel.
type Processor struct {
	gateway    Gateway
	reconciler Reconciler
	cfg        Config
	clock      clockwork.Clock
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[Channel]Intent
	watches map[Channel]*Watch
}

// Option configures a Processor.
type Option func(*Processor)

func WithConfig(cfg Config) Option {
	return func(p *Processor) {
		p.cfg = cfg.withDefaults()
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(p *Processor) {
		if c != nil {
			p.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProcessor creates a payment processor. It panics if gateway or reconciler is nil.
func NewProcessor(gateway Gateway, reconciler Reconciler, opts ...Option) *Processor {
	if gateway == nil {
		panic("payment: gateway cannot be nil")
	}
	if reconciler == nil {
		panic("payment: reconciler cannot be nil")
	}

	p := &Processor{
		gateway:    gateway,
		reconciler: reconciler,
		cfg:        DefaultConfig(),
		clock:      clockwork.NewRealClock(),
		logger:     slog.Default(),
		pending:    make(map[Channel]Intent),
		watches:    make(map[Channel]*Watch),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.Component("payment"))
	return p
}

// PayByCard runs a card checkout. When the gateway changes the existing card
// subscription in place the local record is reconciled right away; otherwise
// the returned outcome carries the hosted checkout URL and nothing is mutated.
func (p *Processor) PayByCard(ctx context.Context, req CheckoutRequest) (CardOutcome, error) {
	if !req.PlanID.Valid() || !req.Cycle.Valid() {
		return CardOutcome{}, fmt.Errorf("%w: plan %q cycle %q", ErrInvalidRequest, req.PlanID, req.Cycle)
	}
	if req.FrontendURL == "" {
		req.FrontendURL = p.cfg.FrontendURL
	}

	out, err := p.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		return CardOutcome{}, fmt.Errorf("create checkout session: %w", err)
	}

	switch {
	case out.Upgraded:
		p.logger.InfoContext(ctx, "card subscription changed in place",
			logger.Plan(req.PlanID),
			logger.Cycle(req.Cycle),
		)
		if err := p.reconciler.Reload(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to refresh subscription after card upgrade", logger.Error(err))
			return out, errors.Join(ErrReconcile, err)
		}
		return out, nil
	case out.CheckoutURL != "":
		return out, nil
	default:
		return out, ErrNoCheckout
	}
}

// StartPix issues (or reuses) a PIX intent and starts watching it.
// The watch lives until ctx is done, Close is called, or a terminal state is reached.
func (p *Processor) StartPix(ctx context.Context, req IntentRequest, obs Observer) (*Watch, error) {
	req.BillingDetails = nil
	return p.start(ctx, ChannelPix, req, obs)
}

// StartBoleto validates the billing details, then issues (or reuses) a boleto
// intent and starts watching it. Invalid details never reach the gateway.
func (p *Processor) StartBoleto(ctx context.Context, req IntentRequest, details BillingDetails, obs Observer) (*Watch, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}
	d := details.Normalize()
	req.BillingDetails = &d
	return p.start(ctx, ChannelBoleto, req, obs)
}

// Resume re-attaches an observer to a previously issued intent.
// An intent whose window has closed is reported through OnExpired and
// ErrPaymentWindowExpired; it is never watched again.
func (p *Processor) Resume(ctx context.Context, intent Intent, obs Observer) (*Watch, error) {
	if !intent.Channel.Async() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, intent.Channel)
	}
	if intent.ID == "" {
		return nil, ErrInvalidIntent
	}
	if obs == nil {
		obs = ObserverFuncs{}
	}
	if intent.Status.Terminal() && intent.Status != StatusExpired {
		return nil, fmt.Errorf("%w: intent %s is %s", ErrInvalidIntent, intent.ID, intent.Status)
	}
	if intent.ExpiredAt(p.clock.Now()) {
		intent.Status = StatusExpired
		p.forget(intent)
		obs.OnExpired(intent)
		return nil, ErrPaymentWindowExpired
	}
	if intent.Status == "" {
		intent.Status = StatusPending
	}
	return p.watch(ctx, intent, obs), nil
}

// Pending returns the last intent issued on the channel while it can still be paid.
func (p *Processor) Pending(ch Channel) (Intent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.pending[ch]
	if !ok || intent.Status != StatusPending || intent.ExpiredAt(p.clock.Now()) {
		return Intent{}, false
	}
	return intent, true
}

// Active returns the open watch of a channel, if any.
func (p *Processor) Active(ch Channel) (*Watch, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.watches[ch]
	return w, ok
}

// Close stops watching the channel. The intent stays payable and resumable.
func (p *Processor) Close(ch Channel) {
	p.mu.Lock()
	w := p.watches[ch]
	p.mu.Unlock()

	if w != nil {
		w.Close()
	}
}

// CloseAll stops every open watch.
func (p *Processor) CloseAll() {
	p.mu.Lock()
	ws := make([]*Watch, 0, len(p.watches))
	for _, w := range p.watches {
		ws = append(ws, w)
	}
	p.mu.Unlock()

	for _, w := range ws {
		w.Close()
	}
}

// Forget drops every resumable intent, e.g. when the tenant signs out.
func (p *Processor) Forget() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.pending)
}

func (p *Processor) start(ctx context.Context, ch Channel, req IntentRequest, obs Observer) (*Watch, error) {
	if !req.PlanID.Valid() || !req.Cycle.Valid() {
		return nil, fmt.Errorf("%w: plan %q cycle %q", ErrInvalidRequest, req.PlanID, req.Cycle)
	}
	if obs == nil {
		obs = ObserverFuncs{}
	}

	if p.cfg.ReusePendingIntents {
		if intent, ok := p.Pending(ch); ok && intent.PlanID == req.PlanID && intent.Cycle == req.Cycle {
			p.logger.DebugContext(ctx, "reusing pending payment intent",
				logger.IntentID(intent.ID),
				logger.Channel(ch),
			)
			return p.watch(ctx, intent, obs), nil
		}
	}

	var (
		intent Intent
		err    error
	)
	switch ch {
	case ChannelPix:
		intent, err = p.gateway.CreatePixPayment(ctx, req)
	case ChannelBoleto:
		intent, err = p.gateway.CreateBoletoPayment(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s payment: %w", ch, err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("%w: gateway returned no intent id", ErrInvalidIntent)
	}

	intent.Channel = ch
	if intent.PlanID == "" {
		intent.PlanID = req.PlanID
	}
	if intent.Cycle == "" {
		intent.Cycle = req.Cycle
	}
	if intent.Status == "" {
		intent.Status = StatusPending
	}
	if ch == ChannelPix && intent.QRCodeImage == "" && intent.QRCode != "" {
		img, err := qrcode.DataURI(intent.QRCode, p.cfg.QRCodeSize)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to render pix qr code", logger.IntentID(intent.ID), logger.Error(err))
		}
		intent.QRCodeImage = img
	}

	p.logger.InfoContext(ctx, "payment intent created",
		logger.IntentID(intent.ID),
		logger.Channel(ch),
		logger.Plan(intent.PlanID),
		logger.Cycle(intent.Cycle),
		logger.Amount(intent.Amount),
	)

	p.mu.Lock()
	p.pending[ch] = intent
	p.mu.Unlock()

	return p.watch(ctx, intent, obs), nil
}

func (p *Processor) watch(ctx context.Context, intent Intent, obs Observer) *Watch {
	w := &Watch{
		intent:        intent,
		life:          newLifecycle(),
		obs:           obs,
		clock:         p.clock,
		gateway:       p.gateway,
		reconciler:    p.reconciler,
		logger:        p.logger.With(logger.IntentID(intent.ID), logger.Channel(intent.Channel)),
		pollInterval:  p.cfg.pollInterval(intent.Channel),
		tickInterval:  p.cfg.CountdownInterval,
		statusTimeout: p.cfg.StatusTimeout,
		done:          make(chan struct{}),
		onFinish:      p.finished,
	}

	p.mu.Lock()
	prev := p.watches[intent.Channel]
	p.watches[intent.Channel] = w
	p.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	w.start(ctx)
	return w
}

func (p *Processor) finished(w *Watch, state WatchState) {
	intent := w.Intent()

	p.mu.Lock()
	if p.watches[intent.Channel] == w {
		delete(p.watches, intent.Channel)
	}
	p.mu.Unlock()

	// A closed watch leaves its intent payable.
	if state != WatchClosed {
		p.forget(intent)
	}
}

func (p *Processor) forget(intent Intent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cur, ok := p.pending[intent.Channel]; ok && cur.ID == intent.ID {
		delete(p.pending, intent.Channel)
	}
}
