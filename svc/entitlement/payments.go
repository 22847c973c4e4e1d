package entitlement

import (
	"context"
	"fmt"

	"github.com/gestaonuvem/entitlements/pkg/payment"
)

// PayByCard runs a card checkout. An in-place upgrade reloads the slot before
// returning; otherwise the caller must redirect to the returned checkout URL.
func (s *Service) PayByCard(ctx context.Context, req payment.CheckoutRequest) (payment.CardOutcome, error) {
	out, err := s.payments.PayByCard(ctx, req)
	if err != nil {
		s.report(ctx, "card checkout", err)
	}
	return out, err
}

// StartPix issues or reuses a PIX intent and watches it. The watch runs for the
// service lifetime, not the lifetime of ctx; close it with ClosePayment.
func (s *Service) StartPix(ctx context.Context, req payment.IntentRequest, obs payment.Observer) (*payment.Watch, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}
	w, err := s.watch(ctx, func(dctx context.Context) (*payment.Watch, error) {
		return s.payments.StartPix(dctx, req, s.observe(ctx, obs))
	})
	if err != nil {
		s.report(ctx, "start pix payment", err)
	}
	return w, err
}

// StartBoleto validates the billing details, then issues or reuses a boleto
// intent and watches it like StartPix.
func (s *Service) StartBoleto(ctx context.Context, req payment.IntentRequest, details payment.BillingDetails, obs payment.Observer) (*payment.Watch, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}
	w, err := s.watch(ctx, func(dctx context.Context) (*payment.Watch, error) {
		return s.payments.StartBoleto(dctx, req, details, s.observe(ctx, obs))
	})
	if err != nil {
		s.report(ctx, "start boleto payment", err)
	}
	return w, err
}

// ResumePayment watches the pending intent of a channel again, e.g. after the
// billing screen was closed and reopened.
func (s *Service) ResumePayment(ctx context.Context, ch payment.Channel, obs payment.Observer) (*payment.Watch, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}
	if w, ok := s.payments.Active(ch); ok {
		return w, nil
	}
	intent, ok := s.payments.Pending(ch)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoActivePayment, ch)
	}
	w, err := s.watch(ctx, func(dctx context.Context) (*payment.Watch, error) {
		return s.payments.Resume(dctx, intent, s.observe(ctx, obs))
	})
	if err != nil {
		s.report(ctx, "resume payment", err)
	}
	return w, err
}

// ResumeIntent watches an intent persisted elsewhere, e.g. by the UI.
func (s *Service) ResumeIntent(ctx context.Context, intent payment.Intent, obs payment.Observer) (*payment.Watch, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}
	w, err := s.watch(ctx, func(dctx context.Context) (*payment.Watch, error) {
		return s.payments.Resume(dctx, intent, s.observe(ctx, obs))
	})
	if err != nil {
		s.report(ctx, "resume payment", err)
	}
	return w, err
}

// ClosePayment stops watching a channel. The intent stays payable.
func (s *Service) ClosePayment(ch payment.Channel) {
	s.payments.Close(ch)
}

// Payment returns the open watch of a channel, if any.
func (s *Service) Payment(ch payment.Channel) (*payment.Watch, bool) {
	return s.payments.Active(ch)
}

// PendingPayment returns the still-payable intent of a channel, if any.
func (s *Service) PendingPayment(ch payment.Channel) (payment.Intent, bool) {
	return s.payments.Pending(ch)
}

// observe forwards to obs and routes terminal failures through the service's error reporting.
func (s *Service) observe(ctx context.Context, obs payment.Observer) payment.Observer {
	if obs == nil {
		obs = payment.ObserverFuncs{}
	}
	ctx = context.WithoutCancel(ctx)
	return payment.ObserverFuncs{
		Tick: obs.OnTick,
		Confirmed: func(i payment.Intent, err error) {
			if err != nil {
				s.report(ctx, "reconcile confirmed payment", err)
			}
			obs.OnConfirmed(i, err)
		},
		Expired: obs.OnExpired,
		Failed:  obs.OnFailed,
		Error: func(err error) {
			s.report(ctx, "poll payment status", err)
			obs.OnError(err)
		},
	}
}
