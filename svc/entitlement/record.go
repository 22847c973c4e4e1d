package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/gestaonuvem/entitlements/pkg/backend"
	"github.com/gestaonuvem/entitlements/pkg/cache"
	"github.com/gestaonuvem/entitlements/pkg/logger"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
	"github.com/gestaonuvem/entitlements/pkg/task"
)

// Record returns a copy of the loaded subscription, or nil before the first load.
func (s *Service) Record() *subscription.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Clone()
}

// current is the evaluator's record source. Stored records are never mutated
// in place, so handing out the pointer is safe.
func (s *Service) current() *subscription.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// Loading reports whether an initial Load is in flight. Revalidate and Reload
// never toggle it.
func (s *Service) Loading() bool {
	return s.loading.Load() > 0
}

// Loaded reports whether a record is in the slot.
func (s *Service) Loaded() bool {
	return s.current() != nil
}

// Load fills the slot for the first time, going through the read-through cache.
// A tenant without a subscription gets a trial provisioned automatically.
func (s *Service) Load(ctx context.Context) (*subscription.Record, error) {
	s.loading.Add(1)
	defer s.loading.Add(-1)

	return s.refresh(ctx, "load", func(ctx context.Context) (*subscription.Record, error) {
		return cache.ReadThrough(ctx, s.cache, s.cacheKey(), s.cacheTTL, s.fetch)
	})
}

// Revalidate silently refreshes the slot and the cache from the backend.
func (s *Service) Revalidate(ctx context.Context) (*subscription.Record, error) {
	return s.refresh(ctx, "revalidate", s.fetchAndCache)
}

// Reload drops the cached record and refetches it. Used after a confirmed payment.
func (s *Service) Reload(ctx context.Context) (*subscription.Record, error) {
	if err := s.cache.Delete(ctx, s.cacheKey()); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate cached subscription", logger.Error(err))
	}
	return s.refresh(ctx, "reload", s.fetchAndCache)
}

// SignOut clears the slot and the cache entry, and stops every payment watch.
// Payment intents stay valid on the gateway but are no longer resumable here.
// A fetch still in flight when SignOut runs is discarded on completion.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.epoch++
	s.record = nil
	b := s.boundary
	s.boundary = nil
	s.armedAt = time.Time{}
	s.mu.Unlock()

	if b != nil {
		b.Cancel()
	}
	s.payments.CloseAll()
	s.payments.Forget()

	if err := s.cache.Delete(ctx, s.cacheKey()); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate cached subscription on sign-out", logger.Error(err))
		return errors.Join(cache.ErrStore, err)
	}
	s.logger.InfoContext(ctx, "signed out")
	return nil
}

func (s *Service) refresh(ctx context.Context, op string, get func(context.Context) (*subscription.Record, error)) (*subscription.Record, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}

	epoch := s.currentEpoch()
	rec, err := get(ctx)
	if err != nil {
		s.report(ctx, op+" subscription", err)
		return nil, err
	}
	s.store(ctx, epoch, rec)
	return rec.Clone(), nil
}

func (s *Service) fetch(ctx context.Context) (*subscription.Record, error) {
	rec, err := s.backend.Current(ctx)
	if errors.Is(err, backend.ErrNotProvisioned) {
		s.logger.InfoContext(ctx, "no subscription provisioned, starting trial")
		rec, err = s.backend.Initialize(ctx)
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrEmptyRecord
	}
	return s.carryScheduledChange(rec), nil
}

func (s *Service) fetchAndCache(ctx context.Context) (*subscription.Record, error) {
	rec, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheRecord(ctx, rec)
	return rec, nil
}

func (s *Service) cacheRecord(ctx context.Context, rec *subscription.Record) {
	if err := s.cache.Set(ctx, s.cacheKey(), rec.Clone(), s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to cache subscription", logger.Error(err))
	}
}

func (s *Service) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// store puts rec in the slot. The most recently completed response wins; a
// response that started before a sign-out is dropped.
func (s *Service) store(ctx context.Context, epoch uint64, rec *subscription.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		s.logger.DebugContext(ctx, "discarding subscription fetched before sign-out")
		return false
	}
	s.record = rec.Clone()
	s.armBoundaryLocked(ctx, s.record)
	return true
}

// carryScheduledChange keeps a locally recorded downgrade on records that do
// not mention it, as long as the backend has not switched plans yet.
func (s *Service) carryScheduledChange(next *subscription.Record) *subscription.Record {
	if next.ScheduledChange != nil {
		return next
	}
	prev := s.current()
	if prev == nil || prev.ScheduledChange == nil {
		return next
	}
	sc := *prev.ScheduledChange
	if next.ID != prev.ID || next.PlanID != prev.PlanID || next.PlanID == sc.PlanID {
		return next
	}
	out := next.Clone()
	out.ScheduledChange = &sc
	return out
}

// armBoundaryLocked schedules a silent revalidation at the instant a scheduled
// plan change takes effect. Must be called with s.mu held.
func (s *Service) armBoundaryLocked(ctx context.Context, rec *subscription.Record) {
	var at time.Time
	if sc := rec.ScheduledChange; sc != nil && sc.EffectiveAt.After(s.clock.Now()) {
		at = sc.EffectiveAt
	}
	if s.boundary != nil && !s.boundary.Stopped() && at.Equal(s.armedAt) {
		return
	}
	if s.boundary != nil {
		s.boundary.Cancel()
		s.boundary = nil
	}
	s.armedAt = at
	if at.IsZero() || s.closed.Load() {
		return
	}

	target := rec.ScheduledChange.PlanID
	s.logger.DebugContext(ctx, "plan change boundary armed", logger.Plan(target), logger.Duration(at.Sub(s.clock.Now())))
	s.boundary = task.At(s.lifetime, s.clock, at, func(ctx context.Context) error {
		s.logger.InfoContext(ctx, "scheduled plan change took effect", logger.Plan(target))
		_, _ = s.Revalidate(ctx)
		return nil
	})
}
