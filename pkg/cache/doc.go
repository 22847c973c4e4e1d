// Package cache provides the TTL-bounded read-through cache that sits in
// front of the "current subscription" call.
//
// Store is implemented by Memory, an in-process LRU with per-entry expiry
// driven by a clockwork.Clock, by Redis, which shares entries between
// processes as JSON through go-redis, and by Nop. Open picks one from Config.
//
//	store, err := cache.Open[*subscription.Record](ctx, cfg, clock)
//	rec, err := cache.ReadThrough(ctx, store, tenantID, cfg.TTL, fetch)
//
// Cache failures never fail a read: ReadThrough falls back to the loader.
package cache
