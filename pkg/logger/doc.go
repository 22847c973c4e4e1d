// Package logger builds *slog.Logger instances for the entitlement engine.
//
// New applies functional options over production-safe defaults (JSON, info
// level, stdout). FromConfig maps environment settings onto those options:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log, err := logger.FromConfig(cfg)
//
// Every logger is wrapped with LogHandlerDecorator, which adds the request ID
// stored in the context by WithRequestID. A service serves a single tenant, so
// the tenant ID is bound once with With:
//
//	log = log.With(logger.TenantID(cfg.TenantID))
//	log.InfoContext(ctx, "payment confirmed", logger.IntentID(id), logger.Channel(ch))
//
// Attribute helpers in attr.go keep key names consistent. Helpers taking IDs
// return an empty Attr for empty values, which slog skips.
package logger
