// Package httpserver runs the local HTTP surface with graceful shutdown and
// readiness probes.
//
// Run blocks until its context is canceled, then drains in-flight requests
// within Config.ShutdownTimeout. Signal handling belongs to the caller:
//
//	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	err := httpserver.New(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, handler)
//
// HealthCheckHandler answers liveness probes when given no checks and
// readiness probes otherwise.
package httpserver
